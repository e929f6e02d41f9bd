// Package summarize implements map-reduce summarization of paper text: each
// token-bounded chunk is independently distilled into a fact note (map), and
// the surviving notes are synthesized into one technical report (reduce).
// Chunking happens once per document; every configured backend runs the same
// chunks through its own map-reduce pass, and backends fail independently.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jony/paperweek/pkg/chunk"
	"github.com/jony/paperweek/pkg/llm"
)

var (
	// ErrEmptyDocument means there was nothing to chunk; no model call is
	// attempted.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrAllChunksFailed means every map call for a backend failed, so there
	// is nothing to synthesize.
	ErrAllChunksFailed = errors.New("all chunk summaries failed")
	// ErrSynthesisFailed wraps a reduce-stage model failure.
	ErrSynthesisFailed = errors.New("synthesis failed")
)

// Backend pairs a backend name with its model provider for one run.
type Backend struct {
	Name     string
	Provider llm.Provider
}

// Outcome is the terminal result for one (document, backend) pair: a
// synthesized report, or the error that prevented one.
type Outcome struct {
	Report string
	Err    error
}

// Options tune a Pipeline. Zero values fall back to defaults.
type Options struct {
	MapPrompt      string
	ReducePrompt   string
	CallTimeout    time.Duration
	MapConcurrency int
}

// Pipeline drives chunk → map → reduce for a document across backends.
type Pipeline struct {
	chunker        *chunk.Chunker
	mapPrompt      string
	reducePrompt   string
	callTimeout    time.Duration
	mapConcurrency int
}

// New validates the prompt templates and builds a pipeline around the
// chunker.
func New(chunker *chunk.Chunker, opts Options) (*Pipeline, error) {
	if opts.MapPrompt == "" {
		opts.MapPrompt = DefaultMapPrompt
	}
	if opts.ReducePrompt == "" {
		opts.ReducePrompt = DefaultReducePrompt
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 2 * time.Minute
	}
	if opts.MapConcurrency <= 0 {
		opts.MapConcurrency = 4
	}

	if err := validateTemplate(opts.MapPrompt, TextPlaceholder); err != nil {
		return nil, fmt.Errorf("map prompt: %w", err)
	}
	if err := validateTemplate(opts.ReducePrompt, SummariesPlaceholder); err != nil {
		return nil, fmt.Errorf("reduce prompt: %w", err)
	}

	return &Pipeline{
		chunker:        chunker,
		mapPrompt:      opts.MapPrompt,
		reducePrompt:   opts.ReducePrompt,
		callTimeout:    opts.CallTimeout,
		mapConcurrency: opts.MapConcurrency,
	}, nil
}

// Run chunks the document once and runs map-reduce over every backend
// concurrently. The returned map has one Outcome per backend; a failed
// backend never affects the others. ErrEmptyDocument is returned before any
// model call when there is nothing to summarize.
func (p *Pipeline) Run(ctx context.Context, doc string, backends []Backend) (map[string]Outcome, error) {
	chunks := p.chunker.Split(doc)
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	outcomes := make([]Outcome, len(backends))
	var g errgroup.Group
	for i, b := range backends {
		g.Go(func() error {
			outcomes[i] = p.runBackend(ctx, b, chunks)
			return nil
		})
	}
	g.Wait()

	results := make(map[string]Outcome, len(backends))
	for i, b := range backends {
		results[b.Name] = outcomes[i]
	}
	return results, nil
}

func (p *Pipeline) runBackend(ctx context.Context, b Backend, chunks []chunk.Chunk) Outcome {
	log.Printf("[Summarize] %s: mapping %d chunks", b.Name, len(chunks))

	notes := p.mapChunks(ctx, b, chunks)
	if len(notes) == 0 {
		return Outcome{Err: fmt.Errorf("%w: backend %s", ErrAllChunksFailed, b.Name)}
	}

	// A single surviving note already came from one model call; an extra
	// synthesis round trip would add nothing.
	if len(notes) == 1 {
		return Outcome{Report: notes[0]}
	}

	log.Printf("[Summarize] %s: reducing %d notes", b.Name, len(notes))
	report, err := p.reduce(ctx, b, notes)
	if err != nil {
		log.Printf("[Summarize] %s: synthesis failed: %v", b.Name, err)
		return Outcome{Err: fmt.Errorf("%w: %w", ErrSynthesisFailed, err)}
	}
	return Outcome{Report: report}
}

// mapChunks fans the map stage out over independent chunks and reassembles
// the surviving notes by chunk index, not completion order. A failed chunk
// is logged and dropped; it never aborts the batch.
func (p *Pipeline) mapChunks(ctx context.Context, b Backend, chunks []chunk.Chunk) []string {
	results := make([]string, len(chunks))
	done := make([]bool, len(chunks))
	sem := make(chan struct{}, p.mapConcurrency)

	g, gctx := errgroup.WithContext(ctx)
	for _, ck := range chunks {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			note, err := p.summarizeChunk(gctx, b, ck)
			if err != nil {
				log.Printf("[Summarize] %s: chunk %d failed: %v", b.Name, ck.Index, err)
				return nil
			}
			results[ck.Index] = note
			done[ck.Index] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("[Summarize] %s: map stage cancelled: %v", b.Name, err)
	}

	var notes []string
	for i := range results {
		if done[i] {
			notes = append(notes, results[i])
		}
	}
	return notes
}

func (p *Pipeline) summarizeChunk(ctx context.Context, b Backend, ck chunk.Chunk) (string, error) {
	prompt := renderTemplate(p.mapPrompt, TextPlaceholder, ck.Text)

	cctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	out, err := b.Provider.Generate(cctx, prompt)
	if err != nil {
		return "", err
	}
	note := strings.TrimSpace(out)
	log.Printf("[Summarize] %s: chunk %d mapped (%d -> %d bytes)", b.Name, ck.Index, len(ck.Text), len(note))
	return note, nil
}

func (p *Pipeline) reduce(ctx context.Context, b Backend, notes []string) (string, error) {
	combined := strings.Join(notes, NoteSeparator)
	prompt := renderTemplate(p.reducePrompt, SummariesPlaceholder, combined)

	cctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	out, err := b.Provider.Generate(cctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
