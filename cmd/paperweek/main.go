package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jony/paperweek/pkg/chunk"
	"github.com/jony/paperweek/pkg/config"
	"github.com/jony/paperweek/pkg/discover"
	"github.com/jony/paperweek/pkg/fetch"
	"github.com/jony/paperweek/pkg/llm"
	"github.com/jony/paperweek/pkg/store"
	"github.com/jony/paperweek/pkg/summarize"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCmd()
	case "summarize":
		summarizeCmd()
	case "setup":
		setupCmd()
	case "version", "--version", "-v":
		fmt.Println("paperweek v1.0.0")
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("paperweek - weekly trending-paper summaries")
	fmt.Println()
	fmt.Println("Usage: paperweek <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run               Discover this week's papers, summarize, persist reports")
	fmt.Println("  summarize <file>  Summarize one local text or PDF file")
	fmt.Println("  setup             Interactive configuration wizard")
	fmt.Println("  version           Show version")
}

func buildPipeline(cfg *config.Config) (*summarize.Pipeline, []summarize.Backend, error) {
	chunker, err := chunk.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, nil, err
	}

	pipeline, err := summarize.New(chunker, summarize.Options{
		MapPrompt:      cfg.MapPrompt,
		ReducePrompt:   cfg.ReducePrompt,
		CallTimeout:    cfg.CallTimeout(),
		MapConcurrency: cfg.MapConcurrency,
	})
	if err != nil {
		return nil, nil, err
	}

	if len(cfg.Backends) == 0 {
		return nil, nil, errors.New("no backends configured; run `paperweek setup` first")
	}
	var backends []summarize.Backend
	for _, b := range cfg.Backends {
		provider, err := llm.New(b)
		if err != nil {
			return nil, nil, err
		}
		backends = append(backends, summarize.Backend{Name: b.Name, Provider: provider})
	}
	return pipeline, backends, nil
}

func runCmd() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	pipeline, backends, err := buildPipeline(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		fmt.Printf("Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	now := time.Now()
	year, week := now.ISOWeek()
	weekKey := fmt.Sprintf("%d-%02d", year, week)

	scout := discover.NewScout(cfg.TopN, cfg.HTTPTimeout())
	papers, err := scout.FetchWeekly(ctx, now)
	if err != nil {
		fmt.Printf("Error discovering papers: %v\n", err)
		os.Exit(1)
	}
	for _, feedURL := range cfg.FeedURLs {
		extras, err := scout.FetchFeed(ctx, feedURL)
		if err != nil {
			log.Printf("[Paperweek] feed %s: %v", feedURL, err)
			continue
		}
		papers = discover.Merge(papers, extras)
	}
	if len(papers) == 0 {
		fmt.Println("No trending papers found this week.")
		return
	}
	log.Printf("[Paperweek] week %s: %d papers, %d backends", weekKey, len(papers), len(backends))

	fetcher := fetch.NewFetcher(cfg.WeekDir(now), cfg.HTTPTimeout())
	for _, paper := range papers {
		if ctx.Err() != nil {
			break
		}
		processPaper(ctx, st, fetcher, pipeline, backends, weekKey, paper)
	}

	paths, err := st.WeekReports(weekKey)
	if err != nil {
		fmt.Printf("Error listing reports: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d reports ready under %s\n", len(paths), cfg.WeekDir(now))
}

func processPaper(ctx context.Context, st *store.Store, fetcher *fetch.Fetcher, pipeline *summarize.Pipeline, backends []summarize.Backend, weekKey string, paper discover.Paper) {
	var pending []summarize.Backend
	for _, b := range backends {
		if st.Completed(paper.ID, b.Name) {
			log.Printf("[Paperweek] %s/%s already summarized, skipping", paper.ID, b.Name)
			continue
		}
		pending = append(pending, b)
	}
	if len(pending) == 0 {
		return
	}

	log.Printf("[Paperweek] summarizing %s (%s)", paper.ID, paper.Title)
	text, err := fetcher.Text(ctx, paper.ID)
	if err != nil {
		log.Printf("[Paperweek] %s: %v", paper.ID, err)
		for _, b := range pending {
			recordFailure(st, weekKey, paper.ID, b.Name, err.Error())
		}
		return
	}

	results, err := pipeline.Run(ctx, text, pending)
	if err != nil {
		log.Printf("[Paperweek] %s: %v", paper.ID, err)
		for _, b := range pending {
			recordFailure(st, weekKey, paper.ID, b.Name, err.Error())
		}
		return
	}

	for name, out := range results {
		if out.Err != nil {
			log.Printf("[Paperweek] %s/%s failed: %v", paper.ID, name, out.Err)
			recordFailure(st, weekKey, paper.ID, name, out.Err.Error())
			continue
		}
		if _, err := st.SaveReport(weekKey, paper.ID, name, out.Report); err != nil {
			log.Printf("[Paperweek] %s/%s: %v", paper.ID, name, err)
		}
	}
}

// recordFailure marks a (paper, backend) run as failed. An unrecorded
// failure would be retried on every run, so a store error is at least
// logged.
func recordFailure(st *store.Store, week, paperID, backend, cause string) {
	if err := st.MarkFailed(week, paperID, backend, cause); err != nil {
		log.Printf("[Paperweek] %s/%s: %v", paperID, backend, err)
	}
}

func summarizeCmd() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: paperweek summarize <file>")
		os.Exit(1)
	}
	path := os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	pipeline, backends, err := buildPipeline(cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var text string
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err = fetch.ExtractText(path)
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	}
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := pipeline.Run(ctx, text, backends)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	for _, b := range backends {
		out := results[b.Name]
		fmt.Printf("=== %s ===\n", b.Name)
		if out.Err != nil {
			fmt.Printf("failed: %v\n\n", out.Err)
			continue
		}
		fmt.Printf("%s\n\n", out.Report)
	}
}
