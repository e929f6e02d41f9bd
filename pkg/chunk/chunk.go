// Package chunk splits raw document text into token-bounded, overlapping
// windows for map-reduce summarization. Tokenization uses the cl100k_base
// BPE encoding loaded from an embedded copy, so chunk boundaries are
// reproducible across runs and machines.
package chunk

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// EncodingName is the fixed tokenization scheme used for all chunking.
const EncodingName = "cl100k_base"

// ErrInvalidConfig is returned when chunk size or overlap cannot produce a
// terminating window slide.
var ErrInvalidConfig = errors.New("chunk size must be positive and overlap must be non-negative and smaller than size")

var loaderOnce sync.Once

// Chunk is one token-bounded window of a document, ordered by Index.
// Neighboring chunks share the configured overlap region.
type Chunk struct {
	Index int
	Text  string
}

// Chunker splits text into chunks of at most Size tokens, with Overlap
// tokens shared between consecutive chunks.
type Chunker struct {
	size    int
	overlap int
	enc     *tiktoken.Tiktoken
}

// NewChunker validates the window configuration and loads the encoding.
// overlap >= size would stall the window slide, so it is rejected up front.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidConfig, size, overlap)
	}

	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(EncodingName)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", EncodingName, err)
	}

	return &Chunker{size: size, overlap: overlap, enc: enc}, nil
}

// CountTokens returns the number of tokens in text under the fixed encoding.
func (c *Chunker) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Split breaks text into ordered chunks. An empty or whitespace-only
// document yields no chunks. A document that fits within one window is
// returned as a single chunk whose text is the input verbatim, skipping the
// tokenize/detokenize round trip.
func (c *Chunker) Split(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	tokens := c.enc.Encode(text, nil, nil)
	total := len(tokens)

	if total <= c.size {
		return []Chunk{{Index: 0, Text: text}}
	}

	var chunks []Chunk
	start := 0
	for start < total {
		end := start + c.size
		if end > total {
			end = total
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  c.enc.Decode(tokens[start:end]),
		})
		if end == total {
			break
		}
		start = end - c.overlap
	}

	log.Printf("[Chunk] split %d tokens into %d chunks (size=%d overlap=%d)", total, len(chunks), c.size, c.overlap)
	return chunks
}
