package chunk

import (
	"strings"
	"testing"
)

func newTestChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := NewChunker(size, overlap)
	if err != nil {
		t.Fatalf("NewChunker(%d, %d): %v", size, overlap, err)
	}
	return c
}

func TestInvalidConfigRejected(t *testing.T) {
	cases := []struct {
		size, overlap int
		reason        string
	}{
		{0, 0, "zero size can never hold a token"},
		{-5, 0, "negative size"},
		{100, -1, "negative overlap"},
		{100, 100, "overlap == size stalls the window slide"},
		{100, 150, "overlap > size walks the window backwards"},
	}
	for _, tc := range cases {
		if _, err := NewChunker(tc.size, tc.overlap); err == nil {
			t.Errorf("NewChunker(%d, %d) accepted: %s", tc.size, tc.overlap, tc.reason)
		}
	}
}

func TestEmptyDocumentYieldsNoChunks(t *testing.T) {
	c := newTestChunker(t, 100, 10)

	for _, text := range []string{"", "   ", "\n\t  \n"} {
		if got := c.Split(text); got != nil {
			t.Errorf("Split(%q) = %d chunks, want none", text, len(got))
		}
	}
}

func TestShortDocumentReturnedVerbatim(t *testing.T) {
	c := newTestChunker(t, 100, 10)

	text := "A short abstract about attention mechanisms.\n"
	chunks := c.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("single-chunk text must be the input verbatim, got %q", chunks[0].Text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("single chunk index = %d, want 0", chunks[0].Index)
	}
}

func TestWindowsMatchTokenArithmetic(t *testing.T) {
	const size, overlap = 50, 10
	c := newTestChunker(t, size, overlap)

	text := strings.Repeat("alpha beta gamma delta epsilon ", 40)
	tokens := c.enc.Encode(text, nil, nil)
	total := len(tokens)
	if total <= size {
		t.Fatalf("fixture too small: %d tokens", total)
	}

	chunks := c.Split(text)

	// Recompute the expected windows independently and compare.
	var want []string
	for start := 0; start < total; {
		end := start + size
		if end > total {
			end = total
		}
		want = append(want, c.enc.Decode(tokens[start:end]))
		if end == total {
			break
		}
		start = end - overlap
	}

	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(want))
	}
	for i, ck := range chunks {
		if ck.Index != i {
			t.Errorf("chunk %d has index %d", i, ck.Index)
		}
		if ck.Text != want[i] {
			t.Errorf("chunk %d text mismatch", i)
		}
		if n := c.CountTokens(ck.Text); n > size {
			t.Errorf("chunk %d has %d tokens, budget is %d", i, n, size)
		}
	}
}

func TestConsecutiveChunksShareOverlap(t *testing.T) {
	const size, overlap = 40, 8
	c := newTestChunker(t, size, overlap)

	text := strings.Repeat("one two three four five six seven eight ", 30)
	tokens := c.enc.Encode(text, nil, nil)
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("fixture produced %d chunks, need at least 2", len(chunks))
	}

	step := size - overlap
	for i := 1; i < len(chunks); i++ {
		start := i * step
		shared := c.enc.Decode(tokens[start : start+overlap])
		if !strings.HasPrefix(chunks[i].Text, shared) {
			t.Errorf("chunk %d does not start with the %d-token overlap of its predecessor", i, overlap)
		}
		if !strings.HasSuffix(chunks[i-1].Text, shared) {
			t.Errorf("chunk %d does not end with the shared overlap region", i-1)
		}
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	c := newTestChunker(t, 30, 5)
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 25)

	first := c.Split(text)
	second := c.Split(text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ across runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs across runs", i)
		}
	}
}

func TestExactBudgetDocumentIsSingleChunk(t *testing.T) {
	const size = 64
	c := newTestChunker(t, size, 16)

	long := strings.Repeat("alpha beta gamma delta ", 20)
	tokens := c.enc.Encode(long, nil, nil)
	text := c.enc.Decode(tokens[:size])
	if n := c.CountTokens(text); n != size {
		t.Fatalf("fixture is %d tokens, want exactly %d", n, size)
	}

	chunks := c.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("document of exactly %d tokens split into %d chunks", size, len(chunks))
	}
	if chunks[0].Text != text {
		t.Error("single chunk must equal the document text")
	}
}
