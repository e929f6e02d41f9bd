package discover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const weeklyPageFixture = `<!DOCTYPE html>
<html><body>
<nav><a href="/papers/trending">Trending</a></nav>
<article><a href="/papers/2511.11793"><h3>First Paper</h3></a>
<a href="/papers/2511.11793#community">12 comments</a></article>
<article><a href="/papers/2511.12345"><h3>Second Paper</h3></a></article>
<article><a href="/papers/2511.11793">First Paper again</a></article>
<article><a href="/papers/2511.99001"><h3>Third Paper</h3></a></article>
<article><a href="/papers/2512.00001"><h3>Fourth Paper</h3></a></article>
<a href="/datasets/foo">a dataset</a>
</body></html>`

func TestParseWeeklyIDs(t *testing.T) {
	ids, err := parseWeeklyIDs(strings.NewReader(weeklyPageFixture), 5)
	if err != nil {
		t.Fatalf("parseWeeklyIDs: %v", err)
	}

	want := []string{"2511.11793", "2511.12345", "2511.99001", "2512.00001"}
	if len(ids) != len(want) {
		t.Fatalf("got %d ids %v, want %d", len(ids), ids, len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestParseWeeklyIDsHonorsTopN(t *testing.T) {
	ids, err := parseWeeklyIDs(strings.NewReader(weeklyPageFixture), 2)
	if err != nil {
		t.Fatalf("parseWeeklyIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want top 2", len(ids))
	}
	if ids[0] != "2511.11793" || ids[1] != "2511.12345" {
		t.Errorf("top 2 ids = %v, listing order must be preserved", ids)
	}
}

func TestFetchWeeklyIDs(t *testing.T) {
	var gotUA, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		w.Write([]byte(weeklyPageFixture))
	}))
	defer srv.Close()

	s := newScoutWithBaseURL(3, srv.URL)
	ts := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	ids, err := s.FetchWeeklyIDs(context.Background(), ts)
	if err != nil {
		t.Fatalf("FetchWeeklyIDs: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("got %d ids, want 3", len(ids))
	}
	if gotPath != "/week/2025-W47" {
		t.Errorf("requested path %s, want /week/2025-W47", gotPath)
	}
	if gotUA == "" {
		t.Error("request went out without a User-Agent")
	}
}

func TestFetchWeeklyIDsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newScoutWithBaseURL(3, srv.URL)
	if _, err := s.FetchWeeklyIDs(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error on HTTP 503")
	}
}

func TestWeeklyURL(t *testing.T) {
	s := NewScout(5, time.Second)
	ts := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	if got := s.WeeklyURL(ts); got != "https://huggingface.co/papers/week/2025-W47" {
		t.Errorf("WeeklyURL = %s", got)
	}
}

func TestMergeDropsDuplicates(t *testing.T) {
	primary := []Paper{
		{ID: "2511.11793", Title: "Mixture of Experts Explained"},
		{ID: "2511.12345", Title: "Scaling Laws for Neural Language Models"},
	}
	extras := []Paper{
		{ID: "2511.11793", Title: "Completely different title, same ID"},
		{ID: "2512.00001", Title: "mixture of experts explained!"},
		{ID: "2512.00002", Title: "Emergent Abilities of Quantized Inference"},
	}

	merged := Merge(primary, extras)
	if len(merged) != 3 {
		t.Fatalf("merged %d papers, want 3: %+v", len(merged), merged)
	}
	if merged[2].ID != "2512.00002" {
		t.Errorf("surviving extra = %s, want 2512.00002", merged[2].ID)
	}
}

func TestNearDuplicateTitle(t *testing.T) {
	if !nearDuplicateTitle("Attention Is All You Need", "attention  is all you need") {
		t.Error("titles differing only in casing and spacing must match")
	}
	if !nearDuplicateTitle("Mixture of Experts Explained", "Mixture of Experts Explained!") {
		t.Error("trailing punctuation must not defeat the match")
	}
	if nearDuplicateTitle("Scaling Laws for Neural Language Models", "Emergent Abilities of Large Language Models") {
		t.Error("different papers flagged as duplicates")
	}
	if nearDuplicateTitle("", "anything") {
		t.Error("empty titles must never match")
	}
}

func TestMergeKeepsStubTitledPapers(t *testing.T) {
	// Failed metadata lookups leave "Paper <id>" placeholders, which differ
	// only in the ID digits. Distinct papers must survive the merge anyway.
	primary := []Paper{
		{ID: "2511.10001", Title: stubTitle("2511.10001")},
		{ID: "2511.10002", Title: "Mixture of Experts Explained"},
	}
	extras := []Paper{
		{ID: "2511.10003", Title: stubTitle("2511.10003")},
		{ID: "2511.10001", Title: stubTitle("2511.10001")},
	}

	merged := Merge(primary, extras)
	if len(merged) != 3 {
		t.Fatalf("merged %d papers, want 3: %+v", len(merged), merged)
	}
	if merged[2].ID != "2511.10003" {
		t.Errorf("surviving extra = %s, want 2511.10003", merged[2].ID)
	}
}

const feedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>cs.CL updates on arXiv.org</title>
<item>
<title>Sparse Attention at Scale</title>
<link>https://arxiv.org/abs/2511.20001</link>
<description>We study sparse attention kernels.</description>
</item>
<item>
<title>Blog post without an arXiv ID</title>
<link>https://example.com/post</link>
</item>
</channel></rss>`

func TestFetchFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedFixture))
	}))
	defer srv.Close()

	s := NewScout(5, 5*time.Second)
	papers, err := s.FetchFeed(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchFeed: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("got %d papers, want 1 (items without an arXiv link are skipped): %+v", len(papers), papers)
	}
	p := papers[0]
	if p.ID != "2511.20001" {
		t.Errorf("ID = %s, want 2511.20001", p.ID)
	}
	if p.Title != "Sparse Attention at Scale" || p.Source != "arxiv-rss" {
		t.Errorf("unexpected paper: %+v", p)
	}
}
