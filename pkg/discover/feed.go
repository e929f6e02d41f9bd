package discover

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/mmcdole/gofeed"
)

// titleSimilarityThreshold marks two titles as the same paper. Listing pages
// and RSS feeds disagree on casing and punctuation, not on wording.
const titleSimilarityThreshold = 0.93

var arxivIDRe = regexp.MustCompile(`(\d{4}\.\d{4,5})`)

// FetchFeed reads an arXiv RSS/Atom feed and turns its entries into papers.
// Used to supplement the weekly listing with fresh category feeds.
func (s *Scout) FetchFeed(ctx context.Context, feedURL string) ([]Paper, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	var papers []Paper
	for _, item := range feed.Items {
		m := arxivIDRe.FindStringSubmatch(item.Link)
		if m == nil {
			continue
		}
		papers = append(papers, Paper{
			ID:        m[1],
			Title:     strings.TrimSpace(item.Title),
			Abstract:  strings.TrimSpace(item.Description),
			URL:       item.Link,
			Source:    "arxiv-rss",
			Published: item.Published,
		})
	}
	log.Printf("[Discover] feed %s yielded %d papers", feedURL, len(papers))
	return papers, nil
}

// Merge appends extras to primary, dropping entries that repeat an ID or
// carry a near-duplicate title.
func Merge(primary, extras []Paper) []Paper {
	merged := append([]Paper(nil), primary...)
	for _, p := range extras {
		if isDuplicate(merged, p) {
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

func isDuplicate(known []Paper, candidate Paper) bool {
	for _, k := range known {
		if k.ID == candidate.ID {
			return true
		}
	}
	// Stub titles all share the "Paper <id>" shape, which Jaro-Winkler's
	// prefix weighting scores as near-identical. IDs already decided those;
	// only real titles are compared.
	if candidate.Title == stubTitle(candidate.ID) {
		return false
	}
	for _, k := range known {
		if k.Title == stubTitle(k.ID) {
			continue
		}
		if nearDuplicateTitle(k.Title, candidate.Title) {
			return true
		}
	}
	return false
}

func nearDuplicateTitle(a, b string) bool {
	na, nb := normalizeTitle(a), normalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	sim, err := edlib.StringsSimilarity(na, nb, edlib.JaroWinkler)
	return err == nil && sim >= titleSimilarityThreshold
}

func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
