// Package discover finds the week's trending papers. The primary source is
// the HuggingFace weekly papers page; entries are enriched with arXiv
// metadata and can be supplemented from an arXiv RSS feed.
package discover

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mtreilly/goarxiv"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBaseURL       = "https://huggingface.co/papers"
	userAgent            = "Mozilla/5.0 (compatible; paperweek/1.0)"
	maxConcurrentLookups = 5
)

var paperIDRe = regexp.MustCompile(`^\d{4}\.\d{4,5}$`)

// Paper is one discovered paper, identified by its arXiv ID.
type Paper struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Abstract  string `json:"abstract,omitempty"`
	URL       string `json:"url"`
	Source    string `json:"source"`
	Published string `json:"published,omitempty"`
}

// Scout scrapes the weekly trending listing.
type Scout struct {
	hc      *http.Client
	baseURL string
	topN    int
}

// NewScout builds a scout that keeps the top n papers of the week.
func NewScout(topN int, timeout time.Duration) *Scout {
	return &Scout{
		hc:      &http.Client{Timeout: timeout},
		baseURL: defaultBaseURL,
		topN:    topN,
	}
}

func newScoutWithBaseURL(topN int, baseURL string) *Scout {
	s := NewScout(topN, 15*time.Second)
	s.baseURL = baseURL
	return s
}

// WeeklyURL returns the listing URL for the ISO week containing t,
// e.g. https://huggingface.co/papers/week/2025-W47.
func (s *Scout) WeeklyURL(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%s/week/%d-W%02d", s.baseURL, year, week)
}

// FetchWeekly scrapes the weekly page for t and enriches each paper with
// arXiv metadata.
func (s *Scout) FetchWeekly(ctx context.Context, t time.Time) ([]Paper, error) {
	ids, err := s.FetchWeeklyIDs(ctx, t)
	if err != nil {
		return nil, err
	}
	return s.Enrich(ctx, ids), nil
}

// FetchWeeklyIDs scrapes the weekly page and returns up to topN arXiv IDs in
// listing order.
func (s *Scout) FetchWeeklyIDs(ctx context.Context, t time.Time) ([]string, error) {
	url := s.WeeklyURL(t)
	log.Printf("[Discover] fetching %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch weekly page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch weekly page: HTTP %d", resp.StatusCode)
	}

	ids, err := parseWeeklyIDs(resp.Body, s.topN)
	if err != nil {
		return nil, err
	}
	if len(ids) < s.topN {
		log.Printf("[Discover] only found %d papers, expected %d", len(ids), s.topN)
	}
	return ids, nil
}

// parseWeeklyIDs extracts paper IDs from links of the form /papers/<id>.
// Community-discussion anchors are skipped; the main paper link is enough.
func parseWeeklyIDs(r io.Reader, topN int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse weekly page: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	doc.Find(`a[href^="/papers/"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		id := strings.TrimPrefix(href, "/papers/")
		if strings.Contains(id, "#") {
			return true
		}
		if !paperIDRe.MatchString(id) || seen[id] {
			return true
		}
		seen[id] = true
		ids = append(ids, id)
		return len(ids) < topN
	})
	return ids, nil
}

// stubTitle is the placeholder title for a paper whose metadata lookup
// failed. Merge recognizes this shape and never compares stub titles for
// similarity.
func stubTitle(id string) string {
	return "Paper " + id
}

// Enrich looks each ID up on arXiv for title, abstract and publication date.
// A failed lookup degrades to a stub entry rather than dropping the paper.
func (s *Scout) Enrich(ctx context.Context, ids []string) []Paper {
	papers := make([]Paper, len(ids))
	for i, id := range ids {
		papers[i] = Paper{
			ID:     id,
			Title:  stubTitle(id),
			URL:    "https://arxiv.org/abs/" + id,
			Source: "huggingface",
		}
	}

	client, err := goarxiv.New()
	if err != nil {
		log.Printf("[Discover] arxiv client unavailable: %v", err)
		return papers
	}

	sem := make(chan struct{}, maxConcurrentLookups)
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			results, err := client.Search(gctx, "id:"+id, &goarxiv.SearchOptions{MaxResults: 1})
			if err != nil || len(results.Articles) == 0 {
				log.Printf("[Discover] metadata lookup failed for %s: %v", id, err)
				return nil
			}
			a := results.Articles[0]
			papers[i].Title = strings.TrimSpace(a.Title)
			papers[i].Abstract = strings.TrimSpace(a.Summary)
			papers[i].Published = a.Published.Format("2006-01-02")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("[Discover] metadata lookups cancelled: %v", err)
	}
	return papers
}
