// Package fetch downloads paper PDFs from arXiv and extracts their text.
// Extraction is best effort — the summarization pipeline only needs readable
// text, not byte-exact PDF fidelity.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ledongthuc/pdf"
)

const (
	arxivPDFBaseURL = "https://arxiv.org/pdf"
	userAgent       = "Mozilla/5.0 (compatible; paperweek/1.0)"
	maxPDFSize      = 50 * 1024 * 1024
)

// Fetcher downloads PDFs into dir and extracts their text.
type Fetcher struct {
	hc      *http.Client
	baseURL string
	dir     string
}

// NewFetcher builds a fetcher saving PDFs under dir.
func NewFetcher(dir string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		hc:      &http.Client{Timeout: timeout},
		baseURL: arxivPDFBaseURL,
		dir:     dir,
	}
}

// Text downloads the paper's PDF (skipping the download when the file is
// already on disk) and returns its extracted text.
func (f *Fetcher) Text(ctx context.Context, paperID string) (string, error) {
	path := filepath.Join(f.dir, paperID+".pdf")
	if _, err := os.Stat(path); err != nil {
		if err := f.Download(ctx, paperID); err != nil {
			return "", err
		}
	}
	return ExtractText(path)
}

// Download fetches the PDF for paperID into the fetcher's directory. The
// file is written via a temp name and renamed so a failed download never
// leaves a truncated PDF behind.
func (f *Fetcher) Download(ctx context.Context, paperID string) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	url := fmt.Sprintf("%s/%s.pdf", f.baseURL, paperID)
	log.Printf("[Fetch] downloading %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.hc.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", paperID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: HTTP %d", paperID, resp.StatusCode)
	}
	if resp.ContentLength > maxPDFSize {
		return fmt.Errorf("download %s: %d bytes exceeds the %dMB limit", paperID, resp.ContentLength, maxPDFSize/1024/1024)
	}

	path := filepath.Join(f.dir, paperID+".pdf")
	tmp, err := os.CreateTemp(f.dir, paperID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxPDFSize+1))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > maxPDFSize {
		err = fmt.Errorf("body exceeds the %dMB limit", maxPDFSize/1024/1024)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("download %s: %w", paperID, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("save %s: %w", paperID, err)
	}
	log.Printf("[Fetch] saved %s (%d bytes)", path, n)
	return nil
}

// ExtractText pulls the plain text out of a PDF file, page order preserved.
func ExtractText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", path, err)
	}
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("extract text from %s: %w", path, err)
	}

	text := buf.String()
	log.Printf("[Fetch] extracted %d bytes of text from %s", len(text), filepath.Base(path))
	return text, nil
}
