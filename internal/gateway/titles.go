package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// TitleFetcher pulls the <title> of a recommended item's page so the bot can
// present something friendlier than a bare URL. Strictly optional: any
// failure means the caller falls back to the URL alone.
type TitleFetcher struct {
	HTTPClient *http.Client
}

// NewTitleFetcher creates a new title fetcher.
func NewTitleFetcher(timeout time.Duration) *TitleFetcher {
	return &TitleFetcher{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Title fetches pageURL and returns its trimmed document title.
func (f *TitleFetcher) Title(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("title fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("title fetch returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return "", fmt.Errorf("page has no title")
	}
	return title, nil
}
