package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Item is one recommendable reading item as reported by the recommendation
// service. ItemID and Locator together identify the item's canonical page.
type Item struct {
	ItemID  string `json:"itemId"`
	Locator string `json:"locator"`
}

// RecommendClient handles communication with the recommendation service.
type RecommendClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewRecommendClient creates a new recommendation client.
func NewRecommendClient(baseURL string, timeout time.Duration) *RecommendClient {
	return &RecommendClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Lookup fetches the available items for a topic slug, ranked by popularity
// server-side. An empty list is a valid answer meaning "nothing to recommend".
func (c *RecommendClient) Lookup(ctx context.Context, slug string) ([]Item, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("topic", slug)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recommendation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("recommendation service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Recommendations []Item `json:"recommendations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Recommendations, nil
}
