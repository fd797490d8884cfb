// Package gateway holds the HTTP clients for the external collaborators: the
// post-history lookup service and the reading-recommendation service.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HistoryClient handles communication with the post-history service.
type HistoryClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewHistoryClient creates a new history client.
func NewHistoryClient(baseURL, token string, timeout time.Duration) *HistoryClient {
	return &HistoryClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type historyRequest struct {
	Handle   string   `json:"handle"`
	Keywords []string `json:"keywords"`
}

type historyResponse struct {
	Matches []string `json:"matches"`
}

// Lookup asks the history service which of the candidate keywords appear in
// the user's recent post history. Returns the matching subset; callers treat
// any failure as an empty result rather than propagating it to the user.
func (c *HistoryClient) Lookup(ctx context.Context, handle string, candidates []string) ([]string, error) {
	payload, err := json.Marshal(historyRequest{Handle: handle, Keywords: candidates})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("history service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Matches, nil
}
