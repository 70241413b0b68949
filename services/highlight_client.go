package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"genai-rag-backend/internal/config"
	"genai-rag-backend/models"
)

// HighlightClient talks to the external PDF-rendering service that
// re-renders a source page with a snippet highlighted. The renderer is a
// black box to this pipeline; only the request/response contract lives
// here.
type HighlightClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHighlightClient creates a renderer client.
func NewHighlightClient(cfg *config.Config) *HighlightClient {
	return &HighlightClient{
		baseURL: cfg.RenderServiceURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // rendering can be slow on large pages
		},
	}
}

// RenderHighlight returns the PNG bytes of the requested page with the
// snippet highlighted.
func (c *HighlightClient) RenderHighlight(ctx context.Context, req models.HighlightRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal highlight request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/highlight", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create highlight request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("highlight request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("render service returned status %d: %s", resp.StatusCode, string(msg))
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered image: %w", err)
	}
	return img, nil
}
