package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"genai-rag-backend/internal/config"
	"genai-rag-backend/internal/logger"
)

// Client fetches named, versioned prompt templates from the external
// prompt-management backend (Langfuse-compatible API). It can never block
// the query pipeline: any fetch or compile failure falls back to a fixed
// local template, deterministically.
type Client struct {
	baseURL    string
	publicKey  string
	secretKey  string
	promptName string
	httpClient *http.Client
}

// NewClient creates a prompt client.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.PromptServiceURL, "/"),
		publicKey:  cfg.PromptPublicKey,
		secretKey:  cfg.PromptSecretKey,
		promptName: cfg.PromptName,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// promptResponse is the wire shape of a managed prompt. The prompt body
// is either a plain template string or an ordered list of chat messages.
type promptResponse struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Prompt json.RawMessage `json:"prompt"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildPrompt returns the generation prompt for the given context and
// question. The managed template wins when it can be fetched and
// compiled; otherwise the local default template is used.
func (c *Client) BuildPrompt(ctx context.Context, contextText, question string) string {
	if c.publicKey == "" || c.secretKey == "" {
		logger.Debug("Prompt service credentials not configured, using default prompt")
		return FallbackPrompt(contextText, question)
	}

	template, err := c.fetchTemplate(ctx)
	if err != nil {
		logger.Error("Prompt fetch failed, using default prompt", "prompt", c.promptName, "error", err)
		return FallbackPrompt(contextText, question)
	}

	compiled := compileTemplate(template, contextText, question)
	if compiled == "" {
		logger.Warn("Fetched prompt compiled to empty string, using default prompt", "prompt", c.promptName)
		return FallbackPrompt(contextText, question)
	}

	return compiled
}

func (c *Client) fetchTemplate(ctx context.Context) (*promptResponse, error) {
	url := fmt.Sprintf("%s/api/public/v2/prompts/%s?label=production", c.baseURL, c.promptName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt request: %w", err)
	}
	req.SetBasicAuth(c.publicKey, c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prompt request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("prompt service returned status %d", resp.StatusCode)
	}

	var template promptResponse
	if err := json.NewDecoder(resp.Body).Decode(&template); err != nil {
		return nil, fmt.Errorf("failed to decode prompt response: %w", err)
	}

	return &template, nil
}

// compileTemplate flattens the template body to a single string and
// substitutes the context/question variables. Supported bodies: a plain
// template string, a chat-message list (contents concatenated in order),
// or an object carrying a "prompt" key.
func compileTemplate(template *promptResponse, contextText, question string) string {
	raw := ""

	var asString string
	var asMessages []chatMessage
	var asObject struct {
		Prompt string `json:"prompt"`
	}

	switch {
	case json.Unmarshal(template.Prompt, &asString) == nil:
		raw = asString
	case json.Unmarshal(template.Prompt, &asMessages) == nil:
		parts := make([]string, 0, len(asMessages))
		for _, m := range asMessages {
			parts = append(parts, m.Content)
		}
		raw = strings.Join(parts, "\n")
	case json.Unmarshal(template.Prompt, &asObject) == nil:
		raw = asObject.Prompt
	}

	raw = strings.ReplaceAll(raw, "{{context}}", contextText)
	raw = strings.ReplaceAll(raw, "{{question}}", question)
	return raw
}

// FallbackPrompt is the fixed local template used whenever the managed
// prompt is unavailable.
func FallbackPrompt(contextText, question string) string {
	return fmt.Sprintf("Use the following context to answer accurately:\n%s\n\nQuestion: %s", contextText, question)
}
