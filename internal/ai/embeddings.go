package ai

import (
	"context"
	"fmt"

	"genai-rag-backend/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEmbedder turns text into fixed-length vectors using the Google
// Generative AI embeddings API. Construction failure is fatal to startup:
// there is no pipeline without a working embedding model. Per-chunk call
// failures are the caller's concern (ingestion keeps the chunk with an
// empty vector, query propagates the error).
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGeminiEmbedder creates an embedder with a persistent API client.
func NewGeminiEmbedder(ctx context.Context, cfg *config.Config) (*GeminiEmbedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client:     client,
		model:      cfg.EmbeddingsModel,
		dimensions: cfg.VectorDimensions,
	}, nil
}

// EmbedText returns the embedding vector for the given text. A vector of
// the wrong dimensionality indicates a model/index configuration mismatch
// and is reported as an error, not silently stored.
func (e *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	model := e.client.EmbeddingModel(e.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}

	vec := resp.Embedding.Values
	if e.dimensions > 0 && len(vec) != e.dimensions {
		return nil, fmt.Errorf("embedding dimensionality %d does not match configured index dimensionality %d", len(vec), e.dimensions)
	}

	return vec, nil
}

// Close releases the underlying API client.
func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
