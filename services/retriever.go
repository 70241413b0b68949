package services

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"genai-rag-backend/internal/logger"
	"genai-rag-backend/models"
)

// Embedder is the capability of turning text into a fixed-length vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns the top-k chunks most similar to a question. The
// query pipeline picks one variant at construction time, so callers
// never branch on which backend is live.
type Retriever interface {
	Search(ctx context.Context, question string, k int) ([]models.RetrievedChunk, error)
}

// IndexRetriever is the primary retrieval path: it embeds the question
// and ranks chunks server-side through the named vector index.
type IndexRetriever struct {
	driver    neo4j.DriverWithContext
	embedder  Embedder
	indexName string
}

// NewIndexRetriever verifies the graph connection is usable and returns
// the index-backed retriever. An error here tells the pipeline to fall
// back to the scan retriever.
func NewIndexRetriever(ctx context.Context, driver neo4j.DriverWithContext, embedder Embedder, indexName string) (*IndexRetriever, error) {
	if driver == nil {
		return nil, fmt.Errorf("neo4j driver not initialized")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity check failed: %w", err)
	}
	return &IndexRetriever{
		driver:    driver,
		embedder:  embedder,
		indexName: indexName,
	}, nil
}

func (r *IndexRetriever) Search(ctx context.Context, question string, k int) ([]models.RetrievedChunk, error) {
	embedding, err := r.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, NewQueryError(KindEmbedding, "failed to embed question", err)
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		CALL db.index.vector.queryNodes($index, $k, $embedding)
		YIELD node, score
		RETURN node.text AS text, node.page_num AS page_num, node.pdf_path AS pdf_path, score`,
		map[string]any{
			"index":     r.indexName,
			"k":         k,
			"embedding": toFloat64Slice(embedding),
		})
	if err != nil {
		return nil, NewStorageError("vector index query failed", err)
	}

	var chunks []models.RetrievedChunk
	for result.Next(ctx) {
		record := result.Record()
		score := 0.0
		if v, ok := record.Get("score"); ok {
			if f, ok := v.(float64); ok {
				score = f
			}
		}
		chunks = append(chunks, models.RetrievedChunk{
			Text:       stringValue(record, "text"),
			PageNum:    intValue(record, "page_num"),
			SourcePath: stringValue(record, "pdf_path"),
			Score:      score,
		})
	}
	if err := result.Err(); err != nil {
		return nil, NewStorageError("vector index query failed", err)
	}

	return chunks, nil
}

// ScanRetriever is the degraded retrieval path: it embeds the question
// and delegates to the graph store's client-side similarity scan.
type ScanRetriever struct {
	store    GraphStore
	embedder Embedder
}

// NewScanRetriever builds the fallback retriever over a graph store.
func NewScanRetriever(store GraphStore, embedder Embedder) *ScanRetriever {
	logger.Warn("Vector index retriever unavailable, using graph store similarity scan")
	return &ScanRetriever{store: store, embedder: embedder}
}

func (r *ScanRetriever) Search(ctx context.Context, question string, k int) ([]models.RetrievedChunk, error) {
	embedding, err := r.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, NewQueryError(KindEmbedding, "failed to embed question", err)
	}
	return r.store.SimilaritySearch(ctx, embedding, k)
}
