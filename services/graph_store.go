package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"genai-rag-backend/internal/logger"
	"genai-rag-backend/models"
)

// GraphStore owns the Project -> PDF -> Chunk graph schema, the vector
// index lifecycle, and upsert semantics for nodes and relationships.
type GraphStore interface {
	// EnsureIndex idempotently creates the vector index over
	// Chunk.embedding. Safe to call on every write path and safe to race.
	EnsureIndex(ctx context.Context) error
	// StoreProject upserts the project, its PDF nodes and their chunks in
	// one logical unit of work. Per-PDF and per-chunk failures are logged
	// and skipped; a whole-call failure is a storage error.
	StoreProject(ctx context.Context, projectName string, pdfs []models.PDFRecord, chunks []models.Chunk) error
	// SimilaritySearch ranks stored chunks against the query embedding.
	// This is the degraded path used when the vector-index client is
	// unavailable; ranking happens client-side.
	SimilaritySearch(ctx context.Context, embedding []float32, k int) ([]models.RetrievedChunk, error)
	// Close releases the underlying connection. Idempotent.
	Close(ctx context.Context) error
}

// scanLimit caps how many chunks the fallback search pulls for
// client-side ranking.
const scanLimit = 1000

// Neo4jStorage implements GraphStore against Neo4j. A nil driver makes
// the store inert: writes warn and return instead of crashing the
// process, so ingestion still completes its other side effects.
type Neo4jStorage struct {
	driver     neo4j.DriverWithContext
	indexName  string
	dimensions int
	closeOnce  sync.Once
}

// NewNeo4jStorage wraps an already-connected driver. Pass a nil driver
// to get an inert store (connection failed at startup).
func NewNeo4jStorage(driver neo4j.DriverWithContext, indexName string, dimensions int) *Neo4jStorage {
	return &Neo4jStorage{
		driver:     driver,
		indexName:  indexName,
		dimensions: dimensions,
	}
}

func (s *Neo4jStorage) EnsureIndex(ctx context.Context) error {
	if s.driver == nil {
		logger.Warn("Neo4j driver not initialized, skipping index creation")
		return nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	// Index names and OPTIONS literals cannot be parameterized.
	query := fmt.Sprintf(`
		CREATE VECTOR INDEX %s IF NOT EXISTS
		FOR (c:Chunk)
		ON (c.embedding)
		OPTIONS {
			indexConfig: {
				`+"`vector.dimensions`"+`: %d,
				`+"`vector.similarity_function`"+`: 'cosine'
			}
		}`, escapeIdentifier(s.indexName), s.dimensions)

	if _, err := session.Run(ctx, query, nil); err != nil {
		logger.Error("Failed to ensure vector index", "index", s.indexName, "error", err)
		return NewStorageError("vector index creation failed", err)
	}

	logger.Debug("Vector index ensured", "index", s.indexName, "dimensions", s.dimensions)
	return nil
}

func (s *Neo4jStorage) StoreProject(ctx context.Context, projectName string, pdfs []models.PDFRecord, chunks []models.Chunk) error {
	if s.driver == nil {
		logger.Warn("Neo4j driver not initialized, skipping project storage", "project", projectName)
		return nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	// Project node. The creation timestamp is set once: re-creating an
	// existing project must not overwrite it.
	_, err := session.Run(ctx, `
		MERGE (p:Project {name: $name})
		ON CREATE SET p.created_at = $created_at`,
		map[string]any{
			"name":       projectName,
			"created_at": time.Now().UTC().Format(time.RFC3339),
		})
	if err != nil {
		logger.Error("Failed to upsert project node", "project", projectName, "error", err)
		return NewStorageError(fmt.Sprintf("project upsert failed for %q", projectName), err)
	}

	// PDF nodes, keyed by (project, name) so identically named files in
	// different projects never collide.
	for _, pdfRecord := range pdfs {
		if pdfRecord.Name == "" {
			logger.Warn("Skipping PDF record with missing name", "project", projectName)
			continue
		}

		_, err := session.Run(ctx, `
			MATCH (p:Project {name: $project})
			MERGE (pdf:PDF {name: $pdf_name, project: $project})
			SET pdf.pages = $pages,
			    pdf.uploaded_at = $uploaded_at
			MERGE (p)-[:HAS_PDF]->(pdf)`,
			map[string]any{
				"project":     projectName,
				"pdf_name":    pdfRecord.Name,
				"pages":       pdfRecord.Pages,
				"uploaded_at": pdfRecord.UploadedAt.UTC().Format(time.RFC3339),
			})
		if err != nil {
			logger.Error("Failed to store PDF node", "project", projectName, "pdf", pdfRecord.Name, "error", err)
			continue
		}
		logger.Debug("Stored PDF node", "project", projectName, "pdf", pdfRecord.Name)
	}

	// Chunk nodes. MATCH-then-MERGE enforces PDF-before-Chunk write
	// order: a chunk whose parent PDF cannot be matched produces zero
	// rows and is skipped with a logged error, never silently dropped.
	logger.Info("Storing chunks", "project", projectName, "count", len(chunks))
	for _, chunk := range chunks {
		result, err := session.Run(ctx, `
			MATCH (pdf:PDF {name: $pdf_name, project: $project})
			MERGE (chunk:Chunk {project: $project, pdf_name: $pdf_name, chunk_id: $chunk_id})
			SET chunk.text = $text,
			    chunk.embedding = $embedding,
			    chunk.page_num = $page_num,
			    chunk.pdf_path = $pdf_path
			MERGE (pdf)-[:HAS_CHUNK]->(chunk)
			RETURN chunk.chunk_id AS id`,
			map[string]any{
				"project":   projectName,
				"pdf_name":  chunk.PDFName,
				"chunk_id":  chunk.ChunkID,
				"text":      chunk.Text,
				"embedding": toFloat64Slice(chunk.Embedding),
				"page_num":  chunk.PageNum,
				"pdf_path":  chunk.PDFPath,
			})
		if err != nil {
			logger.Error("Failed to store chunk", "project", projectName, "pdf", chunk.PDFName, "chunk", chunk.ChunkID, "error", err)
			continue
		}
		if !result.Next(ctx) {
			logger.Error("Parent PDF node not found for chunk, skipping", "project", projectName, "pdf", chunk.PDFName, "chunk", chunk.ChunkID)
		}
	}

	logger.Info("Project stored", "project", projectName, "pdfs", len(pdfs), "chunks", len(chunks))
	return nil
}

func (s *Neo4jStorage) SimilaritySearch(ctx context.Context, embedding []float32, k int) ([]models.RetrievedChunk, error) {
	if s.driver == nil {
		logger.Warn("Neo4j driver not initialized, similarity search returns nothing")
		return nil, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	// Chunks persisted with the empty-vector sentinel are excluded until
	// they are re-embedded.
	result, err := session.Run(ctx, `
		MATCH (c:Chunk)
		WHERE c.embedding IS NOT NULL AND size(c.embedding) > 0
		RETURN c.text AS text, c.embedding AS embedding, c.page_num AS page_num, c.pdf_path AS pdf_path
		LIMIT $limit`,
		map[string]any{"limit": scanLimit})
	if err != nil {
		return nil, NewStorageError("similarity scan failed", err)
	}

	var candidates []models.RetrievedChunk
	for result.Next(ctx) {
		record := result.Record()
		stored, ok := record.Get("embedding")
		if !ok {
			continue
		}
		score, ok := cosineAgainstStored(embedding, stored)
		if !ok {
			continue
		}
		candidates = append(candidates, models.RetrievedChunk{
			Text:       stringValue(record, "text"),
			PageNum:    intValue(record, "page_num"),
			SourcePath: stringValue(record, "pdf_path"),
			Score:      score,
		})
	}
	if err := result.Err(); err != nil {
		return nil, NewStorageError("similarity scan failed", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func (s *Neo4jStorage) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		if s.driver != nil {
			err = s.driver.Close(ctx)
			logger.Info("Neo4j connection closed")
		}
	})
	return err
}

// cosineAgainstStored compares a query vector with an embedding as it
// comes back from the driver (a list of float64 values).
func cosineAgainstStored(query []float32, stored any) (float64, bool) {
	values, ok := stored.([]any)
	if !ok || len(values) != len(query) || len(query) == 0 {
		return 0, false
	}

	var dot, queryNorm, storedNorm float64
	for i, v := range values {
		f, ok := v.(float64)
		if !ok {
			return 0, false
		}
		q := float64(query[i])
		dot += q * f
		queryNorm += q * q
		storedNorm += f * f
	}
	if queryNorm == 0 || storedNorm == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(queryNorm) * math.Sqrt(storedNorm)), true
}

func toFloat64Slice(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

func stringValue(record *neo4j.Record, key string) string {
	if v, ok := record.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func intValue(record *neo4j.Record, key string) int {
	if v, ok := record.Get(key); ok {
		if n, ok := v.(int64); ok {
			return int(n)
		}
	}
	return 0
}

// escapeIdentifier backtick-quotes an index name for inlining into DDL.
func escapeIdentifier(name string) string {
	return "`" + name + "`"
}
