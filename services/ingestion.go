package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"genai-rag-backend/internal/config"
	"genai-rag-backend/internal/logger"
	"genai-rag-backend/models"
)

// Chunker splits a saved document into chunk records plus a page count.
type Chunker interface {
	ChunkFile(path, pdfName string) ([]models.Chunk, int, error)
}

// IngestFile is one uploaded file as seen by the pipeline, decoupled
// from the HTTP multipart types.
type IngestFile struct {
	Name    string
	Content io.Reader
}

// IngestionService orchestrates one upload batch: save file, count
// pages, chunk, embed, record metadata, then a single batched graph
// write for the whole batch. Per-file and per-chunk failures are
// isolated; only the final graph write can fail the batch.
type IngestionService struct {
	cfg      *config.Config
	chunker  Chunker
	embedder Embedder
	graph    GraphStore
	metadata MetadataStore
}

// NewIngestionService wires the ingestion pipeline.
func NewIngestionService(cfg *config.Config, chunker Chunker, embedder Embedder, graph GraphStore, metadata MetadataStore) *IngestionService {
	return &IngestionService{
		cfg:      cfg,
		chunker:  chunker,
		embedder: embedder,
		graph:    graph,
		metadata: metadata,
	}
}

// Process ingests a batch of files into a project. A batch exceeding the
// file limit is rejected whole, before any side effect.
func (s *IngestionService) Process(ctx context.Context, files []IngestFile, projectName string) (*models.UploadSummary, error) {
	tracer := otel.Tracer("ingestion")
	ctx, span := tracer.Start(ctx, "ingestion.process")
	defer span.End()

	span.SetAttributes(
		attribute.String("ingestion.project", projectName),
		attribute.Int("ingestion.files", len(files)),
	)

	if len(files) == 0 {
		return nil, NewValidationError("at least one PDF must be uploaded")
	}
	if len(files) > s.cfg.MaxFilesPerUpload {
		return nil, NewValidationError("limit: %d PDFs per upload", s.cfg.MaxFilesPerUpload)
	}

	uploadedFiles := []string{}
	var pdfRecords []models.PDFRecord
	var allChunks []models.Chunk

	for _, file := range files {
		logger.Info("Processing PDF", "project", projectName, "pdf", file.Name)

		chunks, pages, err := s.processFile(ctx, file, projectName)
		if err != nil {
			// One file's failure never halts its siblings; it is simply
			// omitted from uploaded_files.
			logger.Error("Failed to process PDF", "project", projectName, "pdf", file.Name, "error", err)
			continue
		}

		uploadedFiles = append(uploadedFiles, file.Name)
		pdfRecords = append(pdfRecords, models.PDFRecord{
			Name:       file.Name,
			Pages:      pages,
			UploadedAt: time.Now().UTC(),
		})
		allChunks = append(allChunks, chunks...)
	}

	// One index-ensure and one graph write for the whole batch.
	if err := s.graph.EnsureIndex(ctx); err != nil {
		logger.Warn("Vector index ensure failed, attempting writes anyway", "error", err)
	}
	if err := s.graph.StoreProject(ctx, projectName, pdfRecords, allChunks); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("ingestion.uploaded", len(uploadedFiles)),
		attribute.Int("ingestion.chunks", len(allChunks)),
	)

	return &models.UploadSummary{
		Project:       projectName,
		UploadedFiles: uploadedFiles,
		TotalChunks:   len(allChunks),
		Status:        "Successfully processed and stored in Neo4j + MongoDB.",
	}, nil
}

// processFile runs the per-file stages: save, chunk, embed, metadata.
func (s *IngestionService) processFile(ctx context.Context, file IngestFile, projectName string) ([]models.Chunk, int, error) {
	path, err := s.savePDF(file, projectName)
	if err != nil {
		return nil, 0, err
	}

	chunks, pages, err := s.chunker.ChunkFile(path, file.Name)
	if err != nil {
		return nil, 0, err
	}
	if len(chunks) == 0 {
		return nil, 0, NewDocumentReadError(path, fmt.Errorf("no text chunks extracted"))
	}

	// Embedding failures keep the chunk with an empty-vector sentinel so
	// it can be persisted for later re-embedding; siblings are unaffected.
	for i := range chunks {
		vec, err := s.embedder.EmbedText(ctx, chunks[i].Text)
		if err != nil {
			logger.Warn("Embedding failed for chunk", "pdf", file.Name, "chunk", chunks[i].ChunkID, "error", err)
			chunks[i].Embedding = nil
			continue
		}
		chunks[i].Embedding = vec
	}

	// Audit record; the metadata store absorbs its own failures.
	s.metadata.StoreMetadata(ctx, models.UploadMetadata{
		Project:    projectName,
		PDFName:    file.Name,
		Pages:      pages,
		UploadTime: time.Now().UTC(),
	})

	return chunks, pages, nil
}

// savePDF persists an upload under a project-scoped directory, written
// to a temp file first and renamed into place. The PDF magic bytes are
// checked before the file is accepted.
func (s *IngestionService) savePDF(file IngestFile, projectName string) (string, error) {
	projectDir := filepath.Join(s.cfg.FileStorageDir, projectName)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create project directory: %w", err)
	}

	finalPath := filepath.Join(projectDir, filepath.Base(file.Name))
	tempPath := finalPath + ".tmp"

	tempFile, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.Copy(tempFile, file.Content)
	if closeErr := tempFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if written == 0 {
		os.Remove(tempPath)
		return "", NewDocumentReadError(file.Name, fmt.Errorf("file is empty"))
	}

	if err := validatePDFHeader(tempPath); err != nil {
		os.Remove(tempPath)
		return "", NewDocumentReadError(file.Name, err)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to move file to final location: %w", err)
	}

	logger.Info("Saved uploaded PDF", "path", finalPath)
	return finalPath, nil
}

func validatePDFHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file for validation: %w", err)
	}
	defer f.Close()

	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("failed to read PDF header: %w", err)
	}
	if !bytes.Equal(header, []byte("%PDF")) {
		return fmt.Errorf("not a valid PDF document (missing PDF header)")
	}
	return nil
}
