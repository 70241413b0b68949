package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"genai-rag-backend/internal/logger"
	"genai-rag-backend/models"
)

// Generator is the text-generation capability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PromptProvider assembles the generation prompt from retrieved context
// and the question. It never fails; an unreachable prompt backend falls
// back to a fixed local template.
type PromptProvider interface {
	BuildPrompt(ctx context.Context, contextText, question string) string
}

// AnswerCache is an optional best-effort cache in front of the pipeline.
type AnswerCache interface {
	Get(ctx context.Context, question string) (*models.QueryResult, bool)
	Set(ctx context.Context, question string, result *models.QueryResult)
}

// NoContextAnswer is returned when retrieval finds nothing; the
// generation model is never called with empty context.
const NoContextAnswer = "No relevant context found in the database."

// RAGPipeline answers questions by retrieving the most similar chunks
// and feeding them as context to the generation model. The retrieval
// variant (vector index vs graph scan) is fixed at construction.
type RAGPipeline struct {
	retriever Retriever
	generator Generator
	prompts   PromptProvider
	cache     AnswerCache
	topK      int
}

// NewRAGPipeline wires the query pipeline. cache may be nil.
func NewRAGPipeline(retriever Retriever, generator Generator, prompts PromptProvider, cache AnswerCache, topK int) *RAGPipeline {
	if topK <= 0 {
		topK = 3
	}
	return &RAGPipeline{
		retriever: retriever,
		generator: generator,
		prompts:   prompts,
		cache:     cache,
		topK:      topK,
	}
}

// Query runs retrieval and generation for one question and returns the
// answer with per-chunk provenance for citation display.
func (p *RAGPipeline) Query(ctx context.Context, question string) (*models.QueryResult, error) {
	tracer := otel.Tracer("query-pipeline")
	ctx, span := tracer.Start(ctx, "query.process")
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, NewValidationError("query text is required")
	}

	if p.cache != nil {
		if cached, ok := p.cache.Get(ctx, question); ok {
			span.SetAttributes(attribute.Bool("query.cache_hit", true))
			logger.Debug("Answer cache hit", "question_chars", len(question))
			return cached, nil
		}
	}

	chunks, err := p.retriever.Search(ctx, question, p.topK)
	if err != nil {
		logger.Error("Document retrieval failed", "error", err)
		return nil, NewQueryError(KindQuery, "document retrieval failed", err)
	}

	span.SetAttributes(attribute.Int("query.retrieved_chunks", len(chunks)))

	if len(chunks) == 0 {
		logger.Warn("No relevant documents found", "question_chars", len(question))
		return &models.QueryResult{
			Answer: NoContextAnswer,
			Chunks: []models.RetrievedChunk{},
		}, nil
	}

	contextParts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contextParts = append(contextParts, chunk.Text)
	}
	prompt := p.prompts.BuildPrompt(ctx, strings.Join(contextParts, "\n"), question)

	answer, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("Generation failed", "error", err)
		return nil, NewQueryError(KindGeneration, "generation failed", err)
	}

	result := &models.QueryResult{
		Answer: answer,
		Chunks: chunks,
	}

	if p.cache != nil {
		p.cache.Set(ctx, question, result)
	}

	return result, nil
}
