package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"genai-rag-backend/internal/logger"
	"genai-rag-backend/models"
	"genai-rag-backend/utils"
)

// QueryPipeline is the retrieval+generation surface consumed by the
// query route.
type QueryPipeline interface {
	Query(ctx context.Context, question string) (*models.QueryResult, error)
}

// SetupQueryRoutes registers the semantic query endpoint.
func SetupQueryRoutes(router *gin.Engine, pipeline QueryPipeline) {
	router.POST("/query", func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		question := strings.TrimSpace(req.Query)
		if question == "" {
			utils.RespondWithBadRequest(c, "Query text is required", nil)
			return
		}

		result, err := pipeline.Query(c.Request.Context(), question)
		if err != nil {
			logger.Error("Query processing failed", "error", err)
			utils.RespondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	})
}
