package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"genai-rag-backend/internal/logger"
	"genai-rag-backend/models"
	"genai-rag-backend/utils"
)

// HighlightRenderer re-renders a PDF page with a snippet highlighted.
type HighlightRenderer interface {
	RenderHighlight(ctx context.Context, req models.HighlightRequest) ([]byte, error)
}

// SetupHighlightRoutes registers the citation-rendering endpoint. The
// response is the rendered page as PNG bytes; render failures come back
// as a plain-text 500 body.
func SetupHighlightRoutes(router *gin.Engine, renderer HighlightRenderer) {
	pdf := router.Group("/pdf")

	pdf.POST("/highlight", func(c *gin.Context) {
		var req models.HighlightRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		logger.Info("Rendering highlight", "pdf", req.PDFPath, "page", req.PageNum)

		img, err := renderer.RenderHighlight(c.Request.Context(), req)
		if err != nil {
			logger.Error("Highlight rendering failed", "pdf", req.PDFPath, "error", err)
			c.Data(http.StatusInternalServerError, "text/plain", []byte(err.Error()))
			return
		}

		c.Data(http.StatusOK, "image/png", img)
	})
}
