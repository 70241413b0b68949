package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"genai-rag-backend/internal/logger"
	"genai-rag-backend/models"
	"genai-rag-backend/services"
	"genai-rag-backend/utils"
)

// UploadPipeline is the ingestion surface consumed by the upload route.
type UploadPipeline interface {
	Process(ctx context.Context, files []services.IngestFile, projectName string) (*models.UploadSummary, error)
}

// SetupUploadRoutes registers the PDF upload endpoint.
func SetupUploadRoutes(router *gin.Engine, pipeline UploadPipeline) {
	api := router.Group("/api")

	api.POST("/upload", func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid multipart form", gin.H{"error": err.Error()})
			return
		}

		projectName := c.PostForm("project_name")
		if projectName == "" {
			projectName = "default_project"
		}

		headers := form.File["files"]
		files := make([]services.IngestFile, 0, len(headers))
		opened := make([]interface{ Close() error }, 0, len(headers))
		defer func() {
			for _, f := range opened {
				f.Close()
			}
		}()

		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				utils.RespondWithBadRequest(c, "Failed to open uploaded file", gin.H{"file": header.Filename, "error": err.Error()})
				return
			}
			opened = append(opened, f)
			files = append(files, services.IngestFile{Name: header.Filename, Content: f})
		}

		summary, err := pipeline.Process(c.Request.Context(), files, projectName)
		if err != nil {
			logger.Error("Upload processing failed", "project", projectName, "error", err)
			utils.RespondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, summary)
	})
}
