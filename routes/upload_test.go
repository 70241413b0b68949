package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"genai-rag-backend/models"
	"genai-rag-backend/services"
	"genai-rag-backend/utils"
)

type stubUploadPipeline struct {
	summary *models.UploadSummary
	err     error

	gotProject string
	gotFiles   []string
	gotBodies  []string
}

func (s *stubUploadPipeline) Process(ctx context.Context, files []services.IngestFile, projectName string) (*models.UploadSummary, error) {
	s.gotProject = projectName
	for _, f := range files {
		s.gotFiles = append(s.gotFiles, f.Name)
		body, _ := io.ReadAll(f.Content)
		s.gotBodies = append(s.gotBodies, string(body))
	}
	return s.summary, s.err
}

func newUploadRouter(pipeline UploadPipeline) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupUploadRoutes(router, pipeline)
	return router
}

func multipartUpload(t *testing.T, projectName string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if projectName != "" {
		if err := writer.WriteField("project_name", projectName); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, writer.FormDataContentType()
}

func postMultipart(router *gin.Engine, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestUploadEndpointForwardsFilesAndProject(t *testing.T) {
	pipeline := &stubUploadPipeline{summary: &models.UploadSummary{
		Project:       "research",
		UploadedFiles: []string{"a.pdf"},
		TotalChunks:   12,
		Status:        "ok",
	}}
	router := newUploadRouter(pipeline)

	body, contentType := multipartUpload(t, "research", map[string]string{"a.pdf": "%PDF-1.4 body"})
	recorder := postMultipart(router, body, contentType)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	if pipeline.gotProject != "research" {
		t.Errorf("project = %q, want research", pipeline.gotProject)
	}
	if len(pipeline.gotFiles) != 1 || pipeline.gotFiles[0] != "a.pdf" {
		t.Errorf("files = %v", pipeline.gotFiles)
	}
	if pipeline.gotBodies[0] != "%PDF-1.4 body" {
		t.Errorf("file body = %q", pipeline.gotBodies[0])
	}

	var summary models.UploadSummary
	if err := json.Unmarshal(recorder.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.TotalChunks != 12 {
		t.Errorf("total_chunks = %d, want 12", summary.TotalChunks)
	}
}

func TestUploadEndpointDefaultsProjectName(t *testing.T) {
	pipeline := &stubUploadPipeline{summary: &models.UploadSummary{}}
	router := newUploadRouter(pipeline)

	body, contentType := multipartUpload(t, "", map[string]string{"a.pdf": "%PDF-1.4"})
	recorder := postMultipart(router, body, contentType)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if pipeline.gotProject != "default_project" {
		t.Errorf("project = %q, want default_project", pipeline.gotProject)
	}
}

func TestUploadEndpointMapsValidationErrorsTo400(t *testing.T) {
	pipeline := &stubUploadPipeline{err: services.NewValidationError("limit: 5 PDFs per upload")}
	router := newUploadRouter(pipeline)

	body, contentType := multipartUpload(t, "research", map[string]string{"a.pdf": "%PDF-1.4"})
	recorder := postMultipart(router, body, contentType)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", recorder.Code, recorder.Body.String())
	}
	var resp utils.ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ErrorCode != "validation" {
		t.Errorf("error_code = %q, want validation", resp.ErrorCode)
	}
}

func TestUploadEndpointRejectsNonMultipartBody(t *testing.T) {
	router := newUploadRouter(&stubUploadPipeline{})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", bytes.NewBufferString(`{"not":"multipart"}`))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
}
