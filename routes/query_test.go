package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"genai-rag-backend/models"
	"genai-rag-backend/services"
	"genai-rag-backend/utils"
)

type stubQueryPipeline struct {
	result *models.QueryResult
	err    error
	calls  int
}

func (s *stubQueryPipeline) Query(ctx context.Context, question string) (*models.QueryResult, error) {
	s.calls++
	return s.result, s.err
}

func newQueryRouter(pipeline QueryPipeline) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupQueryRoutes(router, pipeline)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestQueryEndpointSuccess(t *testing.T) {
	pipeline := &stubQueryPipeline{result: &models.QueryResult{
		Answer: "the answer",
		Chunks: []models.RetrievedChunk{{Text: "passage", PageNum: 4, SourcePath: "/files/p/a.pdf", Score: 0.9}},
	}}
	recorder := postJSON(t, newQueryRouter(pipeline), "/query", `{"query":"what is this?"}`)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", recorder.Code, recorder.Body.String())
	}

	var result models.QueryResult
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Answer != "the answer" {
		t.Errorf("answer = %q", result.Answer)
	}
	if len(result.Chunks) != 1 || result.Chunks[0].PageNum != 4 {
		t.Errorf("chunks = %+v", result.Chunks)
	}
}

func TestQueryEndpointRejectsBlankQuery(t *testing.T) {
	pipeline := &stubQueryPipeline{}

	for _, body := range []string{`{"query":""}`, `{"query":"   "}`, `{}`} {
		recorder := postJSON(t, newQueryRouter(pipeline), "/query", body)
		if recorder.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, recorder.Code)
		}
	}
	if pipeline.calls != 0 {
		t.Errorf("pipeline called %d times for blank queries, want 0", pipeline.calls)
	}
}

func TestQueryEndpointRejectsMalformedJSON(t *testing.T) {
	recorder := postJSON(t, newQueryRouter(&stubQueryPipeline{}), "/query", `{"query":`)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
}

func TestQueryEndpointMapsValidationErrorsTo400(t *testing.T) {
	pipeline := &stubQueryPipeline{err: services.NewValidationError("bad input")}
	recorder := postJSON(t, newQueryRouter(pipeline), "/query", `{"query":"q"}`)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
	var resp utils.ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ErrorCode != "validation" {
		t.Errorf("error_code = %q, want validation", resp.ErrorCode)
	}
}

func TestQueryEndpointMapsPipelineFailuresTo500(t *testing.T) {
	pipeline := &stubQueryPipeline{err: services.NewQueryError(services.KindGeneration, "generation failed", errors.New("timeout"))}
	recorder := postJSON(t, newQueryRouter(pipeline), "/query", `{"query":"q"}`)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", recorder.Code)
	}
	var resp utils.ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ErrorCode != "generation" {
		t.Errorf("error_code = %q, want generation", resp.ErrorCode)
	}
}
