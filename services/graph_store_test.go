package services

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"genai-rag-backend/models"
)

func TestInertStoreWithoutDriver(t *testing.T) {
	store := NewNeo4jStorage(nil, "vector", 768)
	ctx := context.Background()

	if err := store.EnsureIndex(ctx); err != nil {
		t.Errorf("EnsureIndex on inert store: %v", err)
	}
	err := store.StoreProject(ctx, "proj", []models.PDFRecord{{Name: "a.pdf"}}, []models.Chunk{{ChunkID: "1_0"}})
	if err != nil {
		t.Errorf("StoreProject on inert store: %v", err)
	}
	chunks, err := store.SimilaritySearch(ctx, []float32{0.1, 0.2}, 3)
	if err != nil {
		t.Errorf("SimilaritySearch on inert store: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("SimilaritySearch on inert store returned %d chunks", len(chunks))
	}
	if err := store.Close(ctx); err != nil {
		t.Errorf("Close on inert store: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	store := NewNeo4jStorage(nil, "vector", 768)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := store.Close(ctx); err != nil {
			t.Fatalf("Close call %d: %v", i+1, err)
		}
	}
}

func asStored(values ...float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func TestCosineAgainstStoredIdenticalDirection(t *testing.T) {
	score, ok := cosineAgainstStored([]float32{1, 2, 3}, asStored(2, 4, 6))
	if !ok {
		t.Fatal("expected a comparable pair")
	}
	if math.Abs(score-1.0) > 1e-9 {
		t.Errorf("score = %v, want 1.0 for parallel vectors", score)
	}
}

func TestCosineAgainstStoredOrthogonal(t *testing.T) {
	score, ok := cosineAgainstStored([]float32{1, 0}, asStored(0, 1))
	if !ok {
		t.Fatal("expected a comparable pair")
	}
	if math.Abs(score) > 1e-9 {
		t.Errorf("score = %v, want 0 for orthogonal vectors", score)
	}
}

func TestCosineAgainstStoredOpposite(t *testing.T) {
	score, ok := cosineAgainstStored([]float32{1, 1}, asStored(-1, -1))
	if !ok {
		t.Fatal("expected a comparable pair")
	}
	if math.Abs(score+1.0) > 1e-9 {
		t.Errorf("score = %v, want -1 for opposite vectors", score)
	}
}

func TestCosineAgainstStoredRejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		query  []float32
		stored any
	}{
		{"length mismatch", []float32{1, 2, 3}, asStored(1, 2)},
		{"empty vectors", []float32{}, asStored()},
		{"not a slice", []float32{1, 2}, "oops"},
		{"nil stored", []float32{1, 2}, nil},
	}
	for _, tc := range cases {
		if _, ok := cosineAgainstStored(tc.query, tc.stored); ok {
			t.Errorf("%s: expected rejection", tc.name)
		}
	}
}

func TestToFloat64Slice(t *testing.T) {
	out := toFloat64Slice([]float32{0.5, -1.25, 3})
	want := []float64{0.5, -1.25, 3}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
	if got := toFloat64Slice(nil); len(got) != 0 {
		t.Errorf("nil input produced %v", got)
	}
}

func TestEscapeIdentifier(t *testing.T) {
	if got := escapeIdentifier("vector"); got != "`vector`" {
		t.Errorf("escapeIdentifier = %q", got)
	}
}

func TestStoreProjectUpsertIsIdempotent(t *testing.T) {
	uri := os.Getenv("TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("TEST_NEO4J_URI not set, skipping neo4j integration test")
	}

	ctx := context.Background()
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(os.Getenv("TEST_NEO4J_USER"), os.Getenv("TEST_NEO4J_PASSWORD"), ""))
	if err != nil {
		t.Fatal(err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		t.Skipf("neo4j not reachable at %s: %v", uri, err)
	}

	project := "idempotency_test_project"
	session := driver.NewSession(ctx, neo4j.SessionConfig{})
	cleanup := func() {
		session.Run(ctx, `
			MATCH (p:Project {name: $project})
			OPTIONAL MATCH (p)-[:HAS_PDF]->(pdf)
			OPTIONAL MATCH (pdf)-[:HAS_CHUNK]->(c)
			DETACH DELETE p, pdf, c`,
			map[string]any{"project": project})
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		session.Close(ctx)
		driver.Close(ctx)
	})

	store := NewNeo4jStorage(driver, "vector", 3)
	pdfs := []models.PDFRecord{{Name: "a.pdf", Pages: 2}}
	chunks := []models.Chunk{
		{ChunkID: "1_0", PDFName: "a.pdf", PageNum: 1, Text: "first", PDFPath: "/data/a.pdf", Embedding: []float32{1, 0, 0}},
		{ChunkID: "2_0", PDFName: "a.pdf", PageNum: 2, Text: "second", PDFPath: "/data/a.pdf", Embedding: []float32{0, 1, 0}},
	}

	// Storing the same batch twice must update in place, never
	// duplicate; the second upload's page count wins.
	if err := store.StoreProject(ctx, project, pdfs, chunks); err != nil {
		t.Fatal(err)
	}
	pdfs[0].Pages = 5
	if err := store.StoreProject(ctx, project, pdfs, chunks); err != nil {
		t.Fatal(err)
	}

	result, err := session.Run(ctx, `
		MATCH (p:Project {name: $project})-[:HAS_PDF]->(pdf)-[:HAS_CHUNK]->(c)
		RETURN count(DISTINCT pdf) AS pdfs, count(DISTINCT c) AS chunks, max(pdf.pages) AS pages`,
		map[string]any{"project": project})
	if err != nil {
		t.Fatal(err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if pdfCount, _ := record.Get("pdfs"); pdfCount.(int64) != 1 {
		t.Errorf("pdf nodes = %v, want 1", pdfCount)
	}
	if chunkCount, _ := record.Get("chunks"); chunkCount.(int64) != 2 {
		t.Errorf("chunk nodes = %v, want 2", chunkCount)
	}
	if pages, _ := record.Get("pages"); pages.(int64) != 5 {
		t.Errorf("pdf pages = %v, want 5 after re-upload", pages)
	}

	found, err := store.SimilaritySearch(ctx, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Text != "first" {
		t.Errorf("similarity scan = %+v, want the matching chunk", found)
	}
}
