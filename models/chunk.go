package models

// Chunk is the atomic unit of retrieval: a bounded window of page text
// plus its embedding, tied back to the source PDF for citation.
type Chunk struct {
	ChunkID   string    `json:"chunk_id" bson:"chunk_id"`
	PDFName   string    `json:"pdf_name" bson:"pdf_name"`
	PageNum   int       `json:"page_num" bson:"page_num"`
	Text      string    `json:"text" bson:"text"`
	PDFPath   string    `json:"pdf_path" bson:"pdf_path"`
	Embedding []float32 `json:"embedding,omitempty" bson:"embedding,omitempty"`
}

// HasEmbedding reports whether the chunk carries a usable vector.
// Chunks whose embedding call failed are stored with an empty vector so
// they can be re-embedded later; they are excluded from similarity search.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// RetrievedChunk is a chunk as returned by similarity search, carrying
// provenance for the highlight/citation flow.
type RetrievedChunk struct {
	Text       string  `json:"text"`
	PageNum    int     `json:"page_num"`
	SourcePath string  `json:"source_path"`
	Score      float64 `json:"score,omitempty"`
}
