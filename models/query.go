package models

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// QueryResult pairs the generated answer with the provenance of every
// chunk that went into its context.
type QueryResult struct {
	Answer string           `json:"answer"`
	Chunks []RetrievedChunk `json:"chunks"`
}

// HighlightRequest is the body of POST /pdf/highlight. PageNum is
// 1-indexed, matching chunk provenance.
type HighlightRequest struct {
	PDFPath string `json:"pdf_path" binding:"required"`
	PageNum int    `json:"page_num" binding:"required"`
	Snippet string `json:"snippet" binding:"required"`
}
