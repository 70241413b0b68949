package models

import "time"

// PDFRecord describes one uploaded PDF within a project. The page count
// is mutable: re-uploading the same filename overwrites it in place.
type PDFRecord struct {
	Name       string    `json:"name" bson:"name"`
	Pages      int       `json:"pages" bson:"pages"`
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

// UploadMetadata is one append-only audit record per PDF-upload event,
// kept in the document store independently of the graph. Timestamps are
// stored in UTC; display-timezone conversion happens at presentation.
type UploadMetadata struct {
	Project    string    `json:"project" bson:"project"`
	PDFName    string    `json:"pdf_name" bson:"pdf_name"`
	Pages      int       `json:"num_pages" bson:"num_pages"`
	UploadTime time.Time `json:"upload_time" bson:"upload_time"`
}

// UploadSummary is the aggregate result of one ingestion batch. Files
// that failed to process are reflected by omission from UploadedFiles.
type UploadSummary struct {
	Project       string   `json:"project"`
	UploadedFiles []string `json:"uploaded_files"`
	TotalChunks   int      `json:"total_chunks"`
	Status        string   `json:"status"`
}
