package services

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes pipeline failures so the HTTP boundary can map
// them to a transport status without inspecting messages. Per-item
// failures inside a batch are absorbed and reported in aggregate; only
// whole-call failures propagate as a PipelineError.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindDocumentRead  ErrorKind = "document_read"
	KindEmbedding     ErrorKind = "embedding"
	KindMetadataStore ErrorKind = "metadata_store"
	KindStorage       ErrorKind = "storage"
	KindPromptFetch   ErrorKind = "prompt_fetch"
	KindGeneration    ErrorKind = "generation"
	KindQuery         ErrorKind = "query"
)

// PipelineError is a categorized failure with its original cause.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewValidationError reports a client-caused error (4xx-equivalent).
func NewValidationError(format string, args ...any) error {
	return &PipelineError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewDocumentReadError reports an unreadable/unparsable source document.
func NewDocumentReadError(path string, err error) error {
	return &PipelineError{Kind: KindDocumentRead, Message: fmt.Sprintf("cannot read document %s", path), Err: err}
}

// NewStorageError reports a fatal graph-store failure for the current call.
func NewStorageError(message string, err error) error {
	return &PipelineError{Kind: KindStorage, Message: message, Err: err}
}

// NewQueryError reports a fatal retrieval or generation failure. Unlike
// ingestion's per-item tolerance, a query has no sibling items to
// continue, so these always surface.
func NewQueryError(kind ErrorKind, message string, err error) error {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the category of an error, defaulting to KindQuery for
// uncategorized failures.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindQuery
}

// IsValidation reports whether the error is client-caused.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
