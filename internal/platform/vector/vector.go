// Package vector defines the store abstraction the projection writer and the
// retrieval planner share. Adapters live in sibling packages.
package vector

import (
	"context"
	"fmt"
)

// Document is one indexed record: embedding plus the rendered text and the
// flat metadata used for exact filtering.
type Document struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  map[string]any
}

// Match is one similarity hit.
type Match struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]any
}

type Store interface {
	Upsert(ctx context.Context, collection string, docs []Document) error
	Delete(ctx context.Context, collection string, ids []string) error

	// Get returns documents matching the metadata filter exactly, no
	// similarity involved. A nil filter returns up to limit documents.
	Get(ctx context.Context, collection string, where map[string]any, limit int) ([]Document, error)

	// Query runs a similarity search, optionally narrowed by a metadata filter.
	Query(ctx context.Context, collection string, embedding []float32, topK int, where map[string]any) ([]Match, error)

	// Count returns the exact number of documents matching the metadata
	// filter. Counting never falls back to similarity results.
	Count(ctx context.Context, collection string, where map[string]any) (int, error)
}

type OperationErrorCode string

const (
	OperationErrorValidation      OperationErrorCode = "validation_failed"
	OperationErrorEncodeFailed    OperationErrorCode = "encode_failed"
	OperationErrorDecodeFailed    OperationErrorCode = "decode_failed"
	OperationErrorTransportFailed OperationErrorCode = "transport_failed"
	OperationErrorTimeout         OperationErrorCode = "timeout"
	OperationErrorQueryFailed     OperationErrorCode = "query_failed"
)

type OperationError struct {
	Code       OperationErrorCode
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *OperationError) Error() string {
	if e == nil {
		return "vector store operation failed"
	}
	if e.Message != "" {
		return fmt.Sprintf(
			"vector store operation failed (op=%s code=%s status=%d): %s",
			e.Operation,
			e.Code,
			e.StatusCode,
			e.Message,
		)
	}
	if e.Cause != nil {
		return fmt.Sprintf(
			"vector store operation failed (op=%s code=%s status=%d): %v",
			e.Operation,
			e.Code,
			e.StatusCode,
			e.Cause,
		)
	}
	return fmt.Sprintf(
		"vector store operation failed (op=%s code=%s status=%d)",
		e.Operation,
		e.Code,
		e.StatusCode,
	)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *OperationError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}
