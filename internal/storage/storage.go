package storage

import (
	"context"
	"errors"
	"io"

	"docstore/internal/model"
)

// Package storage holds the backends a document's bytes can live in.
// Each backend understands exactly one model.Location variant.

var (
	// ErrObjectNotFound is returned when a location no longer resolves to content.
	ErrObjectNotFound = errors.New("object not found")
	// ErrUnknownKind is returned when a location is handed to the wrong backend.
	ErrUnknownKind = errors.New("location kind not handled by backend")
)

// ObjectInfo describes content written by a backend.
type ObjectInfo struct {
	// Name is the backend-facing name recorded as the document's stored name.
	Name string
	// Location is the token later passed back to Get and Delete.
	Location model.Location
	// Size is the number of bytes actually persisted.
	Size int64
}

// Backend persists document bytes. Implementations are safe for concurrent use.
type Backend interface {
	// Kind is the location variant this backend produces and accepts.
	Kind() model.StorageKind
	// Put consumes r fully and persists it. originalName is a naming hint only.
	// Errors from r are returned wrapped, so callers can match them with errors.Is.
	Put(ctx context.Context, originalName string, r io.Reader) (ObjectInfo, error)
	// Get opens the content behind loc.
	Get(ctx context.Context, loc model.Location) (io.ReadCloser, int64, error)
	// Delete releases the content behind loc.
	Delete(ctx context.Context, loc model.Location) error
}
