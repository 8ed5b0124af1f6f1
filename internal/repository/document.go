package repository

import (
	"context"
	"errors"

	"docstore/internal/model"
)

// ErrNotFound is returned when no record matches the given id.
// Ids that are malformed for a given driver are reported the same way.
var ErrNotFound = errors.New("record not found")

// DocumentRepository is the metadata catalog. It is the only component that
// assigns document ids; no business logic lives here.
type DocumentRepository interface {
	// Create validates and inserts a new record, ignoring any caller-set ID.
	// It returns the stored record with its generated ID.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a record including its inline bytes, if any.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns every record in upload order. Inline bytes are not loaded.
	List(ctx context.Context) ([]model.Document, error)

	// Delete removes a record by ID, returning ErrNotFound if it did not exist.
	Delete(ctx context.Context, id string) error
}
