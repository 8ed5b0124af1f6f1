package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"docstore/internal/model"
)

// embeddedStorage keeps bytes inside the catalog record itself: the
// location token is the buffer, and removing the record frees it.
type embeddedStorage struct{}

// NewEmbedded returns the embedded backend.
func NewEmbedded() Backend {
	return embeddedStorage{}
}

func (embeddedStorage) Kind() model.StorageKind { return model.StorageEmbedded }

// Put buffers r in memory. The stored name is the original name.
func (embeddedStorage) Put(ctx context.Context, originalName string, r io.Reader) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("buffer %s: %w", originalName, err)
	}
	return ObjectInfo{
		Name:     originalName,
		Location: model.InlineLocation(data),
		Size:     int64(len(data)),
	}, nil
}

// Get returns the inline buffer. An empty buffer counts as no content.
func (embeddedStorage) Get(_ context.Context, loc model.Location) (io.ReadCloser, int64, error) {
	if loc.Kind != model.StorageEmbedded {
		return nil, 0, ErrUnknownKind
	}
	if len(loc.Data) == 0 {
		return nil, 0, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(loc.Data)), int64(len(loc.Data)), nil
}

// Delete is a no-op; the bytes go away with the catalog record.
func (embeddedStorage) Delete(_ context.Context, loc model.Location) error {
	if loc.Kind != model.StorageEmbedded {
		return ErrUnknownKind
	}
	return nil
}
