package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// The location union is stored as two nullable columns, path and data, of
// which the schema allows exactly one to be set.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO documents (id, filename, original_name, mime_type, size, path, data, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, filename, original_name, mime_type, size, uploaded_at
	`
	var path sql.NullString
	var data []byte
	if doc.Location.Kind == model.StorageDisk {
		path = sql.NullString{String: doc.Location.Path, Valid: true}
	} else {
		data = doc.Location.Data
	}

	row := r.db.QueryRowContext(ctx, q,
		uuid.NewString(),
		doc.StoredName,
		doc.OriginalName,
		doc.MimeType,
		doc.Size,
		path,
		data,
		doc.UploadedAt,
	)
	var out model.Document
	if err := row.Scan(
		&out.ID,
		&out.StoredName,
		&out.OriginalName,
		&out.MimeType,
		&out.Size,
		&out.UploadedAt,
	); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	out.Location = doc.Location
	return &out, nil
}

// FindByID fetches a single document, including inline bytes, by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}

	const q = `
		SELECT id, filename, original_name, mime_type, size, path, data, uploaded_at
		FROM documents
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var d model.Document
	var path sql.NullString
	var data []byte
	if err := row.Scan(
		&d.ID,
		&d.StoredName,
		&d.OriginalName,
		&d.MimeType,
		&d.Size,
		&path,
		&data,
		&d.UploadedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	d.Location = locationOf(path, data)
	return &d, nil
}

// List returns all documents in upload order without their inline bytes.
func (r *DocumentPostgres) List(ctx context.Context) ([]model.Document, error) {
	const q = `
		SELECT id, filename, original_name, mime_type, size, path, uploaded_at
		FROM documents
		ORDER BY uploaded_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		var d model.Document
		var path sql.NullString
		if err := rows.Scan(
			&d.ID,
			&d.StoredName,
			&d.OriginalName,
			&d.MimeType,
			&d.Size,
			&path,
			&d.UploadedAt,
		); err != nil {
			return nil, err
		}
		d.Location = locationOf(path, nil)
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a document by ID.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}

	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// locationOf rebuilds the union from its column form. List queries do not
// select data, so embedded records come back with an empty blob.
func locationOf(path sql.NullString, data []byte) model.Location {
	if path.Valid {
		return model.FileLocation(path.String)
	}
	return model.Location{Kind: model.StorageEmbedded, Data: data}
}
