package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDocument is returned by Validate when a record is missing required metadata.
var ErrInvalidDocument = errors.New("invalid document")

// StorageKind identifies where a document's bytes live.
type StorageKind string

const (
	// StorageDisk keeps bytes in a file under the upload root.
	StorageDisk StorageKind = "disk"
	// StorageEmbedded keeps bytes inside the catalog record.
	StorageEmbedded StorageKind = "embedded"
)

// Valid reports whether k names a known backend.
func (k StorageKind) Valid() bool {
	return k == StorageDisk || k == StorageEmbedded
}

// Location is the backend-specific handle of a document's bytes.
// Exactly one of Path (disk) or Data (embedded) is meaningful, selected by Kind.
type Location struct {
	Kind StorageKind
	Path string
	Data []byte
}

// FileLocation returns a disk location for path.
func FileLocation(path string) Location {
	return Location{Kind: StorageDisk, Path: path}
}

// InlineLocation returns an embedded location holding data.
func InlineLocation(data []byte) Location {
	if data == nil {
		data = []byte{}
	}
	return Location{Kind: StorageEmbedded, Data: data}
}

// Validate checks that exactly one variant is populated.
func (l Location) Validate() error {
	switch l.Kind {
	case StorageDisk:
		if l.Path == "" {
			return fmt.Errorf("%w: disk location without path", ErrInvalidDocument)
		}
		if l.Data != nil {
			return fmt.Errorf("%w: disk location carries inline data", ErrInvalidDocument)
		}
	case StorageEmbedded:
		if l.Path != "" {
			return fmt.Errorf("%w: embedded location carries a path", ErrInvalidDocument)
		}
		if l.Data == nil {
			return fmt.Errorf("%w: embedded location without data", ErrInvalidDocument)
		}
	default:
		return fmt.Errorf("%w: unknown storage kind %q", ErrInvalidDocument, l.Kind)
	}
	return nil
}

// Document represents a stored file in the catalog.
// Inline bytes never leave the process through JSON; see MarshalJSON.
type Document struct {
	ID           string
	StoredName   string
	OriginalName string
	MimeType     string
	Size         int64
	Location     Location
	UploadedAt   time.Time
}

// Validate checks the fields required before a record can be inserted.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	switch {
	case d.StoredName == "":
		return fmt.Errorf("%w: stored name is required", ErrInvalidDocument)
	case d.OriginalName == "":
		return fmt.Errorf("%w: original name is required", ErrInvalidDocument)
	case d.MimeType == "":
		return fmt.Errorf("%w: mime type is required", ErrInvalidDocument)
	case d.Size < 0:
		return fmt.Errorf("%w: size must not be negative", ErrInvalidDocument)
	}
	return d.Location.Validate()
}

type documentJSON struct {
	ID           string      `json:"id"`
	Filename     string      `json:"filename"`
	OriginalName string      `json:"original_name"`
	MimeType     string      `json:"mime_type"`
	Size         int64       `json:"size"`
	Storage      StorageKind `json:"storage"`
	Path         string      `json:"path,omitempty"`
	UploadedAt   time.Time   `json:"uploaded_at"`
}

// MarshalJSON renders metadata only. The storage field tells callers which
// variant the record uses; path is present only for disk-backed records.
func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(documentJSON{
		ID:           d.ID,
		Filename:     d.StoredName,
		OriginalName: d.OriginalName,
		MimeType:     d.MimeType,
		Size:         d.Size,
		Storage:      d.Location.Kind,
		Path:         d.Location.Path,
		UploadedAt:   d.UploadedAt,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON; inline data is never restored.
func (d *Document) UnmarshalJSON(b []byte) error {
	var v documentJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*d = Document{
		ID:           v.ID,
		StoredName:   v.Filename,
		OriginalName: v.OriginalName,
		MimeType:     v.MimeType,
		Size:         v.Size,
		Location:     Location{Kind: v.Storage, Path: v.Path},
		UploadedAt:   v.UploadedAt,
	}
	return nil
}
