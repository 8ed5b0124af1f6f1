package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docstore/internal/model"
)

// namePrefix starts every generated file name.
const namePrefix = "document"

// diskStorage writes each document to its own file under root.
// Names are unique by construction, so no locking is needed.
type diskStorage struct {
	root    string
	absRoot string
}

// NewDisk returns a filesystem backend rooted at root, creating it if needed.
func NewDisk(root string) (Backend, error) {
	if root == "" {
		return nil, fmt.Errorf("upload root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}
	return &diskStorage{root: root, absRoot: abs}, nil
}

func (d *diskStorage) Kind() model.StorageKind { return model.StorageDisk }

// Put streams r into a new file named document-<unix ms>-<random><ext>.
// A partially written file is removed on failure.
func (d *diskStorage) Put(ctx context.Context, originalName string, r io.Reader) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}

	name := uniqueName(originalName, time.Now())
	path := filepath.Join(d.root, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create %s: %w", name, err)
	}

	n, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return ObjectInfo{}, fmt.Errorf("write %s: %w", name, err)
	}

	return ObjectInfo{
		Name:     name,
		Location: model.FileLocation(path),
		Size:     n,
	}, nil
}

// Get opens the file behind loc.
func (d *diskStorage) Get(_ context.Context, loc model.Location) (io.ReadCloser, int64, error) {
	path, err := d.resolve(loc)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrObjectNotFound, loc.Path)
		}
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, st.Size(), nil
}

// Delete removes the file behind loc. A missing file yields ErrObjectNotFound.
func (d *diskStorage) Delete(_ context.Context, loc model.Location) error {
	path, err := d.resolve(loc)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, loc.Path)
		}
		return err
	}
	return nil
}

// resolve confines loc to the upload root.
func (d *diskStorage) resolve(loc model.Location) (string, error) {
	if loc.Kind != model.StorageDisk {
		return "", ErrUnknownKind
	}
	abs, err := filepath.Abs(loc.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, loc.Path)
	}
	rel, err := filepath.Rel(d.absRoot, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside the upload root", ErrObjectNotFound, loc.Path)
	}
	return abs, nil
}

// uniqueName combines a millisecond timestamp with a random component and
// keeps the extension of the original name.
func uniqueName(originalName string, now time.Time) string {
	ext := filepath.Ext(filepath.Base(originalName))
	return fmt.Sprintf("%s-%d-%d%s", namePrefix, now.UnixMilli(), rand.Int63n(1e9), ext)
}
