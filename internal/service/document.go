package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/storage"
)

// Error kinds surfaced to callers. Each wraps its cause, so use errors.Is.
var (
	ErrValidation           = errors.New("validation error")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrNotFound             = errors.New("document not found")
	ErrStorageWrite         = errors.New("storage write failed")
	// ErrStorageDelete is only ever logged; deletion still succeeds.
	ErrStorageDelete = errors.New("storage delete failed")

	ErrIDRequired = fmt.Errorf("%w: id is required", ErrValidation)
	ErrReaderNil  = fmt.Errorf("%w: reader is nil", ErrValidation)
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
	outcomeOrphaned = "orphaned"
)

// DefaultMaxUploadBytes applies when Options.MaxUploadBytes is unset.
const DefaultMaxUploadBytes int64 = 5 << 20

var tracer = otel.Tracer("docstore/internal/service")

// DocumentListResult is the service-level DTO for listed documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// Download is an opened document. The caller must close Content.
type Download struct {
	Document *model.Document
	Content  io.ReadCloser
	Size     int64
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates type and size, writes the bytes to the backend of the
	// given kind, then records the metadata. size is the client's declared
	// length; the recorded size is what the backend actually persisted.
	Upload(ctx context.Context, kind model.StorageKind, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error)

	// List returns all documents, metadata only.
	List(ctx context.Context) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Download opens the content of a document through its backend.
	Download(ctx context.Context, id string) (*Download, error)

	// Delete removes a document's bytes (best effort) and then its record.
	Delete(ctx context.Context, id string) error
}

// Options tune the ingestion pipeline.
type Options struct {
	MaxUploadBytes           int64
	RollbackOnCatalogFailure bool
	Metrics                  *Metrics
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	repo     repository.DocumentRepository
	backends map[model.StorageKind]storage.Backend
	log      *zap.Logger
	opts     Options
}

// NewDocumentService constructs a new DocumentService over the given backends,
// keyed by the location kind each one handles.
func NewDocumentService(repo repository.DocumentRepository, log *zap.Logger, opts Options, backends ...storage.Backend) DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	m := make(map[model.StorageKind]storage.Backend, len(backends))
	for _, b := range backends {
		m[b.Kind()] = b
	}
	return &documentService{
		repo:     repo,
		backends: m,
		log:      log.Named("documents"),
		opts:     opts,
	}
}

func (s *documentService) Upload(ctx context.Context, kind model.StorageKind, r io.Reader, originalFilename string, contentType string, size int64) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Upload", trace.WithAttributes(
		attribute.String("document.storage", string(kind)),
		attribute.String("document.mime_type", contentType),
		attribute.Int64("document.declared_size", size),
	))
	defer func() { endSpan(span, err) }()

	if r == nil {
		return nil, ErrReaderNil
	}
	if originalFilename == "" {
		return nil, fmt.Errorf("%w: original filename is required", ErrValidation)
	}
	backend, ok := s.backends[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown storage %q", ErrValidation, kind)
	}

	mimeType := normalizeMimeType(contentType)
	if !IsAllowedMimeType(mimeType) {
		s.opts.Metrics.upload(string(kind), outcomeRejected, 0)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, contentType)
	}
	if size > s.opts.MaxUploadBytes {
		s.opts.Metrics.upload(string(kind), outcomeRejected, 0)
		return nil, fmt.Errorf("%w: declared %d bytes, limit is %d", ErrPayloadTooLarge, size, s.opts.MaxUploadBytes)
	}

	info, err := backend.Put(ctx, originalFilename, newLimitedReader(r, s.opts.MaxUploadBytes))
	if err != nil {
		if errors.Is(err, ErrPayloadTooLarge) {
			s.opts.Metrics.upload(string(kind), outcomeRejected, 0)
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, s.opts.MaxUploadBytes)
		}
		s.opts.Metrics.upload(string(kind), outcomeFailed, 0)
		return nil, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	stored, err := s.repo.Create(ctx, &model.Document{
		StoredName:   info.Name,
		OriginalName: originalFilename,
		MimeType:     mimeType,
		Size:         info.Size,
		Location:     info.Location,
		UploadedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.opts.Metrics.upload(string(kind), outcomeFailed, 0)
		s.rollback(ctx, backend, info, err)
		if errors.Is(err, model.ErrInvalidDocument) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, fmt.Errorf("%w: catalog insert: %w", ErrStorageWrite, err)
	}

	s.opts.Metrics.upload(string(kind), outcomeOK, stored.Size)
	span.SetAttributes(attribute.String("document.id", stored.ID))
	return stored, nil
}

// rollback removes bytes whose catalog insert failed. Without it the bytes
// stay behind as an orphan, which is logged either way.
func (s *documentService) rollback(ctx context.Context, backend storage.Backend, info storage.ObjectInfo, cause error) {
	log := s.log.With(zap.String("stored_name", info.Name), zap.String("path", info.Location.Path), zap.NamedError("cause", cause))
	if !s.opts.RollbackOnCatalogFailure {
		log.Warn("catalog insert failed, bytes left orphaned")
		return
	}
	if err := backend.Delete(context.WithoutCancel(ctx), info.Location); err != nil {
		log.Error("catalog insert failed and rollback delete failed", zap.Error(err))
	}
}

func (s *documentService) List(ctx context.Context) (res *DocumentListResult, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.List")
	defer func() { endSpan(span, err) }()

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: items, Total: len(items)}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (doc *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Get", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { endSpan(span, err) }()

	return s.find(ctx, id)
}

func (s *documentService) Download(ctx context.Context, id string) (dl *Download, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Download", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { endSpan(span, err) }()

	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	backend, ok := s.backends[doc.Location.Kind]
	if !ok {
		return nil, fmt.Errorf("no backend for storage %q", doc.Location.Kind)
	}

	rc, size, err := backend.Get(ctx, doc.Location)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: content missing", ErrNotFound)
		}
		return nil, err
	}
	// Inline bytes now live in Content; don't keep a second reference.
	doc.Location.Data = nil
	return &Download{Document: doc, Content: rc, Size: size}, nil
}

// Delete removes the backend bytes first, then the record. A failed
// backend delete is logged and never blocks the catalog delete.
func (s *documentService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { endSpan(span, err) }()

	doc, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	kind := string(doc.Location.Kind)

	outcome := outcomeOK
	if backend, ok := s.backends[doc.Location.Kind]; !ok {
		outcome = outcomeOrphaned
		s.log.Warn("no backend for storage, bytes not reclaimed", zap.String("id", id), zap.String("storage", kind))
	} else if err := backend.Delete(ctx, doc.Location); err != nil {
		outcome = outcomeOrphaned
		s.log.Warn("document bytes not reclaimed",
			zap.String("id", id),
			zap.String("path", doc.Location.Path),
			zap.Error(fmt.Errorf("%w: %w", ErrStorageDelete, err)),
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.opts.Metrics.delete(kind, outcomeFailed)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.opts.Metrics.delete(kind, outcome)
	return nil
}

func (s *documentService) find(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
