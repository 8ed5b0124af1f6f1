package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docstore/internal/config"
	"docstore/internal/model"
	"docstore/internal/service"
	serviceMocks "docstore/internal/service/mocks"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

// multipartBody builds a form with a single file part under field.
func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		wantStatus int
	}{
		{name: "healthy", pinger: fakePinger{}, wantStatus: http.StatusOK},
		{name: "no remote catalog", pinger: nil, wantStatus: http.StatusOK},
		{name: "unhealthy", pinger: fakePinger{err: errors.New("db error")}, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", HealthCheck(tt.pinger))

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusOK {
				var body map[string]string
				json.NewDecoder(resp.Body).Decode(&body)
				assert.Equal(t, "healthy", body["status"])
			} else {
				assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
			}
		})
	}
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents", ListDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.DocumentListResult{
			Items: []model.Document{{
				ID:           uuid.NewString(),
				StoredName:   "test.pdf",
				OriginalName: "test.pdf",
				MimeType:     "application/pdf",
				Location:     model.InlineLocation([]byte("secret bytes")),
			}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything).Return(expectedRes, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		assert.NotContains(t, string(raw), "secret bytes")

		var result struct {
			Data  []map[string]any `json:"data"`
			Total int              `json:"total"`
		}
		require.NoError(t, json.Unmarshal(raw, &result))
		require.Len(t, result.Data, 1)
		assert.Equal(t, 1, result.Total)
		assert.Equal(t, "embedded", result.Data[0]["storage"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("service error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "service error")
		mockSvc.AssertExpectations(t)
	})
}

func TestUploadDocument(t *testing.T) {
	tests := []struct {
		name       string
		kind       model.StorageKind
		field      string
		ctype      string
		svcErr     error
		noBody     bool
		wantStatus int
		wantCode   string
	}{
		{name: "disk success", kind: model.StorageDisk, field: FormField, ctype: "application/pdf", wantStatus: http.StatusCreated},
		{name: "embedded success", kind: model.StorageEmbedded, field: FormField, ctype: "application/vnd.ms-excel", wantStatus: http.StatusCreated},
		{name: "wrong field", kind: model.StorageDisk, field: "file", ctype: "application/pdf", wantStatus: http.StatusBadRequest, wantCode: "FILE_REQUIRED"},
		{name: "no body", kind: model.StorageDisk, noBody: true, wantStatus: http.StatusBadRequest, wantCode: "FILE_REQUIRED"},
		{name: "unsupported type", kind: model.StorageDisk, field: FormField, ctype: "application/zip",
			svcErr: fmt.Errorf("%w: application/zip", service.ErrUnsupportedMediaType), wantStatus: http.StatusUnsupportedMediaType, wantCode: "UNSUPPORTED_MEDIA_TYPE"},
		{name: "too large", kind: model.StorageDisk, field: FormField, ctype: "application/pdf",
			svcErr: service.ErrPayloadTooLarge, wantStatus: http.StatusRequestEntityTooLarge, wantCode: "PAYLOAD_TOO_LARGE"},
		{name: "validation", kind: model.StorageDisk, field: FormField, ctype: "application/pdf",
			svcErr: service.ErrReaderNil, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "storage failure", kind: model.StorageEmbedded, field: FormField, ctype: "application/pdf",
			svcErr: fmt.Errorf("%w: catalog insert: boom", service.ErrStorageWrite), wantStatus: http.StatusInternalServerError, wantCode: "STORAGE_WRITE_FAILED"},
		{name: "missing part content type", kind: model.StorageDisk, field: FormField, ctype: "",
			svcErr: service.ErrUnsupportedMediaType, wantStatus: http.StatusUnsupportedMediaType, wantCode: "UNSUPPORTED_MEDIA_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockDocumentService)
			app := fiber.New()
			app.Post("/upload", UploadDocument(mockSvc, tt.kind))

			req := httptest.NewRequest(http.MethodPost, "/upload", nil)
			if !tt.noBody {
				body, ct := multipartBody(t, tt.field, "test.pdf", tt.ctype, []byte("hello world"))
				req = httptest.NewRequest(http.MethodPost, "/upload", body)
				req.Header.Set("Content-Type", ct)
			}

			wantCT := tt.ctype
			if wantCT == "" {
				wantCT = "application/octet-stream"
			}
			doc := &model.Document{ID: uuid.NewString(), StoredName: "test.pdf", OriginalName: "test.pdf", Size: 11}
			if tt.wantCode == "" || tt.svcErr != nil {
				call := mockSvc.On("Upload", mock.Anything, tt.kind, mock.Anything, "test.pdf", wantCT, int64(11))
				if tt.svcErr != nil {
					call.Return(nil, tt.svcErr).Once()
				} else {
					call.Return(doc, nil).Once()
				}
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			} else {
				var result struct {
					Message  string         `json:"message"`
					Document map[string]any `json:"document"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
				assert.Equal(t, "File uploaded successfully", result.Message)
				assert.Equal(t, doc.ID, result.Document["id"])
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/api/documents/:id", GetDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		expectedDoc := &model.Document{ID: id, StoredName: "document-1-2.pdf", Location: model.FileLocation("uploads/document-1-2.pdf")}
		mockSvc.On("Get", mock.Anything, id).Return(expectedDoc, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result["id"])
		assert.Equal(t, "uploads/document-1-2.pdf", result["path"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "missing").Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).Return(nil, errors.New("db error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/"+id, nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDownloadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/download/:id", DownloadDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		content := "quarterly numbers"
		mockSvc.On("Download", mock.Anything, "abc").Return(&service.Download{
			Document: &model.Document{ID: "abc", OriginalName: "Q3 report.pdf", MimeType: "application/pdf"},
			Content:  io.NopCloser(strings.NewReader(content)),
			Size:     int64(len(content)),
		}, nil).Once()

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/download/abc", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="Q3 report.pdf"`, resp.Header.Get("Content-Disposition"))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, content, string(body))
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Download", mock.Anything, "gone").Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/download/gone", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "token", in: "report.pdf", want: "attachment; filename=report.pdf"},
		{name: "spaces are quoted", in: "my report.pdf", want: `attachment; filename="my report.pdf"`},
		{name: "quotes are escaped", in: `a"b.txt`, want: `attachment; filename="a\"b.txt"`},
		{name: "non-ascii uses rfc 2231", in: "résumé.pdf", want: "attachment; filename*=utf-8''r%C3%A9sum%C3%A9.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentDisposition(tt.in))
		})
	}
}

func TestDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Delete("/api/documents/:id", DeleteDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/documents/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "Document deleted successfully", body["message"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id).Return(service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/documents/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id).Return(errors.New("delete error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/documents/"+id, nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockDocumentService)
	RegisterRoutes(app, nil, mockSvc, config.StorageConfig{})

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("download route wins over id route", func(t *testing.T) {
		mockSvc.On("Download", mock.Anything, "xyz").Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/documents/download/xyz", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestBodyLimit(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
		BodyLimit:    1024,
	})
	mockSvc := new(serviceMocks.MockDocumentService)
	RegisterRoutes(app, nil, mockSvc, config.StorageConfig{})

	body, ct := multipartBody(t, FormField, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 4096))
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload-disk", body)
	req.Header.Set("Content-Type", ct)

	resp, err := app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
