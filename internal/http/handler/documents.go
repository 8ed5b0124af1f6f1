package handler

import (
	"mime"

	"github.com/gofiber/fiber/v2"

	"docstore/internal/model"
	"docstore/internal/service"
)

// FormField is the multipart field carrying the uploaded file.
const FormField = "document"

type uploadResponse struct {
	Message  string          `json:"message"`
	Document *model.Document `json:"document"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ListDocuments returns every document's metadata, oldest first.
//
// @Summary     List documents
// @Tags        documents
// @Produce     json
// @Success     200 {object} service.DocumentListResult
// @Failure     500 {object} errorPayload
// @Router      /api/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument ingests the multipart file into the backend of the given kind.
//
// @Summary     Upload a document
// @Description Accepts PDF, Word and Excel files up to the configured size limit.
// @Tags        documents
// @Accept      multipart/form-data
// @Produce     json
// @Param       document formData file true "File to upload"
// @Success     201 {object} uploadResponse
// @Failure     400 {object} errorPayload
// @Failure     413 {object} errorPayload
// @Failure     415 {object} errorPayload
// @Failure     500 {object} errorPayload
// @Router      /api/documents/upload-disk [post]
// @Router      /api/documents/upload-db [post]
func UploadDocument(svc service.DocumentService, kind model.StorageKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(FormField)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := svc.Upload(c.UserContext(), kind, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(uploadResponse{
			Message:  "File uploaded successfully",
			Document: doc,
		})
	}
}

// GetDocument returns one document's metadata.
//
// @Summary     Get a document
// @Tags        documents
// @Produce     json
// @Param       id path string true "Document ID"
// @Success     200 {object} model.Document
// @Failure     404 {object} errorPayload
// @Router      /api/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument streams the stored bytes as an attachment named after
// the original upload.
//
// @Summary     Download a document
// @Tags        documents
// @Produce     octet-stream
// @Param       id path string true "Document ID"
// @Success     200 {file} file
// @Failure     404 {object} errorPayload
// @Router      /api/documents/download/{id} [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dl, err := svc.Download(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, dl.Document.MimeType)
		c.Set(fiber.HeaderContentDisposition, contentDisposition(dl.Document.OriginalName))
		// fasthttp closes the stream once the body is written.
		return c.SendStream(dl.Content, int(dl.Size))
	}
}

// DeleteDocument removes a document's bytes and its record.
//
// @Summary     Delete a document
// @Tags        documents
// @Produce     json
// @Param       id path string true "Document ID"
// @Success     200 {object} messageResponse
// @Failure     404 {object} errorPayload
// @Router      /api/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(messageResponse{Message: "Document deleted successfully"})
	}
}

// contentDisposition builds an attachment header. Names outside plain ASCII
// use the RFC 2231 filename* form.
func contentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
