package handler

import (
	"github.com/gofiber/fiber/v2"

	"docstore/internal/config"
	"docstore/internal/model"
	"docstore/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// health may be nil when the catalog has no remote dependency.
func RegisterRoutes(app *fiber.App, health Pinger, docSvc service.DocumentService, store config.StorageConfig) {
	app.Get("/health", HealthCheck(health))
	app.Get("/healthz", LivenessProbe())

	// Files written by the disk backend are also reachable directly.
	if store.PublicPath != "" && store.UploadDir != "" {
		app.Static(store.PublicPath, store.UploadDir)
	}

	docs := app.Group("/api/documents")
	docs.Post("/upload-disk", UploadDocument(docSvc, model.StorageDisk))
	docs.Post("/upload-db", UploadDocument(docSvc, model.StorageEmbedded))
	docs.Get("/", ListDocuments(docSvc))
	docs.Get("/download/:id", DownloadDocument(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))
}
