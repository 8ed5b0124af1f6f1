package service

import (
	"mime"
	"strings"
)

// Accepted document types: PDF, Word (legacy and OOXML), Excel (legacy and OOXML).
var allowedMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
}

// normalizeMimeType drops parameters and case so "Application/PDF; x=y"
// is checked and stored as "application/pdf". Unparseable input is
// returned lowercased and will fail the allow-list.
func normalizeMimeType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

// IsAllowedMimeType reports whether ct is an accepted document type.
func IsAllowedMimeType(ct string) bool {
	_, ok := allowedMimeTypes[normalizeMimeType(ct)]
	return ok
}
