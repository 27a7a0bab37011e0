// validation.go - Upload validation helpers
package server

import (
	"path/filepath"
	"strings"
)

// allowedMimeTypes is the fixed set of content types accepted for upload.
// Membership is exact and case-sensitive; a declared type carrying
// parameters ("text/plain; charset=utf-8") does not match.
var allowedMimeTypes = map[string]bool{
	// Images
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,

	// Videos
	"video/mp4":       true,
	"video/mpeg":      true,
	"video/ogg":       true,
	"video/webm":      true,
	"video/x-msvideo": true,

	// Documents
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.ms-powerpoint":                                             true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"text/plain": true,

	// Archives
	"application/zip":              true,
	"application/x-rar-compressed": true,
	"application/x-tar":            true,
	"application/x-7z-compressed":  true,
	"application/gzip":             true,
}

// mimeAllowed reports whether the declared content type may be uploaded.
func mimeAllowed(mimeType string) bool {
	return allowedMimeTypes[mimeType]
}

// sanitizeFilename strips path components and control bytes from a
// client-supplied filename so it cannot escape the session directory.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.Trim(name, " .")

	if len(name) > 255 {
		ext := filepath.Ext(name)
		name = name[:255-len(ext)] + ext
	}

	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
