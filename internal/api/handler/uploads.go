package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	mw "github.com/reelforge/reelforge/internal/api/middleware"
	"github.com/reelforge/reelforge/internal/api/response"
	"github.com/reelforge/reelforge/internal/storage"
)

const maxUploadBytes = 10 << 20 // 10 MiB

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// NewUploadHandler returns an http.HandlerFunc for POST /api/v1/uploads.
// It accepts a multipart form with a single "file" field holding a
// product reference image and responds with a time-limited URL.
func NewUploadHandler(uploader storage.Uploader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				"File exceeds the 10MB upload limit", nil)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "file field is required", nil)
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !allowedImageTypes[contentType] {
			response.Error(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE",
				"Only JPEG, PNG and WebP images are accepted", nil)
			return
		}

		filename := sanitizeFilename(header.Filename)
		objectName, err := uploader.Upload(r.Context(), userID, filename, file, header.Size, contentType)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store file", nil)
			return
		}

		url, err := uploader.PresignedURL(r.Context(), objectName)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate file URL", nil)
			return
		}

		response.Created(w, map[string]any{
			"object_name": objectName,
			"url":         url,
		})
	}
}

// sanitizeFilename strips path components and anything outside a safe
// character set, keeping the extension.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == ".." || name == "/" {
		return "upload"
	}
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
