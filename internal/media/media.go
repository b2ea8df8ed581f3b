// Package media stores uploaded images behind an opaque reference.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"minifeed/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open for unknown references.
var ErrNotFound = errors.New("media not found")

// Store keeps media bytes. Refs returned by Put are safe to embed in URLs.
type Store interface {
	Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, string, error)
	Backend() string
}

var allowedExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// AllowedExtension reports whether filename carries an accepted image extension.
func AllowedExtension(filename string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename strips directories and anything outside [A-Za-z0-9._-].
func SanitizeFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload"
	}
	return base
}

var refPattern = regexp.MustCompile(`^[0-9]+_[0-9a-f]{8}_[A-Za-z0-9._-]+$`)

// NewRef builds the stored name "<unix>_<short-uuid>_<sanitized name>".
func NewRef(now time.Time, filename string) string {
	return fmt.Sprintf("%d_%s_%s", now.Unix(), uuid.NewString()[:8], SanitizeFilename(filename))
}

// ValidRef reports whether ref could have been produced by NewRef.
func ValidRef(ref string) bool {
	return refPattern.MatchString(ref) && !strings.Contains(ref, "..")
}

// ContentTypeFor maps a ref or filename to its image MIME type.
func ContentTypeFor(name string) string {
	if ct, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// readUpload checks the name and size, then sniffs the bytes so a renamed
// non-image is refused.
func readUpload(filename string, r io.Reader, maxBytes int64) ([]byte, error) {
	if !AllowedExtension(filename) {
		return nil, models.NewValidationError("Only png, jpg, jpeg and gif images are allowed")
	}
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(data)) > maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %d bytes)", maxBytes))
	}
	if detected := http.DetectContentType(data); !strings.HasPrefix(detected, "image/") {
		return nil, models.NewValidationError("Invalid image file")
	}
	return data, nil
}
