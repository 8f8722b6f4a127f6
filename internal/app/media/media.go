// Package media stores uploaded microsite images and videos and returns their
// public URLs.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// File is one uploaded object.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f File) (string, error)
	Backend() string
}

// ErrUnsupportedType is returned for content that is neither image nor video.
type ErrUnsupportedType struct {
	ContentType string
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported content type %q", e.ContentType)
}

// CheckFile validates the content type and size of f against maxBytes.
// A zero maxBytes disables the size check.
func CheckFile(f File, maxBytes int64) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("file name is required")
	}
	if f.Body == nil {
		return fmt.Errorf("file body is required")
	}
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if !strings.HasPrefix(ct, "image/") && !strings.HasPrefix(ct, "video/") {
		return &ErrUnsupportedType{ContentType: f.ContentType}
	}
	if maxBytes > 0 && f.Size > maxBytes {
		return fmt.Errorf("file exceeds %d bytes", maxBytes)
	}
	return nil
}

// IsVideo reports whether the content type is a video.
func IsVideo(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "video/")
}

// SafeName strips directories and characters that should not appear in object
// names.
func SafeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" || out == "_" {
		return "file"
	}
	return out
}
