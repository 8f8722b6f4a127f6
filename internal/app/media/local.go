package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local writes uploads to a directory served under PublicBaseURL.
type Local struct {
	dir     string
	baseURL string
}

var _ Uploader = (*Local)(nil)

// NewLocal creates dir when missing.
func NewLocal(dir, publicBaseURL string) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("media directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

func (l *Local) Backend() string { return "local" }

// Dir returns the storage directory.
func (l *Local) Dir() string { return l.dir }

// Upload copies f into the directory under a unique name.
func (l *Local) Upload(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := uuid.NewString() + "-" + SafeName(f.Name)
	target := filepath.Join(l.dir, name)

	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(out, f.Body); err != nil {
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return "", err
	}
	return l.baseURL + "/" + name, nil
}
