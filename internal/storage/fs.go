package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// FS stores files in a local directory served under baseURL.
type FS struct {
	dir     string
	baseURL string
}

var _ FileStorage = (*FS)(nil)

// NewFS creates dir if needed.
func NewFS(dir, baseURL string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FS{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory holding stored files.
func (s *FS) Dir() string { return s.dir }

// Store copies localPath to <dir>/<uuid><ext>.
func (s *FS) Store(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	name := id.String() + strings.ToLower(filepath.Ext(localPath))
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

// Delete removes every file named <publicID>.*.
func (s *FS) Delete(_ context.Context, publicID string) error {
	if publicID == "" || strings.ContainsAny(publicID, `/\*?[`) {
		return fmt.Errorf("invalid public id %q", publicID)
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, publicID+".*"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return os.ErrNotExist
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return fmt.Errorf("remove %s: %w", filepath.Base(m), err)
		}
	}
	return nil
}
