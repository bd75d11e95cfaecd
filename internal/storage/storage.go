// Package storage moves uploaded files to durable storage and hands back public URLs.
package storage

import (
	"context"
	"path"
	"strings"
)

// FileStorage stores uploaded files. The local upload is removed once Store returns,
// whether or not the upload succeeded.
type FileStorage interface {
	// Store uploads the file at localPath and returns its public URL.
	Store(ctx context.Context, localPath string) (string, error)
	// Delete removes the object identified by publicID. Callers treat failures as best-effort.
	Delete(ctx context.Context, publicID string) error
}

// PublicID derives the object identifier from a URL returned by Store:
// the last path segment without its extension.
func PublicID(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	base := path.Base(url)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
