package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/storage"
)

// removeFile deletes a stored file by its URL. Failures are logged and dropped.
func removeFile(ctx context.Context, files storage.FileStorage, log *zap.Logger, url string) {
	if url == "" {
		return
	}
	if err := files.Delete(ctx, storage.PublicID(url)); err != nil {
		log.Warn("file delete failed", zap.String("url", url), zap.Error(err))
	}
}
