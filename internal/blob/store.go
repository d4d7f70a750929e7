package blob

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/config"
)

// Store persists attachment bytes and returns a public retrieval URL.
// Stored objects are never deleted.
type Store interface {
	Store(ctx context.Context, r io.Reader, originalName string) (string, error)
}

func NewStore(cfg *config.Config, logger *zap.SugaredLogger) (Store, error) {
	switch cfg.BlobDriver {
	case config.BlobDriverS3:
		s, err := NewS3Store(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "init s3 store")
		}
		logger.Infow("Using S3 blob store.", "bucket", cfg.S3Bucket)
		return s, nil
	default:
		s, err := NewLocalStore(cfg.UploadDir, strings.TrimRight(cfg.PublicURL, "/")+LocalRoute)
		if err != nil {
			return nil, errors.Wrap(err, "init local store")
		}
		logger.Infow("Using local blob store.", "dir", cfg.UploadDir)
		return s, nil
	}
}

// objectKey keeps the extension of the uploaded file and nothing else
// from the client supplied name.
func objectKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if len(ext) > 16 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return uuid.New().String() + ext
}
