package blob

import (
	"context"
	"io"
	"mime"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/studynotes-back/internal/config"
)

type S3Store struct {
	bucket   string
	uploader *s3manager.Uploader
}

func NewS3Store(cfg *config.Config) (*S3Store, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.S3Region),
	}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create aws session")
	}

	return &S3Store{
		bucket:   cfg.S3Bucket,
		uploader: s3manager.NewUploader(sess),
	}, nil
}

func (s *S3Store) Store(ctx context.Context, r io.Reader, originalName string) (string, error) {
	key := "attachments/" + objectKey(originalName)

	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
		ACL:    aws.String("public-read"),
	}
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	out, err := s.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return "", errors.Wrapf(err, "upload %s", key)
	}
	return out.Location, nil
}
