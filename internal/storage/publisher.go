package storage

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
	"scadapulse/pkg/contracts/domain"
)

// Publisher copies a day's artifacts to durable storage.
type Publisher interface {
	// Publish uploads files and returns the object keys written.
	Publish(ctx context.Context, day time.Time, files []string) ([]string, error)
}

// S3Publisher uploads artifacts to an S3-compatible bucket under
// {prefix}/{yyyy-mm-dd}/{file name}.
type S3Publisher struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Publisher creates the minio client. It returns nil when publishing
// is disabled.
func NewS3Publisher(cfg config.StorageConfig, logger *slog.Logger) (*S3Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       "us-east-1",
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create S3 client", err)
	}

	return &S3Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger.With(slog.String("component", "s3_publisher"), slog.String("bucket", cfg.Bucket)),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (p *S3Publisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return apperrors.NewUnavailableError("failed to check bucket "+p.bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
		return apperrors.NewStorageError("failed to create bucket "+p.bucket, err)
	}
	p.logger.InfoContext(ctx, "Bucket created")
	return nil
}

// ObjectKey returns the key a file of day is published under.
func (p *S3Publisher) ObjectKey(day time.Time, file string) string {
	return path.Join(p.prefix, day.Format(domain.DayLayout), filepath.Base(file))
}

// Publish implements Publisher.
func (p *S3Publisher) Publish(ctx context.Context, day time.Time, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := p.ObjectKey(day, file)
		if err := p.upload(ctx, key, file); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	p.logger.InfoContext(ctx, "Artifacts published",
		slog.String("day", day.Format(domain.DayLayout)),
		slog.Int("objects", len(keys)))
	return keys, nil
}

func (p *S3Publisher) upload(ctx context.Context, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to open %s", file), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat %s", file), err)
	}

	_, err = p.client.PutObject(ctx, p.bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: contentType(file),
	})
	if err != nil {
		return apperrors.NewNetworkError(fmt.Sprintf("s3 put object %s", key), err)
	}
	return nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".json":
		return "application/json"
	}
	if ct := mime.TypeByExtension(filepath.Ext(file)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
