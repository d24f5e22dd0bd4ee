package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// keyPrefix groups job media inside the bucket.
const keyPrefix = "jobs/"

// maxParallelDeletes bounds concurrent RemoveObject calls.
const maxParallelDeletes = 8

type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base used to build object URLs. When empty the
	// endpoint and bucket are used.
	PublicURL string
}

// Client stores job photos and videos in an S3 compatible bucket.
type Client struct {
	api       objectAPI
	bucket    string
	publicURL string
	logger    *zap.Logger
}

// Object is an uploaded file.
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	logger.Info("s3 storage configured",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket),
	)

	return newClient(api, cfg.Bucket, publicURL, logger), nil
}

func newClient(api objectAPI, bucket, publicURL string, logger *zap.Logger) *Client {
	return &Client{
		api:       api,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// Upload stores r under a fresh key that keeps the extension of fileName.
func (c *Client) Upload(ctx context.Context, fileName, contentType string, r io.Reader, size int64) (*Object, error) {
	key := keyPrefix + uuid.NewString() + strings.ToLower(path.Ext(fileName))

	_, err := c.api.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		c.logger.Error("failed to upload object",
			zap.String("key", key),
			zap.String("file_name", fileName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("upload object: %w", err)
	}

	c.logger.Info("object uploaded",
		zap.String("key", key),
		zap.Int64("size", size),
	)

	return &Object{Key: key, URL: c.URL(key)}, nil
}

func (c *Client) URL(key string) string {
	return c.publicURL + "/" + key
}

// Delete removes the objects concurrently. All keys are attempted; the first
// error is returned.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	var g errgroup.Group
	g.SetLimit(maxParallelDeletes)

	for _, key := range keys {
		key := key
		g.Go(func() error {
			err := c.api.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
			if err != nil {
				c.logger.Error("failed to delete object",
					zap.String("key", key),
					zap.Error(err),
				)
				return fmt.Errorf("delete object %s: %w", key, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	c.logger.Info("objects deleted", zap.Int("count", len(keys)))

	return nil
}
