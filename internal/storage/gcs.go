package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"nitpickr-api/internal/logger"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var log = logger.New("storage")

type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS uses the credentials file when given, otherwise application
// default credentials.
func NewGCS(ctx context.Context, bucket, credentialsFile string) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("STORAGE_BUCKET is required for gcs storage")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	obj := g.client.Bucket(g.bucket).Object(key)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	// Buckets with uniform access reject object ACLs; the object stays private.
	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		log.Warn("Could not make object public", "bucket", g.bucket, "key", key, "error", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key), nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCS) Close() error {
	return g.client.Close()
}
