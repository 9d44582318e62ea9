package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	TypeLocal = "local"
	TypeGCS   = "gcs"
	TypeS3    = "s3"
)

// Backend writes and removes objects by key and knows their public URL.
type Backend interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (url string, err error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Type            string
	LocalDir        string
	Bucket          string
	Region          string
	CredentialsFile string
}

// StoredFile describes an uploaded object.
type StoredFile struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

type Service struct {
	backend Backend
}

func NewService(b Backend) *Service {
	return &Service{backend: b}
}

// New builds the service for the configured backend type.
func New(ctx context.Context, cfg Config) (*Service, error) {
	var (
		b   Backend
		err error
	)
	switch strings.ToLower(cfg.Type) {
	case "", TypeLocal:
		b, err = NewLocal(cfg.LocalDir)
	case TypeGCS:
		b, err = NewGCS(ctx, cfg.Bucket, cfg.CredentialsFile)
	case TypeS3:
		b, err = NewS3(cfg.Bucket, cfg.Region)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return NewService(b), nil
}

// Key returns a fresh object key keeping the original extension.
func Key(originalName string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
}

func (s *Service) Upload(ctx context.Context, originalName, contentType string, size int64, r io.Reader) (StoredFile, error) {
	key := Key(originalName)
	url, err := s.backend.Put(ctx, key, contentType, r, size)
	if err != nil {
		return StoredFile{}, fmt.Errorf("store %s: %w", originalName, err)
	}
	return StoredFile{Key: key, URL: url, Size: size, ContentType: contentType}, nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}
