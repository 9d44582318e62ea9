package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3 reads credentials from the standard AWS environment.
type S3 struct {
	client *s3.S3
	bucket string
	region string
}

func NewS3(bucket, region string) (*S3, error) {
	if bucket == "" {
		return nil, errors.New("STORAGE_BUCKET is required for s3 storage")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &S3{client: s3.New(sess), bucket: bucket, region: region}, nil
}

func (s *S3) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	body, ok := r.(io.ReadSeeker)
	if !ok {
		return "", errors.New("s3 upload needs a seekable reader")
	}
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}
