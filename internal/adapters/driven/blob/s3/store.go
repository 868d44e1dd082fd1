// Package s3 provides a BlobStore backed by S3-compatible object storage.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/custodia-labs/readwell/internal/adapters/driven/blob"
	"github.com/custodia-labs/readwell/internal/core/domain"
	"github.com/custodia-labs/readwell/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// keyPrefix namespaces readwell objects inside a shared bucket.
const keyPrefix = "readwell/"

// ObjectAPI is the subset of *s3.Client used by Store.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner is the subset of *s3.PresignClient used by Store.
type Presigner interface {
	PresignGetObject(
		ctx context.Context,
		in *s3.GetObjectInput,
		optFns ...func(*s3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
}

// Store keeps blobs as objects under readwell/<key>.
type Store struct {
	api        ObjectAPI
	presigner  Presigner
	bucket     string
	presignTTL time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithPresignTTL sets the lifetime of URLs returned by URL.
func WithPresignTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.presignTTL = d
		}
	}
}

// NewWithClient creates a store over existing clients.
func NewWithClient(api ObjectAPI, presigner Presigner, bucket string, opts ...Option) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket required", domain.ErrInvalidInput)
	}
	s := &Store{
		api:        api,
		presigner:  presigner,
		bucket:     bucket,
		presignTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// New loads AWS configuration and builds a store for cfg.
// Static credentials are used when both keys are set; otherwise the default
// provider chain applies. A custom endpoint switches to path-style addressing
// for MinIO and similar services.
func New(ctx context.Context, cfg domain.S3Settings) (*Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, s3.NewPresignClient(client), cfg.Bucket, WithPresignTTL(cfg.PresignTTL))
}

// Store uploads data under a new key.
func (s *Store) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	key := blob.NewKey(contentType)
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(keyPrefix + key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

// Get downloads the object for ref.
func (s *Store) Get(ctx context.Context, ref string) ([]byte, error) {
	if !blob.ValidKey(ref) {
		return nil, fmt.Errorf("%w: blob reference %q", domain.ErrInvalidInput, ref)
	}
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(keyPrefix + ref),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("blob %s: %w", ref, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

// Delete removes the object for ref. S3 treats missing keys as success.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if !blob.ValidKey(ref) {
		return fmt.Errorf("%w: blob reference %q", domain.ErrInvalidInput, ref)
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(keyPrefix + ref),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// URL returns a presigned GET URL for ref.
func (s *Store) URL(ctx context.Context, ref string) (string, error) {
	if !blob.ValidKey(ref) {
		return "", fmt.Errorf("%w: blob reference %q", domain.ErrInvalidInput, ref)
	}
	if s.presigner == nil {
		return "", fmt.Errorf("presign %s: no presigner configured", ref)
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(keyPrefix + ref),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}
