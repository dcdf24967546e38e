// Package storage keeps user avatars in an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxAvatarBytes caps the size of an uploaded avatar.
const MaxAvatarBytes = 2 << 20

// ErrUnsupportedType is returned for content types that are not images we
// serve.
var ErrUnsupportedType = errors.New("unsupported image type")

var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// objectAPI is the subset of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Config locates the bucket avatars are written to.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL is the base under which objects are served. When empty,
	// path-style URLs on Endpoint are returned.
	PublicURL string
}

type AvatarStore struct {
	client  objectAPI
	bucket  string
	baseURL string
	logger  zerolog.Logger
}

// NewAvatarStore creates a store backed by an S3 client for cfg.
func NewAvatarStore(cfg S3Config, logger zerolog.Logger) *AvatarStore {
	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(cfg.Endpoint),
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})
	return newAvatarStore(client, cfg, logger)
}

func newAvatarStore(client objectAPI, cfg S3Config, logger zerolog.Logger) *AvatarStore {
	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &AvatarStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: base,
		logger:  logger.With().Str("component", "avatar-store").Logger(),
	}
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *AvatarStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		if strings.Contains(err.Error(), "BucketAlreadyExists") ||
			strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info().Str("bucket", s.bucket).Msg("created avatar bucket")
	return nil
}

// Put uploads an avatar for userID and returns its public URL. Every upload
// gets a fresh key so browsers never serve a stale cached image.
func (s *AvatarStore) Put(ctx context.Context, userID, contentType string, body io.Reader, size int64) (string, error) {
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	key := fmt.Sprintf("avatars/%s/%s.%s", userID, uuid.NewString(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("put avatar %s: %w", key, err)
	}
	s.logger.Debug().Str("user_id", userID).Str("key", key).Int64("bytes", size).Msg("stored avatar")
	return s.baseURL + "/" + key, nil
}

// Delete removes the object behind an avatar URL previously returned by Put.
// URLs that do not point into this store are ignored.
func (s *AvatarStore) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || !strings.HasPrefix(key, "avatars/") {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete avatar %s: %w", key, err)
	}
	return nil
}
