package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	appconfig "matchdeck-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	photoReadExpiry   = 15 * time.Minute
	photoUploadExpiry = 5 * time.Minute
)

// PhotoSigner turns stored photo keys into URLs a client can load
type PhotoSigner interface {
	SignPhotos(ctx context.Context, keys []string) []string
	PresignUpload(ctx context.Context, userID, contentType string) (*UploadResponse, error)
}

// UploadResponse represents a pre-signed upload target
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
}

// PhotoService signs profile photo URLs against an S3 compatible bucket
type PhotoService struct {
	presign  *s3.PresignClient
	s3Bucket string
}

// NewPhotoService creates a new photo service. Static credentials and a custom
// endpoint are optional.
func NewPhotoService(ctx context.Context, cfg appconfig.AWSConfig) (*PhotoService, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &PhotoService{
		presign:  s3.NewPresignClient(s3Client),
		s3Bucket: cfg.S3Bucket,
	}, nil
}

// SignPhotos presigns every stored key. Absolute URLs pass through unchanged
// and a key that fails to sign is dropped.
func (s *PhotoService) SignPhotos(ctx context.Context, keys []string) []string {
	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		if isAbsoluteURL(key) {
			urls = append(urls, key)
			continue
		}

		req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.s3Bucket),
			Key:    aws.String(key),
		}, func(opts *s3.PresignOptions) {
			opts.Expires = photoReadExpiry
		})
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to presign photo")
			continue
		}
		urls = append(urls, req.URL)
	}
	return urls
}

// PresignUpload generates a pre-signed URL for uploading a new profile photo
func (s *PhotoService) PresignUpload(ctx context.Context, userID, contentType string) (*UploadResponse, error) {
	key := fmt.Sprintf("profiles/%s/%s.jpg", userID, uuid.New().String())

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = photoUploadExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &UploadResponse{
		UploadURL: req.URL,
		Key:       key,
		ExpiresIn: int(photoUploadExpiry.Seconds()),
	}, nil
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "/")
}
