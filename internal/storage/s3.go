package storage

import (
	"alcyxob/trainerscribe/internal/config"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// s3Storage implements DocumentStorage on an S3-compatible bucket.
type s3Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	logger        *zap.Logger
}

// NewS3Storage creates a bucket-backed document store. A custom endpoint
// (MinIO, Spaces) is used with path-style addressing.
func NewS3Storage(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (DocumentStorage, error) {
	const op = "storage.NewS3Storage"

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx,
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: load aws config: %w", op, err)
	}

	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true // IMPORTANT for S3-compatible like MinIO!
	})

	logger.Info("s3 document storage initialized",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.BucketName),
	)

	return &s3Storage{
		client:        s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    cfg.BucketName,
		logger:        logger,
	}, nil
}

func (s *s3Storage) Put(ctx context.Context, objectKey string, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		s.logger.Error("put object failed", zap.String("key", objectKey), zap.Error(err))
		return fmt.Errorf("s3Storage.Put %s: %w", objectKey, err)
	}
	s.logger.Debug("object stored", zap.String("key", objectKey), zap.Int("bytes", len(data)))
	return nil
}

// PresignedDownloadURL creates a temporary URL for downloading (GET).
func (s *s3Storage) PresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		s.logger.Error("presign get failed", zap.String("key", objectKey), zap.Error(err))
		return "", fmt.Errorf("s3Storage.PresignedDownloadURL %s: %w", objectKey, err)
	}
	return req.URL, nil
}

// ListObjects pages through every key below prefix.
func (s *s3Storage) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Error("list objects failed", zap.String("prefix", prefix), zap.Error(err))
			return nil, fmt.Errorf("s3Storage.ListObjects %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// DeleteObject removes an object from the bucket.
func (s *s3Storage) DeleteObject(ctx context.Context, objectKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		s.logger.Error("delete object failed", zap.String("key", objectKey), zap.Error(err))
		return fmt.Errorf("s3Storage.DeleteObject %s: %w", objectKey, err)
	}

	s.logger.Info("object deleted", zap.String("key", objectKey), zap.String("bucket", s.bucketName))
	return nil
}
