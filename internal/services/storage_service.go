// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/tallerpiolin/inventory-backend/internal/config"
	"github.com/tallerpiolin/inventory-backend/internal/utils"
)

// Storage folders.
const (
	FolderBackups = "backups"
	FolderLabels  = "labels"
)

// StorageService keeps backup documents and label images on S3, or in the
// local backup directory when no bucket is configured.
type StorageService struct {
	s3Client s3iface.S3API
	bucket   string
	prefix   string
	localDir string
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	svc := &StorageService{
		bucket:   cfg.AWS.S3Bucket,
		prefix:   cfg.AWS.KeyPrefix,
		localDir: cfg.Backup.Dir,
	}
	if cfg.AWS.AccessKeyID == "" || cfg.AWS.S3Bucket == "" {
		return svc, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	svc.s3Client = s3.New(sess)
	return svc, nil
}

// NewS3StorageService uses an existing client, e.g. a stub in tests.
func NewS3StorageService(client s3iface.S3API, bucket, prefix string) *StorageService {
	return &StorageService{s3Client: client, bucket: bucket, prefix: prefix}
}

// NewLocalStorageService writes under dir only.
func NewLocalStorageService(dir string) *StorageService {
	return &StorageService{localDir: dir}
}

func (s *StorageService) Remote() bool {
	return s.s3Client != nil
}

func (s *StorageService) Put(ctx context.Context, folder, name, contentType string, data []byte) (*UploadResult, error) {
	if s.s3Client != nil {
		return s.uploadToS3(ctx, path.Join(s.prefix, folder, name), contentType, data)
	}
	return s.uploadToLocal(filepath.Join(s.localDir, folder, name), contentType, data)
}

func (s *StorageService) uploadToS3(ctx context.Context, key, contentType string, data []byte) (*UploadResult, error) {
	sum := utils.Checksum(data)
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      map[string]*string{"sha256": aws.String(sum)},
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      fmt.Sprintf("s3://%s/%s", s.bucket, key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
		SHA256:   sum,
	}, nil
}

func (s *StorageService) uploadToLocal(file, contentType string, data []byte) (*UploadResult, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", file, err)
	}

	return &UploadResult{
		URL:      "file://" + file,
		Key:      file,
		Size:     int64(len(data)),
		MimeType: contentType,
		SHA256:   utils.Checksum(data),
	}, nil
}

// PresignedURL returns a temporary download link for an S3 key.
func (s *StorageService) PresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}
