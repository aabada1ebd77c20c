// Package objectstore keeps the raw media bytes in MinIO. Objects are
// named after the asset's content key, so a re-upload of identical content
// resolves to the same object.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config carries the MinIO connection settings.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// MinioClient holds the MinIO client and bucket name. It is constructed
// once at startup and shared read-only afterwards.
type MinioClient struct {
	Client     *minio.Client
	BucketName string
}

// NewMinioClient connects to MinIO and ensures the bucket exists.
func NewMinioClient(ctx context.Context, cfg Config) (*MinioClient, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.BucketName == "" {
		return nil, fmt.Errorf("minio endpoint, access key, secret key, and bucket name must all be set")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if MinIO bucket %q exists: %w", cfg.BucketName, err)
	}
	if !exists {
		log.Printf("MinIO bucket %q does not exist, creating it", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create MinIO bucket %q: %w", cfg.BucketName, err)
		}
	}

	log.Printf("MinIO client initialized (bucket %q)", cfg.BucketName)
	return &MinioClient{Client: client, BucketName: cfg.BucketName}, nil
}

// UploadFile stores the content under an object name derived from the
// asset's content key, preserving the original file extension. Returns the
// object name.
func (mc *MinioClient) UploadFile(ctx context.Context, contentKey, originalFilename string, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := contentKey + filepath.Ext(originalFilename)

	uploadInfo, err := mc.Client.PutObject(ctx, mc.BucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %q to bucket %q: %w", objectName, mc.BucketName, err)
	}

	log.Printf("Uploaded %q (%d bytes) to MinIO, etag %s", objectName, uploadInfo.Size, uploadInfo.ETag)
	return objectName, nil
}

// DeleteFile removes an object from the bucket.
func (mc *MinioClient) DeleteFile(ctx context.Context, objectName string) error {
	if err := mc.Client.RemoveObject(ctx, mc.BucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %q from bucket %q: %w", objectName, mc.BucketName, err)
	}
	return nil
}

// GetFileReader retrieves an object as an io.ReadCloser plus its size.
// The caller is responsible for closing the reader.
func (mc *MinioClient) GetFileReader(ctx context.Context, objectName string) (io.ReadCloser, int64, error) {
	object, err := mc.Client.GetObject(ctx, mc.BucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get object %q from bucket %q: %w", objectName, mc.BucketName, err)
	}

	stat, err := object.Stat()
	if err != nil {
		object.Close()
		return nil, 0, fmt.Errorf("failed to stat object %q: %w", objectName, err)
	}
	return object, stat.Size, nil
}

// DownloadToTemp materializes an object into a transient file in dir and
// returns its path. The caller owns the file and must remove it on every
// exit path.
func (mc *MinioClient) DownloadToTemp(ctx context.Context, objectName, dir string) (string, error) {
	reader, _, err := mc.GetFileReader(ctx, objectName)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	tmpFile, err := os.CreateTemp(dir, "media-*"+filepath.Ext(objectName))
	if err != nil {
		return "", fmt.Errorf("failed to create transient file for object %q: %w", objectName, err)
	}

	if _, err := io.Copy(tmpFile, reader); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to write transient file for object %q: %w", objectName, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to close transient file for object %q: %w", objectName, err)
	}
	return tmpFile.Name(), nil
}
