package objstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorageClient is the interface for archiving snapshot files to
// S3-compatible storage and fetching update artifacts.
type ObjectStorageClient interface {
	Connect(endpoint, accessKeyID, secretAccessKey string, useSSL bool) error
	UploadFile(ctx context.Context, bucketName, objectName, localPath, contentType string) error
	DownloadFileByPresignedURL(presignedURL, outputPath string) error
}

// ObjectStorage holds the object storage client instance.
type ObjectStorage struct {
	conn *minio.Client
}

// NewObjectStorage initializes an unconnected ObjectStorage.
func NewObjectStorage() ObjectStorageClient {
	return &ObjectStorage{}
}

// Connect establishes the object storage connection using the minio client.
func (o *ObjectStorage) Connect(endpoint, accessKeyID, secretAccessKey string, useSSL bool) error {
	var err error
	o.conn, err = minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %v", err)
	}

	// Check connection by listing buckets
	if _, err = o.conn.ListBuckets(context.Background()); err != nil {
		return fmt.Errorf("failed to establish minio connection: %v", err)
	}

	return nil
}

// UploadFile uploads the file at localPath as objectName, creating the
// bucket on first use.
func (o *ObjectStorage) UploadFile(ctx context.Context, bucketName, objectName, localPath, contentType string) error {
	err := o.conn.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
	if err != nil {
		exists, errBucketExists := o.conn.BucketExists(ctx, bucketName)
		if !(errBucketExists == nil && exists) {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
	}

	_, err = o.conn.FPutObject(ctx, bucketName, objectName, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %v", objectName, err)
	}

	return nil
}

// DownloadFileByPresignedURL streams the object behind a presigned URL to outputPath.
func (o *ObjectStorage) DownloadFileByPresignedURL(presignedURL, outputPath string) error {
	client := &http.Client{}

	resp, err := client.Get(presignedURL)
	if err != nil {
		return fmt.Errorf("failed to download file from presigned URL: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file, received status code: %d", resp.StatusCode)
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", dir, err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %v", outputPath, err)
	}
	defer outFile.Close()

	if _, err = io.Copy(outFile, resp.Body); err != nil {
		return fmt.Errorf("failed to write file content to %s: %v", outputPath, err)
	}

	return nil
}
