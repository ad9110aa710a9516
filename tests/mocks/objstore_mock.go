package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockObjectStorage is a mock implementation of the objstore.ObjectStorageClient interface
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Connect(endpoint, accessKeyID, secretAccessKey string, useSSL bool) error {
	args := m.Called(endpoint, accessKeyID, secretAccessKey, useSSL)
	return args.Error(0)
}

func (m *MockObjectStorage) UploadFile(ctx context.Context, bucketName, objectName, localPath, contentType string) error {
	args := m.Called(ctx, bucketName, objectName, localPath, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) DownloadFileByPresignedURL(presignedURL, outputPath string) error {
	args := m.Called(presignedURL, outputPath)
	return args.Error(0)
}
