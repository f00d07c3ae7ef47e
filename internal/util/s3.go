package util

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

func GetProjectDirectoryPath(projectId string) string {
	return fmt.Sprintf("projects/%s", projectId)
}

func GetDocumentDirectoryPath(projectId, documentId string) string {
	return fmt.Sprintf("%s/documents/%s", GetProjectDirectoryPath(projectId), documentId)
}

func GetDocumentVersionDirectoryPath(projectId, documentId, version string) string {
	return path.Join(GetDocumentDirectoryPath(projectId, documentId), "v"+version)
}

func createBucketIfNotExists(ctx context.Context, s3 *minio.Client, bucketName string) error {
	exists, err := s3.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}

	if !exists {
		err = s3.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return err
		}
	}

	return nil
}

type FileUploadOptions struct {
	// Add a prefix to the file name
	// For example, if the file name is "data.csv" and the prefix is "projects/123",
	// the resulting name will be "projects/123/data.csv"
	DirectoryPath string
	UniquePrefix  bool
	Bucket        string
	ContentType   string
	S3            *minio.Client
}

// UploadReaderToS3 streams size bytes from r into the bucket under fileName.
func UploadReaderToS3(ctx context.Context, r io.Reader, size int64, fileName string, fuo *FileUploadOptions) (minio.UploadInfo, error) {
	if err := createBucketIfNotExists(ctx, fuo.S3, fuo.Bucket); err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to create bucket: %w", err)
	}

	contentType := fuo.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fileName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := fuo.S3.PutObject(
		ctx,
		fuo.Bucket,
		prepareFileName(fileName, fuo),
		r,
		size,
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return info, nil
}

// Generates the final object key with uniqueness and prefix
func prepareFileName(originalName string, fuo *FileUploadOptions) string {
	fileName := filepath.Base(originalName)

	if fuo != nil {
		if fuo.UniquePrefix {
			fileName = AddUniquePrefixToFileName(fileName)
		}

		if fuo.DirectoryPath != "" {
			fileName = path.Join(fuo.DirectoryPath, fileName)
		}
	}

	return fileName
}
