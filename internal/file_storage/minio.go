package filestorage

import (
	"context"
	"io"

	"github.com/SeakMengs/DocControl/internal/config"
	"github.com/SeakMengs/DocControl/internal/upload"
	"github.com/SeakMengs/DocControl/internal/util"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewMinioClient(cfg *config.MinioConfig) (*minio.Client, error) {
	return minio.New(cfg.ENDPOINT, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ACCESS_KEY, cfg.SECRET_KEY, ""),
		Secure: cfg.USE_SSL,
		Region: "us-east-1",
	})
}

// MinioStore keeps document versions in a bucket when SharePoint cannot take them.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(client *minio.Client, bucket string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket}
}

func (s *MinioStore) Client() *minio.Client {
	return s.client
}

func (s *MinioStore) Put(ctx context.Context, directory, fileName string, r io.Reader, size int64, contentType string) (upload.StoredObject, error) {
	info, err := util.UploadReaderToS3(ctx, r, size, fileName, &util.FileUploadOptions{
		DirectoryPath: directory,
		UniquePrefix:  true,
		Bucket:        s.bucket,
		ContentType:   contentType,
		S3:            s.client,
	})
	if err != nil {
		return upload.StoredObject{}, err
	}

	return upload.StoredObject{Bucket: info.Bucket, Key: info.Key, Size: info.Size}, nil
}
