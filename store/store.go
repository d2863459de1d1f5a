package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	opUpload   = "upload"
	opDownload = "download"
)

type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Insecure  bool
}

// Store reads and writes objects in a single bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New creates a Store. Static keys are used when given, otherwise the AWS
// environment, shared credentials file and instance role are tried in order.
func New(opts Options) (*Store, error) {
	var creds *credentials.Credentials
	if opts.AccessKey != "" {
		creds = credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{},
		})
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: !opts.Insecure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}
	return &Store{client: client, bucket: opts.Bucket}, nil
}

func (s *Store) Bucket() string {
	return s.bucket
}

// Upload stores the file at localPath under key.
func (s *Store) Upload(ctx context.Context, localPath, key string) (BlobRef, error) {
	ref := BlobRef{Bucket: s.bucket, Key: key}

	if _, err := os.Stat(localPath); err != nil {
		return BlobRef{}, &Error{Op: opUpload, Ref: ref, Kind: classify(opUpload, err), Err: err}
	}

	creds, err := s.client.GetCreds()
	if err != nil {
		return BlobRef{}, &Error{Op: opUpload, Ref: ref, Kind: ErrUnauthorized, Err: err}
	}
	if creds.AccessKeyID == "" {
		return BlobRef{}, &Error{Op: opUpload, Ref: ref, Kind: ErrUnauthorized, Err: errors.New("no credentials available")}
	}

	info, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType:  "audio/wav",
		UserMetadata: map[string]string{"uploaded-at": time.Now().Format(time.RFC3339)},
	})
	if err != nil {
		return BlobRef{}, &Error{Op: opUpload, Ref: ref, Kind: classify(opUpload, err), Err: err}
	}

	slog.Debug("Uploaded object", "uri", ref.URI(), "size", humanize.Bytes(uint64(info.Size)))
	return ref, nil
}

// Download returns the full contents of ref.
func (s *Store) Download(ctx context.Context, ref BlobRef) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, ref.Bucket, ref.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &Error{Op: opDownload, Ref: ref, Kind: classify(opDownload, err), Err: err}
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, &Error{Op: opDownload, Ref: ref, Kind: classify(opDownload, err), Err: err}
	}

	slog.Debug("Downloaded object", "uri", ref.URI(), "size", humanize.Bytes(uint64(len(data))))
	return data, nil
}
