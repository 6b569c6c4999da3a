// Package s3 stores intake photos in an S3 compatible bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/sngm3741/inspection-intake/api/internal/inspection/domain"
)

const maxNameAttempts = 100

// Client is the subset of the S3 API used for folder lookup and creation.
type Client interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader streams objects of unknown length.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Storage implements application.ObjectStorage on a bucket. Folders are key
// prefixes marked by an empty "<prefix>/" object; ids are the prefixes.
type Storage struct {
	client       Client
	uploader     Uploader
	bucket       string
	mediaBaseURL string
}

// Options configures the S3 client.
type Options struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	MediaBaseURL    string
}

// NewStorage creates an S3 backed storage. A custom endpoint switches to path
// style addressing for MinIO and similar servers.
func NewStorage(ctx context.Context, opts Options) (*Storage, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewStorageWithClient(client, manager.NewUploader(client), opts.Bucket, opts.MediaBaseURL), nil
}

// NewStorageWithClient wires a storage from existing clients.
func NewStorageWithClient(client Client, uploader Uploader, bucket, mediaBaseURL string) *Storage {
	return &Storage{
		client:       client,
		uploader:     uploader,
		bucket:       bucket,
		mediaBaseURL: strings.TrimRight(mediaBaseURL, "/"),
	}
}

// ListFolders reports the folder marker for name under parentID, if any.
func (s *Storage) ListFolders(ctx context.Context, parentID, name string) ([]domain.FolderRef, error) {
	prefix := joinKey(parentID, name) + "/"
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 list %s: %w", prefix, err)
	}
	if len(out.Contents) == 0 {
		return nil, nil
	}
	return []domain.FolderRef{{ID: joinKey(parentID, name), Name: name}}, nil
}

// CreateFolder writes the folder marker object.
func (s *Storage) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	id := joinKey(parentID, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(id + "/"),
		Body:          strings.NewReader(""),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return "", fmt.Errorf("s3 create folder %s: %w", id, err)
	}
	return id, nil
}

// CreateFile streams body to "<parentID>/<name>" in parts. Taken keys get a
// " (n)" suffix, and the upload is conditional on the key being absent so a
// concurrent writer cannot overwrite an existing photo.
func (s *Storage) CreateFile(ctx context.Context, parentID, name, mimeType string, body io.Reader) (domain.StoredFile, error) {
	for n := 1; n <= maxNameAttempts; n++ {
		candidate := domain.NumberedFileName(name, n)
		key := joinKey(parentID, candidate)

		exists, err := s.objectExists(ctx, key)
		if err != nil {
			return domain.StoredFile{}, err
		}
		if exists {
			continue
		}

		_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        body,
			ContentType: aws.String(mimeType),
			IfNoneMatch: aws.String("*"),
		})
		if isPreconditionFailed(err) {
			seeker, ok := body.(io.Seeker)
			if !ok {
				return domain.StoredFile{}, fmt.Errorf("s3 upload %s: key was taken concurrently: %w", key, err)
			}
			if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
				return domain.StoredFile{}, fmt.Errorf("s3 upload %s: rewind body: %w", key, seekErr)
			}
			continue
		}
		if err != nil {
			return domain.StoredFile{}, fmt.Errorf("s3 upload %s: %w", key, err)
		}
		return domain.StoredFile{ID: key, Name: candidate, ViewLink: s.ViewLink(key)}, nil
	}
	return domain.StoredFile{}, fmt.Errorf("s3 upload: %d names taken for %q", maxNameAttempts, name)
}

func (s *Storage) objectExists(ctx context.Context, key string) (bool, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(key),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("s3 list %s: %w", key, err)
	}
	for _, object := range out.Contents {
		if aws.ToString(object.Key) == key {
			return true, nil
		}
	}
	return false, nil
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed"
}

// ViewLink returns MEDIA_BASE_URL/<key> when configured, s3://bucket/key otherwise.
func (s *Storage) ViewLink(fileID string) string {
	if s.mediaBaseURL == "" {
		return fmt.Sprintf("s3://%s/%s", s.bucket, fileID)
	}
	segments := strings.Split(fileID, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return s.mediaBaseURL + "/" + strings.Join(segments, "/")
}

func joinKey(parent, name string) string {
	parent = strings.Trim(parent, "/")
	if parent == "" {
		return name
	}
	return path.Join(parent, name)
}
