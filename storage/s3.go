package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3API is the subset of the S3 client used by the handler.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Handler performs object-store operations on s3:// paths.
type S3Handler struct {
	client S3API
	log    zerolog.Logger
}

// NewS3Handler creates a new S3 handler.
func NewS3Handler(client S3API, log zerolog.Logger) *S3Handler {
	return &S3Handler{client: client, log: log}
}

// ParseS3Path splits an s3://bucket/key path into bucket and key.
func ParseS3Path(path string) (bucket, key string, err error) {
	trimmed, ok := strings.CutPrefix(path, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 path: %q", path)
	}
	bucket, key, ok = strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 path: %q", path)
	}
	return bucket, key, nil
}

// Exists reports whether an object is present at the given s3:// path.
// Malformed paths and lookup failures both read as absent.
func (h *S3Handler) Exists(ctx context.Context, path string) bool {
	bucket, key, err := ParseS3Path(path)
	if err != nil {
		h.log.Warn().Err(err).Str("s3_path", path).Msg("invalid s3 path")
		return false
	}

	_, err = h.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		h.log.Debug().Err(err).Str("s3_path", path).Msg("object does not exist")
		return false
	}
	return true
}

// Upload copies a local file to the given s3:// path.
func (h *S3Handler) Upload(ctx context.Context, localPath, s3Path string) error {
	bucket, key, err := ParseS3Path(s3Path)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		h.log.Error().Err(err).Str("s3_path", s3Path).Msg("upload failed")
		return fmt.Errorf("upload to %s: %w", s3Path, err)
	}

	h.log.Info().Str("local_path", localPath).Str("s3_path", s3Path).Msg("file uploaded")
	return nil
}

// Download copies an object at the given s3:// path to a local file.
func (h *S3Handler) Download(ctx context.Context, s3Path, localPath string) error {
	bucket, key, err := ParseS3Path(s3Path)
	if err != nil {
		return err
	}

	out, err := h.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		h.log.Error().Err(err).Str("s3_path", s3Path).Msg("download failed")
		return fmt.Errorf("download %s: %w", s3Path, err)
	}
	defer out.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		return fmt.Errorf("write %s: %w", localPath, err)
	}

	h.log.Info().Str("s3_path", s3Path).Str("local_path", localPath).Msg("file downloaded")
	return nil
}

// List returns the object keys under an s3://bucket/prefix path.
func (h *S3Handler) List(ctx context.Context, s3Prefix string) ([]string, error) {
	bucket, prefix, err := ParseS3Path(s3Prefix)
	if err != nil {
		return nil, err
	}

	out, err := h.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		h.log.Error().Err(err).Str("prefix", s3Prefix).Msg("list failed")
		return nil, fmt.Errorf("list %s: %w", s3Prefix, err)
	}

	keys := make([]string, len(out.Contents))
	for i, obj := range out.Contents {
		keys[i] = aws.ToString(obj.Key)
	}
	return keys, nil
}
