package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrInvalidURI is returned for destinations that are not s3://bucket/key.
var ErrInvalidURI = errors.New("invalid S3 URI")

// ParseS3URI splits s3://bucket/key into its bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", ErrInvalidURI, uri, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %s: scheme must be s3", ErrInvalidURI, uri)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %s: want s3://bucket/key", ErrInvalidURI, uri)
	}
	return bucket, key, nil
}

// Uploader writes report bodies to S3 objects.
type Uploader struct {
	client S3API
}

// NewUploader creates an uploader over the given S3 client.
func NewUploader(client S3API) *Uploader {
	return &Uploader{client: client}
}

// Upload stores body at uri with the given content type.
func (u *Uploader) Upload(ctx context.Context, uri string, body []byte, contentType string) error {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object s3://%s/%s: %w", bucket, key, err)
	}

	slog.Debug("Uploaded report", "bucket", bucket, "key", key, "bytes", len(body))
	return nil
}

// ContentType returns the MIME type for a report format.
func ContentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "sarif":
		return "application/sarif+json"
	case "markdown":
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
