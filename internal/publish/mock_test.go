package publish

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// putCall records one PutObject request.
type putCall struct {
	bucket      string
	key         string
	contentType string
	body        []byte
}

// mockS3Client implements S3API for testing.
type mockS3Client struct {
	calls  []putCall
	putErr error
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.calls = append(m.calls, putCall{
		bucket:      aws.ToString(input.Bucket),
		key:         aws.ToString(input.Key),
		contentType: aws.ToString(input.ContentType),
		body:        body,
	})
	return &s3.PutObjectOutput{}, nil
}
