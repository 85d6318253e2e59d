package s3infra

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store reads recorded call audio from S3.
type Store struct {
	client *s3.Client
}

// NewClient creates an S3 client. A non-nil endpoint (LocalStack) overrides
// the base endpoint and enables path-style addressing.
func NewClient(awsCfg aws.Config, endpoint *string) *s3.Client {
	clientOpts := []func(*s3.Options){}
	if endpoint != nil {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = endpoint
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...)
}

func NewStore(client *s3.Client) *Store {
	return &Store{client: client}
}

// Download retrieves an object and returns its stream. The caller closes it.
func (s *Store) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	return out.Body, nil
}

// ParseURI splits s3://bucket/key into its parts.
func ParseURI(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse s3 uri: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("not an s3 uri: %s", raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri needs bucket and key: %s", raw)
	}
	return u.Host, key, nil
}
