package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/callog-relay/internal/domain"
	s3infra "github.com/callog-relay/internal/infrastructure/s3"
)

// objectStore is the read side of the S3 store.
type objectStore interface {
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Fetcher downloads recorded audio from an http(s) URL or an s3:// object.
type Fetcher struct {
	httpClient *http.Client
	objects    objectStore
	maxBytes   int64
}

// NewFetcher builds a Fetcher. objects may be nil, in which case s3://
// references are rejected.
func NewFetcher(httpClient *http.Client, objects objectStore, maxBytes int64) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{httpClient: httpClient, objects: objects, maxBytes: maxBytes}
}

func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("audioUrl is not a valid URL: %w", domain.ErrInvalidArgument)
	}
	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, ref)
	case "s3":
		return f.fetchS3(ctx, ref)
	default:
		return nil, fmt.Errorf("audioUrl scheme %q: %w", u.Scheme, domain.ErrInvalidArgument)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, signature included.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrFetchFailed, resp.StatusCode)
	}
	return f.readAll(resp.Body)
}

func (f *Fetcher) fetchS3(ctx context.Context, ref string) ([]byte, error) {
	if f.objects == nil {
		return nil, fmt.Errorf("s3 audio store: %w", domain.ErrUnconfigured)
	}
	bucket, key, err := s3infra.ParseURI(ref)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidArgument)
	}
	body, err := f.objects.Download(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	defer body.Close()
	return f.readAll(body)
}

func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	if f.maxBytes > 0 {
		r = io.LimitReader(r, f.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrFetchFailed, err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: audio exceeds %d bytes", domain.ErrFetchFailed, f.maxBytes)
	}
	return data, nil
}
