package audio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/callog-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjects struct{ mock.Mock }

func (m *mockObjects) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("webm-bytes"))
	}))
	defer srv.Close()

	data, err := NewFetcher(srv.Client(), nil, 0).Fetch(context.Background(), srv.URL+"/rec.webm")
	require.NoError(t, err)
	assert.Equal(t, []byte("webm-bytes"), data)
}

func TestFetch_HTTPNon2xx_IsFetchFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), nil, 0).Fetch(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, domain.ErrFetchFailed))
	assert.ErrorContains(t, err, "status 403")
}

type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) { return nil, f.err }

func TestFetch_TransportErrorOmitsSignedQuery(t *testing.T) {
	client := &http.Client{Transport: failingTransport{err: context.DeadlineExceeded}}

	_, err := NewFetcher(client, nil, 0).Fetch(context.Background(), "https://storage.example/rec.webm?sig=s3cr3t")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetchFailed))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.NotContains(t, err.Error(), "s3cr3t")
}

func TestFetch_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), 11))
	}))
	defer srv.Close()

	_, err := NewFetcher(srv.Client(), nil, 10).Fetch(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, domain.ErrFetchFailed))
}

func TestFetch_S3(t *testing.T) {
	objects := &mockObjects{}
	objects.On("Download", mock.Anything, "recordings", "a/b.m4a").
		Return(io.NopCloser(bytes.NewReader([]byte("m4a"))), nil)

	data, err := NewFetcher(nil, objects, 0).Fetch(context.Background(), "s3://recordings/a/b.m4a")
	require.NoError(t, err)
	assert.Equal(t, []byte("m4a"), data)
	objects.AssertExpectations(t)
}

func TestFetch_S3WithoutStore_IsUnconfigured(t *testing.T) {
	_, err := NewFetcher(nil, nil, 0).Fetch(context.Background(), "s3://recordings/a.webm")
	assert.True(t, errors.Is(err, domain.ErrUnconfigured))
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	_, err := NewFetcher(nil, nil, 0).Fetch(context.Background(), "ftp://host/a.webm")
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}
