package httputil

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSleeps struct {
	waits []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	sleeps := &recordedSleeps{}
	f := NewFetcher(srv.Client(),
		WithUserAgent("test-agent"),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3, Backoff: ExponentialBackoff(time.Second)}),
		WithSleep(sleeps.sleep),
		WithLogger(quietLogger()),
	)

	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "<html>ok</html>", string(page.Body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.waits)
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	sleeps := &recordedSleeps{}
	f := NewFetcher(srv.Client(),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3, Backoff: FixedBackoff(time.Second)}),
		WithSleep(sleeps.sleep),
		WithLogger(quietLogger()),
	)

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, sleeps.waits, 2)
}

func TestFetchTimeoutConsumesAttempts(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := srv.Client()
	client.Timeout = 20 * time.Millisecond

	sleeps := &recordedSleeps{}
	f := NewFetcher(client,
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3}),
		WithSleep(sleeps.sleep),
		WithLogger(quietLogger()),
	)

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Len(t, sleeps.waits, 2)
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(time.Second)
	assert.Equal(t, time.Second, b(0))
	assert.Equal(t, 2*time.Second, b(1))
	assert.Equal(t, 4*time.Second, b(2))
}

func TestReadBody(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte("gzipped"))
	require.NoError(t, zw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write([]byte("brotli"))
	require.NoError(t, bw.Close())

	tests := []struct {
		name     string
		encoding string
		body     []byte
		want     string
	}{
		{"plain", "", []byte("plain"), "plain"},
		{"gzip", "gzip", gz.Bytes(), "gzipped"},
		{"brotli", "br", br.Bytes(), "brotli"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				Header: http.Header{},
				Body:   io.NopCloser(bytes.NewReader(tt.body)),
			}
			if tt.encoding != "" {
				resp.Header.Set("Content-Encoding", tt.encoding)
			}
			got, err := ReadBody(resp)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), 0))
}
