package credentials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls atomic.Int32
	delay time.Duration
	err   error
	gotID string
}

func (f *fakeFetcher) AccessToken(ctx context.Context, clientID, clientSecret string) (string, error) {
	n := f.calls.Add(1)
	f.gotID = clientID
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("token-%d", n), nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingObserver struct {
	ok, failed int
}

func (o *countingObserver) TokenRefreshed(err error) {
	if err != nil {
		o.failed++
		return
	}
	o.ok++
}

func TestNew_NilFetcher(t *testing.T) {
	_, err := New(nil, "id", "secret")
	assert.Error(t, err)
}

func TestCache_ReusesTokenWithinTTL(t *testing.T) {
	fetcher := &fakeFetcher{}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	cache, err := New(fetcher, "client", "secret", WithTTL(time.Hour), WithClock(clock.Now))
	require.NoError(t, err)

	first, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", first)
	assert.Equal(t, "client", fetcher.gotID)

	clock.Advance(59 * time.Minute)
	second, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, fetcher.calls.Load())
}

func TestCache_RefreshesAtTTL(t *testing.T) {
	fetcher := &fakeFetcher{}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	cache, err := New(fetcher, "client", "secret", WithTTL(time.Hour), WithClock(clock.Now))
	require.NoError(t, err)

	_, err = cache.Token(context.Background())
	require.NoError(t, err)

	clock.Advance(time.Hour)
	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.EqualValues(t, 2, fetcher.calls.Load())
}

func TestCache_RefreshFailureIsReturned(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("401 unauthorized")}
	observer := &countingObserver{}
	cache, err := New(fetcher, "client", "secret", WithObserver(observer))
	require.NoError(t, err)

	_, err = cache.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fetcher.err)
	assert.Equal(t, 1, observer.failed)

	// next call retries instead of caching the failure
	fetcher.err = nil
	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, 1, observer.ok)
}

func TestCache_ConcurrentCallersShareOneRefresh(t *testing.T) {
	fetcher := &fakeFetcher{delay: 20 * time.Millisecond}
	cache, err := New(fetcher, "client", "secret")
	require.NoError(t, err)

	const callers = 16
	tokens := make([]string, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			token, err := cache.Token(context.Background())
			assert.NoError(t, err)
			tokens[i] = token
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, fetcher.calls.Load())
	for _, token := range tokens {
		assert.Equal(t, "token-1", token)
	}
}

func TestCache_Invalidate(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache, err := New(fetcher, "client", "secret")
	require.NoError(t, err)

	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	cache.Invalidate()

	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
}

func TestCache_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cache, err := New(&fakeFetcher{}, "id", "secret", WithLogger(logger))
	require.NoError(t, err)

	token, err := cache.Token(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.Contains(out, "Store token refreshed"), "expected refresh log, got %q", out)
	assert.False(t, strings.Contains(out, token), "token must not be logged")
}
