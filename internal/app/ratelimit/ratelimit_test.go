package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/issafronov/urlscan/internal/app/ratelimit"
	"github.com/issafronov/urlscan/internal/app/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStorage struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	PutFunc func(ctx context.Context, key, value string, ttl time.Duration) error
}

func (m *mockStorage) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", storage.ErrNotFound
}

func (m *mockStorage) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockStorage) Ping(ctx context.Context) error { return nil }

func TestAllow_EleventhRequestRejected(t *testing.T) {
	l := ratelimit.NewLimiter(storage.NewMemoryStorage())
	ctx := context.Background()

	for i := 0; i < ratelimit.Limit; i++ {
		ok, err := l.Allow(ctx, "1.1.1.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}

	ok, err := l.Allow(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.False(t, ok)

	// другой клиент в том же окне не затронут
	ok, err = l.Allow(ctx, "2.2.2.2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_WindowExpires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStorage().WithClock(func() time.Time { return now })
	l := ratelimit.NewLimiter(store)
	ctx := context.Background()

	for i := 0; i < ratelimit.Limit; i++ {
		_, err := l.Allow(ctx, "unknown")
		require.NoError(t, err)
	}
	ok, _ := l.Allow(ctx, "unknown")
	assert.False(t, ok)

	now = now.Add(ratelimit.Window)
	ok, err := l.Allow(ctx, "unknown")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_WritesCounterWithWindowTTL(t *testing.T) {
	var gotKey, gotValue string
	var gotTTL time.Duration
	store := &mockStorage{
		GetFunc: func(ctx context.Context, key string) (string, error) {
			return "4", nil
		},
		PutFunc: func(ctx context.Context, key, value string, ttl time.Duration) error {
			gotKey, gotValue, gotTTL = key, value, ttl
			return nil
		},
	}

	ok, err := ratelimit.NewLimiter(store).Allow(context.Background(), "9.9.9.9")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "rate:9.9.9.9", gotKey)
	assert.Equal(t, "5", gotValue)
	assert.Equal(t, 60*time.Second, gotTTL)
}

func TestAllow_RejectedDoesNotWrite(t *testing.T) {
	store := &mockStorage{
		GetFunc: func(ctx context.Context, key string) (string, error) {
			return "10", nil
		},
		PutFunc: func(ctx context.Context, key, value string, ttl time.Duration) error {
			t.Fatal("Put should not be called for a rejected request")
			return nil
		},
	}

	ok, err := ratelimit.NewLimiter(store).Allow(context.Background(), "9.9.9.9")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllow_StoreErrors(t *testing.T) {
	readErr := &mockStorage{
		GetFunc: func(ctx context.Context, key string) (string, error) {
			return "", errors.New("store down")
		},
	}
	_, err := ratelimit.NewLimiter(readErr).Allow(context.Background(), "c")
	assert.Error(t, err)

	writeErr := &mockStorage{
		PutFunc: func(ctx context.Context, key, value string, ttl time.Duration) error {
			return errors.New("store down")
		},
	}
	ok, err := ratelimit.NewLimiter(writeErr).Allow(context.Background(), "c")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestAllow_CorruptCounterTreatedAsZero(t *testing.T) {
	var gotValue string
	store := &mockStorage{
		GetFunc: func(ctx context.Context, key string) (string, error) {
			return "NaN", nil
		},
		PutFunc: func(ctx context.Context, key, value string, ttl time.Duration) error {
			gotValue = value
			return nil
		},
	}

	ok, err := ratelimit.NewLimiter(store).Allow(context.Background(), "c")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", gotValue)
}
