package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_PerKeyBuckets(t *testing.T) {
	l := NewMemoryLimiter(1, 2)
	now := time.Date(2024, time.March, 12, 9, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "alice")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "alice")
	require.False(t, ok)

	ok, _ = l.Allow(ctx, "bob")
	require.True(t, ok)

	now = now.Add(time.Second)
	ok, _ = l.Allow(ctx, "alice")
	require.True(t, ok)
}

func TestMemoryLimiter_DropsIdleVisitors(t *testing.T) {
	l := NewMemoryLimiter(1, 1)
	now := time.Date(2024, time.March, 12, 9, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_, _ = l.Allow(context.Background(), "alice")
	now = now.Add(10 * time.Minute)
	_, _ = l.Allow(context.Background(), "bob")

	require.Len(t, l.visitors, 1)
	require.Contains(t, l.visitors, "bob")
}

type limiterFunc func(context.Context, string) (bool, error)

func (f limiterFunc) Allow(ctx context.Context, key string) (bool, error) {
	return f(ctx, key)
}

func TestRateLimitMiddleware(t *testing.T) {
	var keys []string
	limiter := limiterFunc(func(_ context.Context, key string) (bool, error) {
		keys = append(keys, key)
		switch key {
		case "user:blocked":
			return false, nil
		case "user:flaky":
			return false, errors.New("redis down")
		}
		return true, nil
	})
	handler := RateLimitMiddleware(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
		req.RemoteAddr = "10.0.0.7:5123"
		if userID != "" {
			req = req.WithContext(WithUser(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, serve(""))
	require.Equal(t, http.StatusTooManyRequests, serve("blocked"))
	require.Equal(t, http.StatusNoContent, serve("flaky"))
	require.Equal(t, []string{"ip:10.0.0.7", "user:blocked", "user:flaky"}, keys)
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("ACCORD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ACCORD_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	l := NewRedisLimiter(client, 0.001, 2)
	l.prefix = "accord:test:" + t.Name() + ":" + time.Now().Format(time.RFC3339Nano) + ":"
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "alice")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := l.Allow(ctx, "alice")
	require.NoError(t, err)
	require.False(t, ok)
}
