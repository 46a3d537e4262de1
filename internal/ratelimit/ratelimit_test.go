package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCounter struct {
	mock.Mock
}

func (m *MockCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Get(1).(time.Duration), args.Error(2)
}

func TestAllowLocal_FixedWindow(t *testing.T) {
	l := NewLimiter(nil)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		res := l.Allow(context.Background(), "k", 3, time.Minute)
		assert.True(t, res.Allowed, "hit %d", i+1)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res := l.Allow(context.Background(), "k", 3, time.Minute)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Minute, res.Reset)

	now = now.Add(time.Minute)
	res = l.Allow(context.Background(), "k", 3, time.Minute)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestAllowLocal_KeysAreIndependent(t *testing.T) {
	l := NewLimiter(nil)

	assert.True(t, l.Allow(context.Background(), "a", 1, time.Minute).Allowed)
	assert.False(t, l.Allow(context.Background(), "a", 1, time.Minute).Allowed)
	assert.True(t, l.Allow(context.Background(), "b", 1, time.Minute).Allowed)
}

func TestAllowLocal_Concurrent(t *testing.T) {
	l := NewLimiter(nil)
	const limit = 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(context.Background(), "burst", limit, time.Minute).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, allowed)
}

func TestAllow_UsesSharedCounter(t *testing.T) {
	counter := new(MockCounter)
	counter.On("Incr", mock.Anything, "k", time.Minute).Return(int64(7), 30*time.Second, nil)

	l := NewLimiter(counter)
	res := l.Allow(context.Background(), "k", 6, time.Minute)

	assert.False(t, res.Allowed)
	assert.Equal(t, 30*time.Second, res.Reset)
	counter.AssertExpectations(t)
}

func TestAllow_FallsBackWhenSharedCounterFails(t *testing.T) {
	counter := new(MockCounter)
	counter.On("Incr", mock.Anything, "k", time.Minute).Return(int64(0), time.Duration(0), errors.New("connection refused"))

	l := NewLimiter(counter)
	res := l.Allow(context.Background(), "k", 1, time.Minute)
	assert.True(t, res.Allowed)

	res = l.Allow(context.Background(), "k", 1, time.Minute)
	assert.False(t, res.Allowed)
}

func TestMiddleware_Returns429WithRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	l := NewLimiter(nil)
	router := gin.New()
	router.POST("/upload", l.Middleware("proof_upload", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, w.Body.String(), "Too many requests")
}
