package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	count     int64
	incrErr   error
	expireErr error
}

func (f *fakeRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	if f.incrErr != nil {
		return redis.NewIntResult(0, f.incrErr)
	}
	f.count++
	return redis.NewIntResult(f.count, nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(f.expireErr == nil, f.expireErr)
}

func invokeLimited(t *testing.T, mw echo.MiddlewareFunc) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/bol/shows", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	return rec.Code
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	mw := rateLimitWith(&fakeRedis{}, 2, time.Minute)

	assert.Equal(t, http.StatusOK, invokeLimited(t, mw))
	assert.Equal(t, http.StatusOK, invokeLimited(t, mw))
	assert.Equal(t, http.StatusTooManyRequests, invokeLimited(t, mw))
}

func TestRateLimitRedisFailureNeverBlocks(t *testing.T) {
	down := errors.New("connection refused")

	mw := rateLimitWith(&fakeRedis{incrErr: down}, 1, time.Minute)
	assert.Equal(t, http.StatusOK, invokeLimited(t, mw))
	assert.Equal(t, http.StatusOK, invokeLimited(t, mw))

	// A fresh window whose EXPIRE fails passes the request through as well,
	// even past the limit.
	mw = rateLimitWith(&fakeRedis{count: 10, expireErr: down}, 1, time.Minute)
	assert.Equal(t, http.StatusOK, invokeLimited(t, mw))
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	mw := RateLimit(nil, 1, time.Minute)
	assert.Equal(t, http.StatusOK, invokeLimited(t, mw))
	assert.Equal(t, http.StatusOK, invokeLimited(t, mw))
}
