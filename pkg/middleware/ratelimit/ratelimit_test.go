package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(l *Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/upload", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func post(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.RemoteAddr = ip + ":5000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareLimitsPerClient(t *testing.T) {
	r := newRouter(New(0.5, 2, nil))

	assert.Equal(t, http.StatusCreated, post(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusCreated, post(r, "10.0.0.1").Code)

	w := post(r, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusCreated, post(r, "10.0.0.2").Code)
}

func TestDisabledLimiterPassesEverything(t *testing.T) {
	l := New(0, 1, nil)
	assert.False(t, l.Enabled())
	r := newRouter(l)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusCreated, post(r, "10.0.0.1").Code)
	}
}

func TestSweepRemovesIdleClients(t *testing.T) {
	l := New(1, 1, nil)
	start := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return start }
	l.get("a")
	l.now = func() time.Time { return start.Add(time.Minute) }
	l.get("b")

	assert.Equal(t, 1, l.Sweep(30*time.Second))
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "b")
}
