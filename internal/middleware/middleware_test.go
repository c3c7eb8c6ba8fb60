package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"

	"github.com/Lasher77/CompanyDB/internal/middleware"
	"github.com/Lasher77/CompanyDB/internal/shared/contextutil"
)

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())

	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = contextutil.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestRequestIDKeepsIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestIdempotencyPassesWithoutKey(t *testing.T) {
	db, mock := redismock.NewClientMock()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/imports", middleware.Idempotency(db), func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/imports", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyReplaysCachedResponse(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("idemp:/imports:key-1").SetVal(`{"id":"job-1"}`)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/imports", middleware.Idempotency(db), func(c *gin.Context) {
		t.Fatal("handler must not run on a cache hit")
	})

	req := httptest.NewRequest(http.MethodPost, "/imports", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "job-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("idemp:/imports:key-1").RedisNil()
	mock.ExpectSetNX("idemp:/imports:key-1:lock", "locked", 30*time.Second).SetVal(false)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/imports", middleware.Idempotency(db), func(c *gin.Context) {
		t.Fatal("handler must not run while the first request is in flight")
	})

	req := httptest.NewRequest(http.MethodPost, "/imports", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyAcquiresLock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("idemp:/imports:key-1").RedisNil()
	mock.ExpectSetNX("idemp:/imports:key-1:lock", "locked", 30*time.Second).SetVal(true)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/imports", middleware.Idempotency(db), func(c *gin.Context) {
		assert.Equal(t, "idemp:/imports:key-1", c.GetString("idempotency_cache_key"))
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	})

	req := httptest.NewRequest(http.MethodPost, "/imports", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RateLimitByIP(1, 1))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
