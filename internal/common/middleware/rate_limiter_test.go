package middleware_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-tgbot/internal/common/middleware"
)

func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	limiter := middleware.NewRateLimiterMiddleware(ctx, 2, time.Minute, logger)

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)

	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", http.NoBody)
		req.RemoteAddr = "10.0.0.1:5000"

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		codes = append(codes, rec.Code)

		if rec.Code == http.StatusTooManyRequests {
			var body struct {
				OK         bool `json:"ok"`
				ErrorCode  int  `json:"error_code"`
				Parameters struct {
					RetryAfter int `json:"retry_after"`
				} `json:"parameters"`
			}

			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.OK)
			assert.Equal(t, http.StatusTooManyRequests, body.ErrorCode)
			assert.Equal(t, 30, body.Parameters.RetryAfter)
			assert.Equal(t, "30", rec.Header().Get("Retry-After"))
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_SeparateClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := middleware.NewRateLimiterMiddleware(ctx, 1, time.Minute, nil)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		req.RemoteAddr = addr

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, addr)
	}
}
