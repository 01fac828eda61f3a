package httputil_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-tgbot/internal/common/httputil"
	"github.com/central-university-dev/go-tgbot/internal/config"
	apierrors "github.com/central-university-dev/go-tgbot/internal/domain/errors"
)

func TestCircuitBreaker_FastFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&requestCount, 1)

		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	settings := httputil.TransportSettings{
		CBSlidingWindowSize:        1,
		CBMinimumRequiredCalls:     1,
		CBFailureRateThreshold:     100,
		CBPermittedCallsInHalfOpen: 1,
		CBWaitDurationInOpenState:  2 * time.Second,
	}

	client, err := httputil.CreateResilientHTTPClient(settings, logger, "test_service")
	require.NoError(t, err)

	resp, err := client.R().Get(server.URL + "/test")
	require.NoError(t, err, "Ответ 5xx должен дойти до вызывающего кода")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())

	start := time.Now()
	_, err = client.R().Get(server.URL + "/test")
	duration := time.Since(start)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open", "Ошибка должна указывать на открытый circuit breaker")
	assert.Less(t, duration, 200*time.Millisecond, "Circuit breaker должен отвечать быстро")
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount),
		"Circuit breaker должен предотвратить дополнительные запросы к серверу")
}

func TestNoRetries(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests"}`))
	}))
	defer server.Close()

	settings := httputil.TransportSettings{
		CBSlidingWindowSize:        100,
		CBMinimumRequiredCalls:     100,
		CBFailureRateThreshold:     100,
		CBPermittedCallsInHalfOpen: 10,
		CBWaitDurationInOpenState:  10 * time.Second,
	}

	client, err := httputil.CreateResilientHTTPClient(settings, logger, "no_retry_test")
	require.NoError(t, err)

	resp, err := client.R().Get(server.URL + "/test")

	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "Too Many Requests")
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount), "Должен быть только 1 запрос, retry не должен произойти")
}

func TestInvalidProxy(t *testing.T) {
	_, err := httputil.CreateResilientHTTPClient(httputil.TransportSettings{ProxyURL: "::not a url"}, nil, "proxy_test")

	var cfgErr *apierrors.ConfigError

	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "TELEGRAM_PROXY_URL", cfgErr.Field)
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.Config{
		TelegramProxyURL:          "socks5://127.0.0.1:1080",
		CBMinimumRequiredCalls:    5,
		CBWaitDurationInOpenState: time.Second,
	}

	settings := httputil.SettingsFromConfig(cfg)

	assert.Equal(t, "socks5://127.0.0.1:1080", settings.ProxyURL)
	assert.Equal(t, 5, settings.CBMinimumRequiredCalls)
	assert.Equal(t, time.Second, settings.CBWaitDurationInOpenState)
}
