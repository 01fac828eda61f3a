package httputil

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/central-university-dev/go-tgbot/internal/config"
	apierrors "github.com/central-university-dev/go-tgbot/internal/domain/errors"
)

type TransportSettings struct {
	ProxyURL string

	CBSlidingWindowSize        int
	CBMinimumRequiredCalls     int
	CBFailureRateThreshold     int
	CBPermittedCallsInHalfOpen int
	CBWaitDurationInOpenState  time.Duration
}

func SettingsFromConfig(cfg *config.Config) TransportSettings {
	return TransportSettings{
		ProxyURL:                   cfg.TelegramProxyURL,
		CBSlidingWindowSize:        cfg.CBSlidingWindowSize,
		CBMinimumRequiredCalls:     cfg.CBMinimumRequiredCalls,
		CBFailureRateThreshold:     cfg.CBFailureRateThreshold,
		CBPermittedCallsInHalfOpen: cfg.CBPermittedCallsInHalfOpen,
		CBWaitDurationInOpenState:  cfg.CBWaitDurationInOpenState,
	}
}

// CreateResilientHTTPClient собирает resty клиент без повторов: решение о
// повторе принимает вызывающий код, а transport только размыкает цепь при
// серии 5xx и сетевых ошибок.
func CreateResilientHTTPClient(settings TransportSettings, logger *slog.Logger, serviceName string) (*resty.Client, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("http.DefaultTransport не является *http.Transport")
	}

	transport := base.Clone()

	if settings.ProxyURL != "" {
		proxyURL, err := url.Parse(settings.ProxyURL)
		if err != nil || proxyURL.Host == "" {
			return nil, &apierrors.ConfigError{Field: "TELEGRAM_PROXY_URL", Message: "некорректный адрес прокси"}
		}

		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := resty.New()
	client.SetRetryCount(0)
	client.SetLogger(NewRestyLogger(logger))
	client.SetTransport(&CircuitBreakerTransport{
		circuitBreaker:    newCircuitBreaker(settings, logger, serviceName),
		originalTransport: transport,
		logger:            logger,
		serviceName:       serviceName,
	})

	return client, nil
}

func newCircuitBreaker(settings TransportSettings, logger *slog.Logger, serviceName string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        serviceName + "_circuit_breaker",
		MaxRequests: uint32(settings.CBPermittedCallsInHalfOpen), //nolint:gosec // G115: Значение из конфига
		Interval:    time.Duration(settings.CBSlidingWindowSize) * time.Second,
		Timeout:     settings.CBWaitDurationInOpenState,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= uint32(settings.CBMinimumRequiredCalls) && //nolint:gosec // G115: Значение из конфига
				failureRatio >= float64(settings.CBFailureRateThreshold)/100.0
		},
		// Отмена контекста вызывающим кодом не говорит о здоровье сервера.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("Состояние circuit breaker изменилось",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			}
		},
	})
}

type CircuitBreakerTransport struct {
	circuitBreaker    *gobreaker.CircuitBreaker
	originalTransport http.RoundTripper
	logger            *slog.Logger
	serviceName       string
}

func (t *CircuitBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	result, err := t.circuitBreaker.Execute(func() (interface{}, error) {
		resp, err := t.originalTransport.RoundTrip(req)
		if err != nil {
			return nil, err
		}

		// 5xx считается отказом, но тело с описанием ошибки нужно вызывающему.
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, &apierrors.HTTPError{StatusCode: resp.StatusCode}
		}

		return resp, nil
	})

	if resp, ok := result.(*http.Response); ok && resp != nil {
		return resp, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		if t.logger != nil {
			t.logger.Warn("Circuit breaker is open",
				"service", t.serviceName,
				"host", req.URL.Host,
			)
		}
	}

	return nil, err
}
