package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-faster/jx"
	"golang.org/x/time/rate"
)

type ClientRateLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiterMiddleware struct {
	clients    map[string]*ClientRateLimiter
	mu         sync.Mutex
	rate       rate.Limit
	interval   time.Duration
	burst      int
	expiration time.Duration
	logger     *slog.Logger

	ctx context.Context
}

func NewRateLimiterMiddleware(
	ctx context.Context,
	requests int,
	window time.Duration,
	logger *slog.Logger,
) *RateLimiterMiddleware {
	if requests < 1 {
		requests = 1
	}

	if window <= 0 {
		window = time.Second
	}

	m := &RateLimiterMiddleware{
		clients:    make(map[string]*ClientRateLimiter),
		rate:       rate.Limit(float64(requests) / window.Seconds()),
		interval:   window / time.Duration(requests),
		burst:      requests,
		expiration: 1 * time.Hour,
		logger:     logger,
		ctx:        ctx,
	}

	go m.cleanupClients()

	return m
}

func (m *RateLimiterMiddleware) getClientLimiter(ip string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, exists := m.clients[ip]
	if !exists {
		client = &ClientRateLimiter{
			limiter:  rate.NewLimiter(m.rate, m.burst),
			lastSeen: time.Now(),
		}
		m.clients[ip] = client
	} else {
		client.lastSeen = time.Now()
	}

	return client.limiter
}

func (m *RateLimiterMiddleware) cleanupClients() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			for ip, client := range m.clients {
				if time.Since(client.lastSeen) > m.expiration {
					delete(m.clients, ip)
				}
			}
			m.mu.Unlock()
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !m.getClientLimiter(ip).Allow() {
			retryAfter := int(math.Ceil(m.interval.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}

			if m.logger != nil {
				m.logger.Warn("Превышен лимит запросов", "ip", ip, "path", r.URL.Path)
			}

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.burst))
			w.Header().Set("X-RateLimit-Remaining", "0")

			writeTooManyRequests(w, retryAfter)

			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeTooManyRequests отвечает в формате конверта Bot API.
func writeTooManyRequests(w http.ResponseWriter, retryAfter int) {
	var e jx.Encoder

	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(false)
	e.FieldStart("error_code")
	e.Int(http.StatusTooManyRequests)
	e.FieldStart("description")
	e.Str("Too Many Requests: retry after " + strconv.Itoa(retryAfter))
	e.FieldStart("parameters")
	e.ObjStart()
	e.FieldStart("retry_after")
	e.Int(retryAfter)
	e.ObjEnd()
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write(e.Bytes())
}
