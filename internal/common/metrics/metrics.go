package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "tgbot"

	APISubsystem     = "api"
	PollerSubsystem  = "poller"
	FilesSubsystem   = "files"
	ForwardSubsystem = "forward"
)

// Метрики входящих HTTP запросов (webhook, служебные эндпоинты).
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)
)

// Вызовы Bot API.
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: APISubsystem,
			Name:      "requests_total",
			Help:      "Total number of Bot API calls by method and outcome",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: APISubsystem,
			Name:      "request_duration_seconds",
			Help:      "Bot API call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method"},
	)

	BotUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: APISubsystem,
			Name:      "bot_up",
			Help:      "1 if the last getMe health check succeeded",
		},
	)
)

// Long polling.
var (
	UpdatesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: PollerSubsystem,
			Name:      "updates_received_total",
			Help:      "Total number of updates received by type",
		},
		[]string{"update_type"},
	)

	UpdatesHandledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: PollerSubsystem,
			Name:      "updates_handled_total",
			Help:      "Total number of dispatched updates by handler outcome",
		},
		[]string{"status"},
	)

	PollErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: PollerSubsystem,
			Name:      "errors_total",
			Help:      "Total number of failed getUpdates calls by kind",
		},
		[]string{"kind"},
	)

	PollOffset = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: PollerSubsystem,
			Name:      "offset",
			Help:      "Current getUpdates offset",
		},
	)
)

// Скачивание файлов и пересылка обновлений.
var (
	FileDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: FilesSubsystem,
			Name:      "downloads_total",
			Help:      "Total number of file downloads by outcome",
		},
		[]string{"status"},
	)

	FileDownloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: FilesSubsystem,
			Name:      "downloaded_bytes_total",
			Help:      "Total number of bytes streamed from the file endpoint",
		},
	)

	FileCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: FilesSubsystem,
			Name:      "cache_requests_total",
			Help:      "File path cache lookups by result",
		},
		[]string{"result"},
	)

	UpdatesForwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: ForwardSubsystem,
			Name:      "updates_total",
			Help:      "Total number of updates forwarded to Kafka",
		},
		[]string{"status"},
	)
)

func RecordHTTPRequest(service, method, endpoint string, statusCode int, duration time.Duration) {
	status := "success"
	if statusCode >= 400 {
		status = "error"
	}

	HTTPRequestsTotal.WithLabelValues(service, method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(service, method, endpoint).Observe(duration.Seconds())
}

func RecordAPIRequest(method, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, status).Inc()
	APIRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func RecordUpdate(updateType string) {
	UpdatesReceivedTotal.WithLabelValues(updateType).Inc()
}

func RecordHandled(status string) {
	UpdatesHandledTotal.WithLabelValues(status).Inc()
}

func RecordPollError(kind string) {
	PollErrorsTotal.WithLabelValues(kind).Inc()
}

func SetPollOffset(offset int) {
	PollOffset.Set(float64(offset))
}

func RecordFileDownload(status string) {
	FileDownloadsTotal.WithLabelValues(status).Inc()
}

func AddDownloadedBytes(n int) {
	if n > 0 {
		FileDownloadBytes.Add(float64(n))
	}
}

func RecordFileCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	FileCacheRequests.WithLabelValues(result).Inc()
}

func RecordForwarded(status string) {
	UpdatesForwardedTotal.WithLabelValues(status).Inc()
}

func SetBotUp(up bool) {
	if up {
		BotUp.Set(1)
		return
	}

	BotUp.Set(0)
}
