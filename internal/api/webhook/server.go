package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"

	"github.com/central-university-dev/go-tgbot/internal/botapi"
	"github.com/central-university-dev/go-tgbot/internal/common/middleware"
	"github.com/central-university-dev/go-tgbot/internal/config"
	"github.com/central-university-dev/go-tgbot/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

type Registrar interface {
	SetWebhook(ctx context.Context, call botapi.SetWebhook) (bool, error)
	DeleteWebhook(ctx context.Context, dropPending bool) (bool, error)
}

type Settings struct {
	Port           int
	Path           string
	PublicURL      string
	Secret         string
	AllowedUpdates []string

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Port:              cfg.WebhookListenPort,
		Path:              cfg.WebhookPath,
		PublicURL:         cfg.WebhookURL,
		Secret:            cfg.WebhookSecret,
		AllowedUpdates:    cfg.PollAllowedUpdates,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}
}

type Server struct {
	server    *http.Server
	registrar Registrar
	settings  Settings
	logger    *slog.Logger
}

func NewServer(ctx context.Context, settings Settings, handler telegram.Handler, registrar Registrar, logger *slog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", settings.Port),
			Handler:           NewRouter(ctx, settings, handler, logger),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
		},
		registrar: registrar,
		settings:  settings,
		logger:    logger,
	}
}

func NewRouter(ctx context.Context, settings Settings, handler telegram.Handler, logger *slog.Logger) http.Handler {
	rateLimiter := middleware.NewRateLimiterMiddleware(ctx, settings.RateLimitRequests, settings.RateLimitWindow, logger)
	metricsMiddleware := middleware.NewMetricsMiddleware("webhook")

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(metricsMiddleware.Middleware)
	r.Use(rateLimiter.Middleware)

	r.Method(http.MethodPost, settings.Path, NewUpdateHandler(handler, settings.Secret, logger))

	return r
}

// Register сообщает Telegram адрес webhook. После этого getUpdates перестает работать.
func (s *Server) Register(ctx context.Context) error {
	if s.settings.PublicURL == "" {
		return errors.New("не задан WEBHOOK_URL")
	}

	if _, err := s.registrar.SetWebhook(ctx, botapi.SetWebhook{
		URL:            s.settings.PublicURL,
		SecretToken:    s.settings.Secret,
		AllowedUpdates: s.settings.AllowedUpdates,
	}); err != nil {
		return errors.Wrap(err, "регистрация webhook")
	}

	s.logger.Info("Webhook зарегистрирован", "path", s.settings.Path)

	return nil
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrap(err, "ошибка запуска webhook сервера")
	}

	return s.Serve(ctx, ln)
}

// Serve возвращается только после того, как завершены все активные запросы
// или истек таймаут остановки.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("Запуск webhook сервера",
		"addr", ln.Addr().String(),
		"path", s.settings.Path,
	)

	stopped := make(chan struct{})

	go func() {
		defer close(stopped)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Ошибка при остановке webhook сервера", "error", err)
		} else {
			s.logger.Info("Webhook сервер остановлен")
		}
	}()

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "ошибка запуска webhook сервера")
	}

	<-stopped

	return nil
}

// Unregister удаляет webhook, чтобы бот снова мог работать через long polling.
func (s *Server) Unregister(ctx context.Context) error {
	if _, err := s.registrar.DeleteWebhook(ctx, false); err != nil {
		return errors.Wrap(err, "удаление webhook")
	}

	return nil
}
