package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/multierr"

	"github.com/central-university-dev/go-tgbot/internal/bot/clients/kafka"
	bothandler "github.com/central-university-dev/go-tgbot/internal/bot/handler"
	"github.com/central-university-dev/go-tgbot/internal/botapi"
	"github.com/central-university-dev/go-tgbot/internal/common/metrics"
	"github.com/central-university-dev/go-tgbot/internal/config"
	"github.com/central-university-dev/go-tgbot/internal/files"
	"github.com/central-university-dev/go-tgbot/internal/scheduler"
	"github.com/central-university-dev/go-tgbot/internal/telegram"
	"github.com/central-university-dev/go-tgbot/pkg"
)

var botCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Начать работу с ботом"},
	{Command: "help", Description: "Получить справку о командах"},
	{Command: "dice", Description: "Бросить кубик"},
}

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *botapi.Client
	files  *files.Service

	closers []func() error
}

func newApp() (*app, error) {
	cfg := config.LoadConfig()
	logger := pkg.NewLogger(os.Stdout, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Некорректная конфигурация", "error", err)
		return nil, err
	}

	client, err := botapi.NewClient(botapi.SettingsFromConfig(cfg), logger)
	if err != nil {
		logger.Error("Ошибка при создании клиента Bot API", "error", err)
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		client: client,
	}

	a.files = files.NewService(client, a.fileCache(), logger)

	return a, nil
}

// fileCache выбирает Redis, если он настроен и доступен, иначе кэш в памяти.
func (a *app) fileCache() files.Cache {
	if a.cfg.RedisURL == "" {
		return files.NewMemoryFileCache(a.cfg.FileCacheTTL)
	}

	redisCache, err := files.NewRedisFileCache(a.cfg.RedisURL, a.cfg.RedisPassword, a.cfg.RedisDB, a.cfg.FileCacheTTL, a.logger)
	if err != nil {
		a.logger.Error("Ошибка при подключении к Redis, используется кэш в памяти",
			"error", err,
		)

		return files.NewMemoryFileCache(a.cfg.FileCacheTTL)
	}

	a.closers = append(a.closers, redisCache.Close)

	return redisCache
}

// handler собирает обработчик обновлений. При FORWARD_TO_KAFKA обновления
// дополнительно публикуются в Kafka.
func (a *app) handler() telegram.Handler {
	router := bothandler.NewBotHandler(a.client, a.files, a.logger)

	if !a.cfg.ForwardToKafka {
		return router
	}

	forwarder := kafka.NewForwarder(a.cfg.KafkaBrokerList(), a.cfg.KafkaUpdatesTopic, a.logger)
	a.closers = append(a.closers, forwarder.Close)

	a.logger.Info("Пересылка обновлений в Kafka включена",
		"topic", a.cfg.KafkaUpdatesTopic,
	)

	return telegram.Handlers{router, forwarder}
}

// startBackground запускает сервер метрик и проверку доступности Bot API.
// Оба останавливаются при отмене ctx.
func (a *app) startBackground(ctx context.Context) {
	probe := scheduler.NewScheduler(a.client, a.cfg.HealthCheckInterval, a.logger)
	probe.Start()

	metricsServer := metrics.NewMetricsServer(a.cfg.MetricsPort, probe.Healthy, a.logger)

	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			a.logger.Error("Ошибка сервера метрик", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		probe.Stop()
	}()
}

func (a *app) setupCommands(ctx context.Context) {
	if _, err := a.client.SetMyCommands(ctx, botCommands); err != nil {
		a.logger.Error("Ошибка при регистрации команд бота",
			"error", err,
		)

		return
	}

	a.logger.Info("Команды бота успешно зарегистрированы")
}

func (a *app) Close() error {
	var err error

	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}

	if err != nil {
		a.logger.Error("Ошибка при освобождении ресурсов", "error", err)
	}

	return err
}

// watchSignals: первый SIGINT/SIGTERM запускает плавную остановку, второй
// отменяет ctx и прерывает текущие запросы.
func watchSignals(ctx context.Context, shutdown *telegram.Shutdown, cancel context.CancelFunc, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("Получен системный сигнал, плавная остановка",
				"signal", sig.String(),
			)
			shutdown.Signal()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("Повторный сигнал, принудительная остановка",
				"signal", sig.String(),
			)
			cancel()
		case <-ctx.Done():
		}
	}()
}
