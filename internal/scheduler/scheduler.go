package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/central-university-dev/go-tgbot/internal/common/metrics"
)

type BotProbe interface {
	GetMe(ctx context.Context) (tgbotapi.User, error)
}

// Scheduler периодически вызывает getMe и хранит результат последней проверки.
type Scheduler struct {
	scheduler *gocron.Scheduler
	probe     BotProbe
	logger    *slog.Logger
	interval  time.Duration
	timeout   time.Duration
	healthy   atomic.Bool
}

func NewScheduler(probe BotProbe, interval time.Duration, logger *slog.Logger) *Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	timeout := 10 * time.Second
	if interval < timeout {
		timeout = interval
	}

	return &Scheduler{
		scheduler: scheduler,
		probe:     probe,
		logger:    logger,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start запускает проверку сразу и затем каждые interval.
func (s *Scheduler) Start() {
	s.logger.Info("Запуск планировщика проверки доступности",
		"interval", s.interval.String(),
	)

	_, err := s.scheduler.Every(s.interval).Do(s.check)
	if err != nil {
		s.logger.Error("Ошибка при настройке планировщика",
			"error", err,
		)

		return
	}

	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.logger.Info("Остановка планировщика")
	s.scheduler.Stop()
}

func (s *Scheduler) Healthy() bool {
	return s.healthy.Load()
}

func (s *Scheduler) check() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	user, err := s.probe.GetMe(ctx)
	if err != nil {
		s.setHealthy(false)
		s.logger.Error("Bot API недоступен",
			"error", err,
		)

		return
	}

	if !s.healthy.Load() {
		s.logger.Info("Bot API доступен",
			"bot", user.UserName,
			"bot_id", user.ID,
		)
	}

	s.setHealthy(true)
}

func (s *Scheduler) setHealthy(ok bool) {
	s.healthy.Store(ok)
	metrics.SetBotUp(ok)
}
