package telegram

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/central-university-dev/go-tgbot/internal/botapi"
	"github.com/central-university-dev/go-tgbot/internal/common/metrics"
	"github.com/central-university-dev/go-tgbot/internal/config"
	apierrors "github.com/central-university-dev/go-tgbot/internal/domain/errors"
)

var ErrAlreadyRunning = errors.New("поллер уже запущен")

const (
	DefaultLimit      = 100
	DefaultMaxBackoff = 30 * time.Second

	initialBackoff = 500 * time.Millisecond
)

type UpdatesClient interface {
	GetUpdates(ctx context.Context, call botapi.GetUpdates) ([]tgbotapi.Update, error)
}

type Options struct {
	Limit          int
	Timeout        int
	AllowedUpdates []string
	Offset         int
	MaxBackoff     time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Limit:          cfg.PollLimit,
		Timeout:        cfg.PollTimeout,
		AllowedUpdates: cfg.PollAllowedUpdates,
		Offset:         cfg.PollOffset,
		MaxBackoff:     cfg.PollMaxBackoff,
	}
}

// SleepFunc ждет d и возвращает ошибку, только если отменен контекст.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Poller получает обновления через getUpdates и по одному передает их
// обработчику. Offset меняет только цикл Run.
type Poller struct {
	client   UpdatesClient
	handler  Handler
	logger   *slog.Logger
	shutdown *Shutdown

	limit          int
	timeout        int
	allowedUpdates []string
	maxBackoff     time.Duration

	offset  int
	running atomic.Bool
	sleep   SleepFunc
}

func NewPoller(client UpdatesClient, handler Handler, opts Options, logger *slog.Logger) *Poller {
	if opts.Limit < 1 || opts.Limit > 100 {
		opts.Limit = DefaultLimit
	}

	if opts.Timeout < 0 {
		opts.Timeout = 0
	}

	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = DefaultMaxBackoff
	}

	p := &Poller{
		client:         client,
		handler:        handler,
		logger:         logger,
		shutdown:       NewShutdown(),
		limit:          opts.Limit,
		timeout:        opts.Timeout,
		allowedUpdates: append([]string(nil), opts.AllowedUpdates...),
		maxBackoff:     opts.MaxBackoff,
		offset:         opts.Offset,
	}

	p.sleep = p.wait

	return p
}

// Shutdown возвращает сигнал остановки, который можно передать другим компонентам.
func (p *Poller) Shutdown() *Shutdown {
	return p.shutdown
}

func (p *Poller) Stop() {
	p.shutdown.Signal()
}

// Offset можно читать только после завершения Run.
func (p *Poller) Offset() int {
	return p.offset
}

func (p *Poller) SetSleepFunc(fn SleepFunc) {
	p.sleep = fn
}

// Run работает до сигнала остановки (возвращает nil), фатальной ошибки или
// отмены ctx (возвращает ctx.Err()). Сигнал остановки проверяется между
// пачками обновлений: начатый запрос и обработка пачки всегда завершаются.
func (p *Poller) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.running.Store(false)

	p.logger.Info("Запуск long polling",
		"offset", p.offset,
		"limit", p.limit,
		"timeout", p.timeout,
		"allowed_updates", p.allowedUpdates,
	)

	bo := p.newBackOff()

	for {
		if p.shutdown.Signaled() {
			p.logger.Info("Long polling остановлен", "offset", p.offset)
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.client.GetUpdates(ctx, botapi.GetUpdates{
			Offset:         p.offset,
			Limit:          p.limit,
			Timeout:        p.timeout,
			AllowedUpdates: p.allowedUpdates,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if apierrors.IsFatal(err) {
				metrics.RecordPollError("fatal")
				p.logger.Error("Фатальная ошибка при получении обновлений", "error", err)

				return err
			}

			delay := p.retryDelay(err, bo)

			p.logger.Warn("Ошибка при получении обновлений, повтор",
				"error", err,
				"offset", p.offset,
				"delay", delay,
			)

			if err := p.sleep(ctx, delay); err != nil {
				return err
			}

			continue
		}

		bo.Reset()
		p.dispatch(ctx, updates)
	}
}

func (p *Poller) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = min(initialBackoff, p.maxBackoff)
	bo.MaxInterval = p.maxBackoff
	bo.MaxElapsedTime = 0
	bo.Reset()

	return bo
}

// retryDelay соблюдает retry_after сервера как минимальную задержку.
func (p *Poller) retryDelay(err error, bo backoff.BackOff) time.Duration {
	if delay, ok := apierrors.RetryAfter(err); ok {
		metrics.RecordPollError("retry_after")
		return delay
	}

	metrics.RecordPollError(errorKind(err))

	delay := bo.NextBackOff()
	if delay == backoff.Stop {
		delay = p.maxBackoff
	}

	return delay
}

func errorKind(err error) string {
	var (
		transportErr *apierrors.TransportError
		decodeErr    *apierrors.DecodeError
		tgErr        *apierrors.TelegramError
	)

	switch {
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &tgErr):
		return "telegram"
	default:
		return "unknown"
	}
}

func (p *Poller) dispatch(ctx context.Context, updates []tgbotapi.Update) {
	if len(updates) == 0 {
		return
	}

	slices.SortStableFunc(updates, func(a, b tgbotapi.Update) int {
		return cmp.Compare(a.UpdateID, b.UpdateID)
	})

	for _, update := range updates {
		updateType := UpdateType(update)
		metrics.RecordUpdate(updateType)

		if err := Dispatch(ctx, p.handler, update); err != nil {
			metrics.RecordHandled("error")
			p.logger.Error("Ошибка при обработке обновления",
				"error", err,
				"update_id", update.UpdateID,
				"update_type", updateType,
			)

			continue
		}

		metrics.RecordHandled("ok")
	}

	if next := updates[len(updates)-1].UpdateID + 1; next > p.offset {
		p.offset = next
		metrics.SetPollOffset(next)
	}
}

// wait прерывается сигналом остановки, чтобы Run не ждал весь backoff.
func (p *Poller) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-p.shutdown.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
