package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"

	"github.com/central-university-dev/go-tgbot/internal/common/metrics"
	"github.com/central-university-dev/go-tgbot/internal/telegram"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var errEmptyUpdate = errors.New("в сообщении нет update_id")

// Consumer читает обновления, опубликованные Forwarder, и передает их
// обработчику. Сообщение коммитится после обработки; нечитаемые сообщения
// и сообщения, обработка которых завершилась паникой, уходят в DLQ.
type Consumer struct {
	reader    MessageReader
	dlqWriter MessageWriter
	handler   telegram.Handler
	logger    *slog.Logger
	topic     string
	dlqTopic  string
	sleep     telegram.SleepFunc
}

const (
	fetchInitialBackoff = 500 * time.Millisecond
	fetchMaxBackoff     = 30 * time.Second
)

func NewConsumer(
	brokers []string,
	groupID string,
	topic string,
	dlqTopic string,
	handler telegram.Handler,
	logger *slog.Logger,
) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
		Logger:         kafka.LoggerFunc(logger.Debug),
		ErrorLogger:    kafka.LoggerFunc(logger.Error),
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        dlqTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	return NewConsumerWithIO(reader, dlqWriter, topic, dlqTopic, handler, logger)
}

func NewConsumerWithIO(
	reader MessageReader,
	dlqWriter MessageWriter,
	topic string,
	dlqTopic string,
	handler telegram.Handler,
	logger *slog.Logger,
) *Consumer {
	return &Consumer{
		reader:    reader,
		dlqWriter: dlqWriter,
		handler:   handler,
		logger:    logger,
		topic:     topic,
		dlqTopic:  dlqTopic,
		sleep:     wait,
	}
}

func (c *Consumer) SetSleepFunc(fn telegram.SleepFunc) {
	c.sleep = fn
}

func newFetchBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = fetchInitialBackoff
	bo.MaxInterval = fetchMaxBackoff
	bo.MaxElapsedTime = 0
	bo.Reset()

	return bo
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run блокируется до отмены ctx или сигнала shutdown. Начатое сообщение
// обрабатывается до конца.
func (c *Consumer) Run(ctx context.Context, shutdown *telegram.Shutdown) error {
	c.logger.Info("Запуск потребления обновлений из Kafka",
		"topic", c.topic,
	)

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-shutdown.Done():
			cancel()
		case <-fetchCtx.Done():
		}
	}()

	bo := newFetchBackOff()

	for {
		msg, err := c.reader.FetchMessage(fetchCtx)
		if err != nil {
			if shutdown.Signaled() {
				c.logger.Info("Остановка потребления обновлений из Kafka")
				return nil
			}

			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			delay := bo.NextBackOff()

			c.logger.Error("Ошибка при чтении сообщения из Kafka",
				"error", err,
				"delay", delay,
			)

			// Ошибка ожидания означает отмену fetchCtx, ее разбирает следующая итерация.
			_ = c.sleep(fetchCtx, delay)

			continue
		}

		bo.Reset()

		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("Ошибка при обработке сообщения",
				"error", err,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Ошибка при коммите сообщения",
				"error", err,
				"offset", msg.Offset,
			)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var update tgbotapi.Update

	if err := json.Unmarshal(msg.Value, &update); err != nil {
		return c.deadLetter(ctx, msg, fmt.Errorf("ошибка при десериализации сообщения: %w", err))
	}

	if update.UpdateID == 0 {
		return c.deadLetter(ctx, msg, errEmptyUpdate)
	}

	updateType := telegram.UpdateType(update)
	metrics.RecordUpdate(updateType)

	err := telegram.Dispatch(ctx, c.handler, update)
	if err == nil {
		metrics.RecordHandled("ok")
		return nil
	}

	metrics.RecordHandled("error")

	var panicErr *telegram.PanicError
	if errors.As(err, &panicErr) {
		return c.deadLetter(ctx, msg, err)
	}

	return fmt.Errorf("ошибка при обработке обновления %d: %w", update.UpdateID, err)
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) error {
	if err := c.sendToDLQ(ctx, msg.Value, cause.Error()); err != nil {
		return multierr.Append(cause, err)
	}

	return cause
}

func (c *Consumer) sendToDLQ(ctx context.Context, message []byte, errMsg string) error {
	c.logger.Info("Отправка сообщения в DLQ",
		"error", errMsg,
		"topic", c.dlqTopic,
	)

	err := c.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte("error"),
		Value: message,
		Headers: []kafka.Header{
			{Key: headerError, Value: []byte(errMsg)},
			{Key: headerTimestamp, Value: []byte(time.Now().Format(time.RFC3339))},
		},
		Time: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("ошибка при отправке сообщения в DLQ: %w", err)
	}

	return nil
}

func (c *Consumer) Close() error {
	return multierr.Append(c.reader.Close(), c.dlqWriter.Close())
}
