package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/segmentio/kafka-go"

	"github.com/central-university-dev/go-tgbot/internal/common/metrics"
	"github.com/central-university-dev/go-tgbot/internal/telegram"
)

const (
	headerUpdateType = "update_type"
	headerUpdateID   = "update_id"
	headerError      = "error"
	headerTimestamp  = "timestamp"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Forwarder публикует обновления в топик. Ключ сообщения - id чата, поэтому
// обновления одного чата попадают в одну партицию и читаются по порядку.
type Forwarder struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
}

func NewForwarder(brokers []string, topic string, logger *slog.Logger) *Forwarder {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	return NewForwarderWithWriter(writer, topic, logger)
}

func NewForwarderWithWriter(writer MessageWriter, topic string, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		writer: writer,
		topic:  topic,
		logger: logger,
	}
}

func (f *Forwarder) Handle(ctx context.Context, update tgbotapi.Update) error {
	value, err := json.Marshal(update)
	if err != nil {
		metrics.RecordForwarded("error")
		return fmt.Errorf("ошибка при сериализации обновления: %w", err)
	}

	updateType := telegram.UpdateType(update)

	err = f.writer.WriteMessages(ctx, kafka.Message{
		Key:   updateKey(update),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerUpdateType, Value: []byte(updateType)},
			{Key: headerUpdateID, Value: []byte(strconv.Itoa(update.UpdateID))},
		},
		Time: time.Now(),
	})
	if err != nil {
		metrics.RecordForwarded("error")
		f.logger.Error("Ошибка при отправке обновления в Kafka",
			"error", err,
			"update_id", update.UpdateID,
			"topic", f.topic,
		)

		return fmt.Errorf("ошибка при отправке обновления в Kafka: %w", err)
	}

	metrics.RecordForwarded("ok")
	f.logger.Debug("Обновление отправлено в Kafka",
		"update_id", update.UpdateID,
		"update_type", updateType,
	)

	return nil
}

func (f *Forwarder) Close() error {
	return f.writer.Close()
}

// updateKey использует id чата, а для обновлений без чата - id отправителя.
func updateKey(update tgbotapi.Update) []byte {
	// FromChat разыменовывает CallbackQuery.Message, которого нет у inline-кнопок.
	inlineCallback := update.CallbackQuery != nil && update.CallbackQuery.Message == nil

	if !inlineCallback {
		if chat := update.FromChat(); chat != nil {
			return []byte(strconv.FormatInt(chat.ID, 10))
		}
	}

	if user := update.SentFrom(); user != nil {
		return []byte(strconv.FormatInt(user.ID, 10))
	}

	return []byte(strconv.Itoa(update.UpdateID))
}
