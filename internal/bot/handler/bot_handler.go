package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/central-university-dev/go-tgbot/internal/botapi"
)

type BotAPI interface {
	SendMessage(ctx context.Context, call botapi.SendMessage) (tgbotapi.Message, error)
	SendDice(ctx context.Context, call botapi.SendDice) (tgbotapi.Message, error)
	SendChatAction(ctx context.Context, call botapi.SendChatAction) (bool, error)
	AnswerCallbackQuery(ctx context.Context, call botapi.AnswerCallbackQuery) (bool, error)
}

type FileOpener interface {
	Open(ctx context.Context, fileID string) (io.ReadCloser, tgbotapi.File, error)
}

const (
	startText = "Привет! Я бот на Telegram Bot API. Введите /help для просмотра доступных команд."
	helpText  = `Доступные команды:
/start - приветствие
/help - список команд
/dice - бросить кубик

Пришлите документ или фото, и я скажу, сколько байт в нем.`
	idleText           = "Введите команду или /help для просмотра доступных команд."
	unknownCommandText = "Неизвестная команда. Введите /help для просмотра доступных команд."
	callbackText       = "Принято"
)

type BotHandler struct {
	api    BotAPI
	files  FileOpener
	logger *slog.Logger
}

// NewBotHandler собирает роутер с командами бота. files может быть nil,
// тогда входящие файлы не скачиваются.
func NewBotHandler(api BotAPI, files FileOpener, logger *slog.Logger) *Router {
	h := &BotHandler{
		api:    api,
		files:  files,
		logger: logger,
	}

	return NewRouter(logger).
		Command("start", h.handleStart).
		Command("help", h.handleHelp).
		Command("dice", h.handleDice).
		Message(h.handleMessage).
		EditedMessage(h.handleEdited).
		CallbackQuery(h.handleCallback)
}

func (h *BotHandler) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	return h.reply(ctx, msg, startText)
}

func (h *BotHandler) handleHelp(ctx context.Context, msg *tgbotapi.Message) error {
	return h.reply(ctx, msg, helpText)
}

func (h *BotHandler) handleDice(ctx context.Context, msg *tgbotapi.Message) error {
	emoji := msg.CommandArguments()
	if emoji == "" {
		emoji = "🎲"
	}

	if _, err := h.api.SendDice(ctx, botapi.SendDice{ChatID: msg.Chat.ID, Emoji: emoji}); err != nil {
		return errors.Wrap(err, "sendDice")
	}

	return nil
}

func (h *BotHandler) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.IsCommand() {
		return h.reply(ctx, msg, unknownCommandText)
	}

	if fileID, name, ok := attachedFile(msg); ok && h.files != nil {
		return h.handleFile(ctx, msg, fileID, name)
	}

	return h.reply(ctx, msg, idleText)
}

func (h *BotHandler) handleEdited(_ context.Context, msg *tgbotapi.Message) error {
	h.logger.Debug("Сообщение отредактировано",
		"chat_id", msg.Chat.ID,
		"message_id", msg.MessageID,
	)

	return nil
}

func (h *BotHandler) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if _, err := h.api.AnswerCallbackQuery(ctx, botapi.AnswerCallbackQuery{
		CallbackQueryID: query.ID,
		Text:            callbackText,
	}); err != nil {
		return errors.Wrap(err, "answerCallbackQuery")
	}

	return nil
}

func (h *BotHandler) handleFile(ctx context.Context, msg *tgbotapi.Message, fileID, name string) error {
	if _, err := h.api.SendChatAction(ctx, botapi.SendChatAction{
		ChatID: msg.Chat.ID,
		Action: tgbotapi.ChatTyping,
	}); err != nil {
		h.logger.Warn("Не удалось отправить статус набора",
			"error", err,
			"chat_id", msg.Chat.ID,
		)
	}

	body, _, err := h.files.Open(ctx, fileID)
	if err != nil {
		return errors.Wrap(err, "открытие файла")
	}
	defer body.Close()

	size, err := io.Copy(io.Discard, body)
	if err != nil {
		return errors.Wrap(err, "чтение файла")
	}

	h.logger.Info("Файл получен",
		"chat_id", msg.Chat.ID,
		"file_id", fileID,
		"size", size,
	)

	return h.reply(ctx, msg, fmt.Sprintf("Файл %s получен, размер: %d байт", name, size))
}

func (h *BotHandler) reply(ctx context.Context, msg *tgbotapi.Message, text string) error {
	if _, err := h.api.SendMessage(ctx, botapi.SendMessage{
		ChatID:           msg.Chat.ID,
		Text:             text,
		ReplyToMessageID: msg.MessageID,
	}); err != nil {
		return errors.Wrap(err, "sendMessage")
	}

	return nil
}

// attachedFile выбирает документ или самое большое фото сообщения.
func attachedFile(msg *tgbotapi.Message) (fileID, name string, ok bool) {
	switch {
	case msg.Document != nil:
		name = msg.Document.FileName
		if name == "" {
			name = "без имени"
		}

		return msg.Document.FileID, name, true
	case len(msg.Photo) > 0:
		return msg.Photo[len(msg.Photo)-1].FileID, "фото", true
	default:
		return "", "", false
	}
}
