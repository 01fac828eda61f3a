package handler

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/central-university-dev/go-tgbot/internal/telegram"
)

type MessageFunc func(ctx context.Context, msg *tgbotapi.Message) error

type CallbackFunc func(ctx context.Context, query *tgbotapi.CallbackQuery) error

// Router выбирает обработчик по виду обновления. Команды без зарегистрированного
// обработчика уходят в обработчик обычных сообщений.
type Router struct {
	commands map[string]MessageFunc
	message  MessageFunc
	edited   MessageFunc
	callback CallbackFunc
	fallback telegram.HandlerFunc
	logger   *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		commands: make(map[string]MessageFunc),
		logger:   logger,
	}
}

// Command регистрирует обработчик команды. Имя указывается без "/".
func (r *Router) Command(name string, fn MessageFunc) *Router {
	r.commands[strings.ToLower(strings.TrimPrefix(name, "/"))] = fn
	return r
}

func (r *Router) Message(fn MessageFunc) *Router {
	r.message = fn
	return r
}

func (r *Router) EditedMessage(fn MessageFunc) *Router {
	r.edited = fn
	return r
}

func (r *Router) CallbackQuery(fn CallbackFunc) *Router {
	r.callback = fn
	return r
}

func (r *Router) Default(fn telegram.HandlerFunc) *Router {
	r.fallback = fn
	return r
}

func (r *Router) Handle(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.Message != nil:
		if fn := r.commandFor(update.Message); fn != nil {
			return fn(ctx, update.Message)
		}

		if r.message != nil {
			return r.message(ctx, update.Message)
		}
	case update.EditedMessage != nil && r.edited != nil:
		return r.edited(ctx, update.EditedMessage)
	case update.CallbackQuery != nil && r.callback != nil:
		return r.callback(ctx, update.CallbackQuery)
	}

	if r.fallback != nil {
		return r.fallback(ctx, update)
	}

	r.logger.Debug("Обновление пропущено",
		"update_id", update.UpdateID,
		"update_type", telegram.UpdateType(update),
	)

	return nil
}

func (r *Router) commandFor(msg *tgbotapi.Message) MessageFunc {
	if !msg.IsCommand() {
		return nil
	}

	return r.commands[strings.ToLower(msg.Command())]
}
