package telegram

import (
	"context"
	"fmt"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/multierr"
)

// Handler обрабатывает одно обновление и возвращается, только когда обработка
// завершена. Одна и та же реализация используется для long polling и webhook.
type Handler interface {
	Handle(ctx context.Context, update tgbotapi.Update) error
}

type HandlerFunc func(ctx context.Context, update tgbotapi.Update) error

func (f HandlerFunc) Handle(ctx context.Context, update tgbotapi.Update) error {
	return f(ctx, update)
}

// Handlers вызывает все обработчики по порядку и объединяет их ошибки.
type Handlers []Handler

func (hs Handlers) Handle(ctx context.Context, update tgbotapi.Update) error {
	var err error

	for _, h := range hs {
		err = multierr.Append(err, Dispatch(ctx, h, update))
	}

	return err
}

type PanicError struct {
	UpdateID int
	Value    any
	Stack    []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("паника при обработке обновления %d: %v", e.UpdateID, e.Value)
}

// Dispatch вызывает обработчик и превращает панику в *PanicError.
func Dispatch(ctx context.Context, h Handler, update tgbotapi.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{UpdateID: update.UpdateID, Value: r, Stack: debug.Stack()}
		}
	}()

	return h.Handle(ctx, update)
}

func UpdateType(update tgbotapi.Update) string {
	switch {
	case update.Message != nil:
		return "message"
	case update.EditedMessage != nil:
		return "edited_message"
	case update.ChannelPost != nil:
		return "channel_post"
	case update.EditedChannelPost != nil:
		return "edited_channel_post"
	case update.InlineQuery != nil:
		return "inline_query"
	case update.ChosenInlineResult != nil:
		return "chosen_inline_result"
	case update.CallbackQuery != nil:
		return "callback_query"
	case update.ShippingQuery != nil:
		return "shipping_query"
	case update.PreCheckoutQuery != nil:
		return "pre_checkout_query"
	case update.Poll != nil:
		return "poll"
	case update.PollAnswer != nil:
		return "poll_answer"
	case update.MyChatMember != nil:
		return "my_chat_member"
	case update.ChatMember != nil:
		return "chat_member"
	case update.ChatJoinRequest != nil:
		return "chat_join_request"
	default:
		return "unknown"
	}
}
