package botapi

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type GetMe struct{}

func (GetMe) Payload() *Payload {
	return NewEmptyPayload("getMe")
}

// GetUpdates - пустой AllowedUpdates означает набор типов по умолчанию на сервере.
type GetUpdates struct {
	Offset         int      `json:"offset,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	Timeout        int      `json:"timeout,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

func (c GetUpdates) Payload() *Payload {
	return NewJSONPayload("getUpdates", c)
}

func (c GetUpdates) LongPollTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

type SendMessage struct {
	ChatID                int64  `json:"chat_id"`
	MessageThreadID       int    `json:"message_thread_id,omitempty"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
	DisableNotification   bool   `json:"disable_notification,omitempty"`
	ReplyToMessageID      int    `json:"reply_to_message_id,omitempty"`
	ReplyMarkup           any    `json:"reply_markup,omitempty"`
}

func (c SendMessage) Payload() *Payload {
	return NewJSONPayload("sendMessage", c)
}

type EditMessageText struct {
	ChatID          int64  `json:"chat_id,omitempty"`
	MessageID       int    `json:"message_id,omitempty"`
	InlineMessageID string `json:"inline_message_id,omitempty"`
	Text            string `json:"text"`
	ParseMode       string `json:"parse_mode,omitempty"`
	ReplyMarkup     any    `json:"reply_markup,omitempty"`
}

func (c EditMessageText) Payload() *Payload {
	return NewJSONPayload("editMessageText", c)
}

type DeleteMessage struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

func (c DeleteMessage) Payload() *Payload {
	return NewJSONPayload("deleteMessage", c)
}

type SendChatAction struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}

func (c SendChatAction) Payload() *Payload {
	return NewJSONPayload("sendChatAction", c)
}

type SendDice struct {
	ChatID              int64  `json:"chat_id"`
	Emoji               string `json:"emoji,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
	ReplyToMessageID    int    `json:"reply_to_message_id,omitempty"`
}

func (c SendDice) Payload() *Payload {
	return NewJSONPayload("sendDice", c)
}

type AnswerCallbackQuery struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
	URL             string `json:"url,omitempty"`
	CacheTime       int    `json:"cache_time,omitempty"`
}

func (c AnswerCallbackQuery) Payload() *Payload {
	return NewJSONPayload("answerCallbackQuery", c)
}

type GetFile struct {
	FileID string `json:"file_id"`
}

func (c GetFile) Payload() *Payload {
	return NewJSONPayload("getFile", c)
}

// SetWebhook отправляется формой, если задан сертификат.
type SetWebhook struct {
	URL                string    `json:"url"`
	Certificate        InputFile `json:"-"`
	IPAddress          string    `json:"ip_address,omitempty"`
	MaxConnections     int       `json:"max_connections,omitempty"`
	AllowedUpdates     []string  `json:"allowed_updates,omitempty"`
	DropPendingUpdates bool      `json:"drop_pending_updates,omitempty"`
	SecretToken        string    `json:"secret_token,omitempty"`
}

func (c SetWebhook) Payload() *Payload {
	if c.Certificate == nil {
		return NewJSONPayload("setWebhook", c)
	}

	form := NewForm().
		InsertText("url", c.URL).
		InsertFile("certificate", c.Certificate)

	insertOptional(form, "ip_address", c.IPAddress)
	insertOptional(form, "max_connections", c.MaxConnections)
	insertOptional(form, "allowed_updates", c.AllowedUpdates)
	insertOptional(form, "drop_pending_updates", c.DropPendingUpdates)
	insertOptional(form, "secret_token", c.SecretToken)

	return NewFormPayload("setWebhook", form)
}

type DeleteWebhook struct {
	DropPendingUpdates bool `json:"drop_pending_updates,omitempty"`
}

func (c DeleteWebhook) Payload() *Payload {
	return NewJSONPayload("deleteWebhook", c)
}

type GetWebhookInfo struct{}

func (GetWebhookInfo) Payload() *Payload {
	return NewEmptyPayload("getWebhookInfo")
}

type SetMyCommands struct {
	Commands []tgbotapi.BotCommand `json:"commands"`
}

func (c SetMyCommands) Payload() *Payload {
	return NewJSONPayload("setMyCommands", c)
}

type SendDocument struct {
	ChatID              int64
	Document            InputFile
	Thumbnail           InputFile
	Caption             string
	ParseMode           string
	DisableNotification bool
	ReplyToMessageID    int
	ReplyMarkup         any
}

func (c SendDocument) Payload() *Payload {
	form := NewForm().
		InsertText("chat_id", c.ChatID).
		InsertFile("document", c.Document)

	if c.Thumbnail != nil {
		form.InsertFile("thumbnail", c.Thumbnail)
	}

	insertCaption(form, c.Caption, c.ParseMode)
	insertOptional(form, "disable_notification", c.DisableNotification)
	insertOptional(form, "reply_to_message_id", c.ReplyToMessageID)
	insertOptional(form, "reply_markup", c.ReplyMarkup)

	return NewFormPayload("sendDocument", form)
}

type SendPhoto struct {
	ChatID              int64
	Photo               InputFile
	Caption             string
	ParseMode           string
	DisableNotification bool
	ReplyToMessageID    int
	ReplyMarkup         any
}

func (c SendPhoto) Payload() *Payload {
	form := NewForm().
		InsertText("chat_id", c.ChatID).
		InsertFile("photo", c.Photo)

	insertCaption(form, c.Caption, c.ParseMode)
	insertOptional(form, "disable_notification", c.DisableNotification)
	insertOptional(form, "reply_to_message_id", c.ReplyToMessageID)
	insertOptional(form, "reply_markup", c.ReplyMarkup)

	return NewFormPayload("sendPhoto", form)
}

type InputMedia struct {
	Type      string
	Media     InputFile
	Caption   string
	ParseMode string
}

func NewInputMediaPhoto(media InputFile) InputMedia {
	return InputMedia{Type: "photo", Media: media}
}

func NewInputMediaDocument(media InputFile) InputMedia {
	return InputMedia{Type: "document", Media: media}
}

type inputMediaJSON struct {
	Type      string `json:"type"`
	Media     string `json:"media"`
	Caption   string `json:"caption,omitempty"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// SendMediaGroup загружаемые файлы передает отдельными частями формы и
// ссылается на них через attach://.
type SendMediaGroup struct {
	ChatID              int64
	Media               []InputMedia
	DisableNotification bool
	ReplyToMessageID    int
}

func (c SendMediaGroup) Payload() *Payload {
	form := NewForm().InsertText("chat_id", c.ChatID)
	media := make([]inputMediaJSON, 0, len(c.Media))

	for i, item := range c.Media {
		ref := inputMediaJSON{Type: item.Type, Caption: item.Caption, ParseMode: item.ParseMode}

		switch {
		case item.Media == nil:
		case item.Media.NeedsUpload():
			name := "media-" + strconv.Itoa(i)
			ref.Media = "attach://" + name

			form.InsertFile(name, item.Media)
		default:
			ref.Media = item.Media.SendData()
		}

		media = append(media, ref)
	}

	form.InsertText("media", media)
	insertOptional(form, "disable_notification", c.DisableNotification)
	insertOptional(form, "reply_to_message_id", c.ReplyToMessageID)

	return NewFormPayload("sendMediaGroup", form)
}

func insertCaption(form *Form, caption, parseMode string) {
	insertOptional(form, "caption", caption)
	insertOptional(form, "parse_mode", parseMode)
}

// insertOptional пропускает нулевые значения, как omitempty в JSON вызовах.
func insertOptional(form *Form, name string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case string:
		if v == "" {
			return
		}
	case int:
		if v == 0 {
			return
		}
	case bool:
		if !v {
			return
		}
	case []string:
		if len(v) == 0 {
			return
		}
	}

	form.InsertText(name, value)
}

func (c *Client) GetMe(ctx context.Context) (tgbotapi.User, error) {
	return Do[tgbotapi.User](ctx, c, GetMe{})
}

func (c *Client) GetUpdates(ctx context.Context, call GetUpdates) ([]tgbotapi.Update, error) {
	return Do[[]tgbotapi.Update](ctx, c, call)
}

func (c *Client) SendMessage(ctx context.Context, call SendMessage) (tgbotapi.Message, error) {
	return Do[tgbotapi.Message](ctx, c, call)
}

func (c *Client) EditMessageText(ctx context.Context, call EditMessageText) (tgbotapi.Message, error) {
	return Do[tgbotapi.Message](ctx, c, call)
}

func (c *Client) DeleteMessage(ctx context.Context, call DeleteMessage) (bool, error) {
	return Do[bool](ctx, c, call)
}

func (c *Client) SendChatAction(ctx context.Context, call SendChatAction) (bool, error) {
	return Do[bool](ctx, c, call)
}

func (c *Client) SendDice(ctx context.Context, call SendDice) (tgbotapi.Message, error) {
	return Do[tgbotapi.Message](ctx, c, call)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, call AnswerCallbackQuery) (bool, error) {
	return Do[bool](ctx, c, call)
}

func (c *Client) GetFile(ctx context.Context, fileID string) (tgbotapi.File, error) {
	return Do[tgbotapi.File](ctx, c, GetFile{FileID: fileID})
}

func (c *Client) SetWebhook(ctx context.Context, call SetWebhook) (bool, error) {
	return Do[bool](ctx, c, call)
}

func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) (bool, error) {
	return Do[bool](ctx, c, DeleteWebhook{DropPendingUpdates: dropPending})
}

func (c *Client) GetWebhookInfo(ctx context.Context) (tgbotapi.WebhookInfo, error) {
	return Do[tgbotapi.WebhookInfo](ctx, c, GetWebhookInfo{})
}

func (c *Client) SetMyCommands(ctx context.Context, commands []tgbotapi.BotCommand) (bool, error) {
	return Do[bool](ctx, c, SetMyCommands{Commands: commands})
}

func (c *Client) SendDocument(ctx context.Context, call SendDocument) (tgbotapi.Message, error) {
	return Do[tgbotapi.Message](ctx, c, call)
}

func (c *Client) SendPhoto(ctx context.Context, call SendPhoto) (tgbotapi.Message, error) {
	return Do[tgbotapi.Message](ctx, c, call)
}

func (c *Client) SendMediaGroup(ctx context.Context, call SendMediaGroup) ([]tgbotapi.Message, error) {
	return Do[[]tgbotapi.Message](ctx, c, call)
}
