package errors

import (
	"fmt"
	"net/http"
	"time"

	goerrors "github.com/go-faster/errors"
)

// PayloadError возникает, когда тело запроса не удалось собрать:
// значение не сериализуется в JSON или файл для multipart не открывается.
type PayloadError struct {
	Method string
	Kind   string
	Cause  error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("ошибка при формировании запроса %s (%s): %v", e.Method, e.Kind, e.Cause)
}

func (e *PayloadError) Unwrap() error {
	return e.Cause
}

func (e *PayloadError) Is(target error) bool {
	_, ok := target.(*PayloadError)
	return ok
}

type FormError struct {
	Field string
	Cause error
}

func (e *FormError) Error() string {
	return fmt.Sprintf("ошибка в поле формы %q: %v", e.Field, e.Cause)
}

func (e *FormError) Unwrap() error {
	return e.Cause
}

// TransportError - сетевая ошибка, TLS, таймаут или открытый circuit breaker.
type TransportError struct {
	Method string
	Cause  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ошибка транспорта при вызове %s: %v", e.Method, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

func (e *TransportError) Is(target error) bool {
	_, ok := target.(*TransportError)
	return ok
}

type DecodeError struct {
	Method     string
	StatusCode int
	Body       string
	Cause      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ошибка при разборе ответа %s (HTTP %d): %v", e.Method, e.StatusCode, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

func (e *DecodeError) Is(target error) bool {
	_, ok := target.(*DecodeError)
	return ok
}

// TelegramError - ответ {"ok": false}. RetryAfter и MigrateToChatID равны нулю, если сервер их не передал.
type TelegramError struct {
	Method          string
	Description     string
	ErrorCode       int
	RetryAfter      int
	MigrateToChatID int64
}

func (e *TelegramError) Error() string {
	msg := fmt.Sprintf("telegram API %s: %d %s", e.Method, e.ErrorCode, e.Description)

	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (повтор через %d с)", e.RetryAfter)
	}

	if e.MigrateToChatID != 0 {
		msg += fmt.Sprintf(" (чат перенесен в %d)", e.MigrateToChatID)
	}

	return msg
}

func (e *TelegramError) Is(target error) bool {
	t, ok := target.(*TelegramError)
	if !ok {
		return false
	}

	return t.ErrorCode == 0 || t.ErrorCode == e.ErrorCode
}

type DownloadError struct {
	Path       string
	StatusCode int
	Text       string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("ошибка при скачивании файла %s: HTTP %d: %s", e.Path, e.StatusCode, e.Text)
}

func (e *DownloadError) Is(target error) bool {
	_, ok := target.(*DownloadError)
	return ok
}

type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("некорректная конфигурация %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

// RetryAfter возвращает минимальную задержку, которую потребовал сервер.
func RetryAfter(err error) (time.Duration, bool) {
	var tgErr *TelegramError
	if !goerrors.As(err, &tgErr) || tgErr.RetryAfter <= 0 {
		return 0, false
	}

	return time.Duration(tgErr.RetryAfter) * time.Second, true
}

// IsFatal сообщает, что повтор запроса не имеет смысла: токен непригоден
// или запрос невозможно собрать.
func IsFatal(err error) bool {
	var (
		cfgErr     *ConfigError
		payloadErr *PayloadError
		tgErr      *TelegramError
	)

	switch {
	case goerrors.As(err, &cfgErr), goerrors.As(err, &payloadErr):
		return true
	case goerrors.As(err, &tgErr):
		return tgErr.ErrorCode == http.StatusUnauthorized || tgErr.ErrorCode == http.StatusNotFound
	default:
		return false
	}
}

func IsRetryable(err error) bool {
	if err == nil || IsFatal(err) {
		return false
	}

	var (
		transportErr *TransportError
		decodeErr    *DecodeError
		tgErr        *TelegramError
	)

	return goerrors.As(err, &transportErr) || goerrors.As(err, &decodeErr) || goerrors.As(err, &tgErr)
}
