package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/central-university-dev/go-tgbot/internal/common/metrics"
	"github.com/central-university-dev/go-tgbot/internal/telegram"
)

const (
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	maxBodySize = 1 << 20
)

// UpdateHandler принимает обновления от Telegram и передает их тому же
// обработчику, что и long polling.
type UpdateHandler struct {
	handler telegram.Handler
	secret  string
	logger  *slog.Logger
}

func NewUpdateHandler(handler telegram.Handler, secret string, logger *slog.Logger) *UpdateHandler {
	return &UpdateHandler{
		handler: handler,
		secret:  secret,
		logger:  logger,
	}
}

func (h *UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("Webhook запрос с неверным секретом", "remote_addr", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)

			return
		}
	}

	var update tgbotapi.Update

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&update); err != nil {
		h.logger.Warn("Некорректное тело webhook запроса", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)

		return
	}

	updateType := telegram.UpdateType(update)
	metrics.RecordUpdate(updateType)

	// Ошибка обработчика не возвращается Telegram, иначе он будет бесконечно
	// повторять доставку того же обновления.
	if err := telegram.Dispatch(r.Context(), h.handler, update); err != nil {
		metrics.RecordHandled("error")
		h.logger.Error("Ошибка при обработке обновления",
			"error", err,
			"update_id", update.UpdateID,
			"update_type", updateType,
		)
	} else {
		metrics.RecordHandled("ok")
	}

	w.WriteHeader(http.StatusOK)
}
