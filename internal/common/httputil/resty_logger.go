package httputil

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const redacted = "<redacted>"

// RestyLogger направляет внутренние сообщения resty в slog и вырезает из них
// секреты, например токен бота в URL.
type RestyLogger struct {
	logger  *slog.Logger
	secrets []string
}

func NewRestyLogger(logger *slog.Logger, secrets ...string) *RestyLogger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &RestyLogger{logger: logger, secrets: secrets}
}

func (l *RestyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(l.format(format, v...), "component", "resty")
}

func (l *RestyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(l.format(format, v...), "component", "resty")
}

func (l *RestyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(l.format(format, v...), "component", "resty")
}

func (l *RestyLogger) format(format string, v ...interface{}) string {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))

	for _, secret := range l.secrets {
		if secret != "" {
			msg = strings.ReplaceAll(msg, secret, redacted)
		}
	}

	return msg
}
