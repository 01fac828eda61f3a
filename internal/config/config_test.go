package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-tgbot/internal/config"
	apierrors "github.com/central-university-dev/go-tgbot/internal/domain/errors"
)

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("POLL_TIMEOUT", "50")
	t.Setenv("POLL_ALLOWED_UPDATES", "message, callback_query")
	t.Setenv("REQUEST_TIMEOUT", "3s")

	cfg := config.LoadConfig()

	assert.Equal(t, "123:abc", cfg.TelegramBotToken)
	assert.Equal(t, 50, cfg.PollTimeout)
	assert.Equal(t, 100, cfg.PollLimit)
	assert.Equal(t, []string{"message", "callback_query"}, cfg.PollAllowedUpdates)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, config.DefaultAPIHost, cfg.TelegramAPIHost)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &config.Config{TelegramBotToken: "123:abc", PollLimit: 100}
	require.NoError(t, cfg.Validate())

	cfg.PollLimit = 101

	var cfgErr *apierrors.ConfigError

	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "POLL_LIMIT", cfgErr.Field)

	cfg = &config.Config{PollLimit: 10}
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "TELEGRAM_BOT_TOKEN", cfgErr.Field)
}

func TestConfig_KafkaBrokerList(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: "kafka-1:9092, kafka-2:9092,,"}

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokerList())
}
