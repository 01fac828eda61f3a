package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	apierrors "github.com/central-university-dev/go-tgbot/internal/domain/errors"
)

const DefaultAPIHost = "https://api.telegram.org"

type Config struct {
	TelegramBotToken string        `mapstructure:"TELEGRAM_BOT_TOKEN"`
	TelegramAPIHost  string        `mapstructure:"TELEGRAM_API_HOST"`
	TelegramProxyURL string        `mapstructure:"TELEGRAM_PROXY_URL"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	PollTimeout        int           `mapstructure:"POLL_TIMEOUT"`
	PollLimit          int           `mapstructure:"POLL_LIMIT"`
	PollAllowedUpdates []string      `mapstructure:"POLL_ALLOWED_UPDATES"`
	PollOffset         int           `mapstructure:"POLL_OFFSET"`
	PollMaxBackoff     time.Duration `mapstructure:"POLL_MAX_BACKOFF"`

	WebhookListenPort int    `mapstructure:"WEBHOOK_LISTEN_PORT"`
	WebhookPath       string `mapstructure:"WEBHOOK_PATH"`
	WebhookURL        string `mapstructure:"WEBHOOK_URL"`
	WebhookSecret     string `mapstructure:"WEBHOOK_SECRET"`

	RateLimitRequests int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow   time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`

	MetricsPort         int           `mapstructure:"METRICS_PORT"`
	HealthCheckInterval time.Duration `mapstructure:"HEALTHCHECK_INTERVAL"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`

	RedisURL      string        `mapstructure:"REDIS_URL"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	FileCacheTTL  time.Duration `mapstructure:"FILE_CACHE_TTL"`

	KafkaBrokers      string `mapstructure:"KAFKA_BROKERS"`
	KafkaUpdatesTopic string `mapstructure:"KAFKA_UPDATES_TOPIC"`
	KafkaDLQTopic     string `mapstructure:"KAFKA_DLQ_TOPIC"`
	KafkaGroupID      string `mapstructure:"KAFKA_GROUP_ID"`
	ForwardToKafka    bool   `mapstructure:"FORWARD_TO_KAFKA"`

	CBSlidingWindowSize        int           `mapstructure:"CB_SLIDING_WINDOW_SIZE"`
	CBMinimumRequiredCalls     int           `mapstructure:"CB_MINIMUM_REQUIRED_CALLS"`
	CBFailureRateThreshold     int           `mapstructure:"CB_FAILURE_RATE_THRESHOLD"`
	CBPermittedCallsInHalfOpen int           `mapstructure:"CB_PERMITTED_CALLS_IN_HALF_OPEN"`
	CBWaitDurationInOpenState  time.Duration `mapstructure:"CB_WAIT_DURATION_IN_OPEN_STATE"`
}

func LoadConfig() *Config {
	setDefaults()

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	_ = viper.ReadInConfig()

	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return getDefaultConfig()
	}

	config.PollAllowedUpdates = normalizeList(config.PollAllowedUpdates)

	return config
}

// Validate проверяет только то, без чего клиент не может быть создан.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		return &apierrors.ConfigError{Field: "TELEGRAM_BOT_TOKEN", Message: "токен не задан"}
	}

	if c.PollLimit < 1 || c.PollLimit > 100 {
		return &apierrors.ConfigError{Field: "POLL_LIMIT", Message: "значение должно быть в диапазоне 1..100"}
	}

	if c.PollTimeout < 0 {
		return &apierrors.ConfigError{Field: "POLL_TIMEOUT", Message: "значение не может быть отрицательным"}
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("TELEGRAM_BOT_TOKEN", "")
	viper.SetDefault("TELEGRAM_API_HOST", DefaultAPIHost)
	viper.SetDefault("TELEGRAM_PROXY_URL", "")
	viper.SetDefault("REQUEST_TIMEOUT", "10s")

	viper.SetDefault("POLL_TIMEOUT", 30)
	viper.SetDefault("POLL_LIMIT", 100)
	viper.SetDefault("POLL_ALLOWED_UPDATES", []string{})
	viper.SetDefault("POLL_OFFSET", 0)
	viper.SetDefault("POLL_MAX_BACKOFF", "30s")

	viper.SetDefault("WEBHOOK_LISTEN_PORT", 8080)
	viper.SetDefault("WEBHOOK_PATH", "/telegram/webhook")
	viper.SetDefault("WEBHOOK_URL", "")
	viper.SetDefault("WEBHOOK_SECRET", "")

	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1s")

	viper.SetDefault("METRICS_PORT", 9094)
	viper.SetDefault("HEALTHCHECK_INTERVAL", "1m")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("FILE_CACHE_TTL", "55m")

	viper.SetDefault("KAFKA_BROKERS", "kafka:9092")
	viper.SetDefault("KAFKA_UPDATES_TOPIC", "telegram-updates")
	viper.SetDefault("KAFKA_DLQ_TOPIC", "telegram-updates-dlq")
	viper.SetDefault("KAFKA_GROUP_ID", "tgbot")
	viper.SetDefault("FORWARD_TO_KAFKA", false)

	viper.SetDefault("CB_SLIDING_WINDOW_SIZE", 10)
	viper.SetDefault("CB_MINIMUM_REQUIRED_CALLS", 5)
	viper.SetDefault("CB_FAILURE_RATE_THRESHOLD", 50)
	viper.SetDefault("CB_PERMITTED_CALLS_IN_HALF_OPEN", 2)
	viper.SetDefault("CB_WAIT_DURATION_IN_OPEN_STATE", "10s")
}

func getDefaultConfig() *Config {
	return &Config{
		TelegramAPIHost: DefaultAPIHost,
		RequestTimeout:  10 * time.Second,

		PollTimeout:    30,
		PollLimit:      100,
		PollMaxBackoff: 30 * time.Second,

		WebhookListenPort: 8080,
		WebhookPath:       "/telegram/webhook",

		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Second,

		MetricsPort:         9094,
		HealthCheckInterval: 1 * time.Minute,
		LogLevel:            "info",

		FileCacheTTL: 55 * time.Minute,

		KafkaBrokers:      "kafka:9092",
		KafkaUpdatesTopic: "telegram-updates",
		KafkaDLQTopic:     "telegram-updates-dlq",
		KafkaGroupID:      "tgbot",

		CBSlidingWindowSize:        10,
		CBMinimumRequiredCalls:     5,
		CBFailureRateThreshold:     50,
		CBPermittedCallsInHalfOpen: 2,
		CBWaitDurationInOpenState:  10 * time.Second,
	}
}

// KafkaBrokerList разбирает KAFKA_BROKERS, заданный через запятую.
func (c *Config) KafkaBrokerList() []string {
	return normalizeList([]string{c.KafkaBrokers})
}

func normalizeList(values []string) []string {
	result := make([]string, 0, len(values))

	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}

	return result
}
