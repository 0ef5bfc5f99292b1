package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds everything resolved once at process start. Table names and
// the queue URL are injected by the deployment; nothing here is re-read at
// request time.
type Config struct {
	Port                string `mapstructure:"PORT" validate:"required"`
	OrdersTable         string `mapstructure:"TABLE_NAME" validate:"required"`
	IdempotencyTable    string `mapstructure:"IDEMPOTENCY_TABLE_NAME" validate:"required"`
	OrderEventsQueueURL string `mapstructure:"ORDER_EVENTS_QUEUE_URL"`
	MetricsNamespace    string `mapstructure:"METRICS_NAMESPACE" validate:"required"`
	IdempotencyTTLHours int    `mapstructure:"IDEMPOTENCY_TTL_HOURS" validate:"min=1"`
	RunLocal            bool   `mapstructure:"RUN_LOCAL"`
}

var envKeys = []string{
	"PORT",
	"TABLE_NAME",
	"IDEMPOTENCY_TABLE_NAME",
	"ORDER_EVENTS_QUEUE_URL",
	"METRICS_NAMESPACE",
	"IDEMPOTENCY_TTL_HOURS",
	"RUN_LOCAL",
}

// Load reads configuration from the environment and validates it.
func Load(logger *zap.Logger) (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("METRICS_NAMESPACE", "ServerlessWorkshop")
	v.SetDefault("IDEMPOTENCY_TTL_HOURS", 24)
	v.SetDefault("RUN_LOCAL", false)

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
