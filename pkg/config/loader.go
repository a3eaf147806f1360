package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	viper.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	viper.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	viper.BindEnv("nats.url", "NATS_URL", "APP_NATS_URL")
	viper.BindEnv("rabbitmq.url", "RABBITMQ_URL", "APP_RABBITMQ_URL")
	viper.BindEnv("scheduler.acceleration", "SCHEDULER_ACCELERATION")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// logic for no config file (env vars only) could go here
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults fills in the scheduler defaults from spec §6 so a
// deployment with no config file (env vars only) still boots with a
// sane station layout.
func setDefaults() {
	viper.SetDefault("scheduler.acceleration", 30.0)
	viper.SetDefault("scheduler.tick_interval_ms", 100)
	viper.SetDefault("scheduler.waiting_area_capacity", 6)
	viper.SetDefault("scheduler.pile_queue_capacity", 2)
	viper.SetDefault("scheduler.fast_power_kwh_per_h", 30.0)
	viper.SetDefault("scheduler.slow_power_kwh_per_h", 7.0)
	viper.SetDefault("scheduler.service_rate_per_kwh", 0.8)
	viper.SetDefault("redis.snapshot_ttl", "500ms")
	viper.SetDefault("scheduler.initial_piles", []map[string]string{
		{"number": "F1", "mode": "Fast"},
		{"number": "F2", "mode": "Fast"},
		{"number": "T1", "mode": "Slow"},
		{"number": "T2", "mode": "Slow"},
		{"number": "T3", "mode": "Slow"},
	})
}
