package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Scheduler      SchedulerConfig      `mapstructure:"scheduler"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	NATS           NATSConfig           `mapstructure:"nats"`
	RabbitMQ       RabbitMQConfig       `mapstructure:"rabbitmq"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// SchedulerConfig binds spec §6's recognized configuration options.
type SchedulerConfig struct {
	Acceleration        float64               `mapstructure:"acceleration"`
	TickIntervalMs      int                   `mapstructure:"tick_interval_ms"`
	WaitingAreaCapacity int                   `mapstructure:"waiting_area_capacity"`
	PileQueueCapacity   int                   `mapstructure:"pile_queue_capacity"`
	FastPowerKWhPerH    float64               `mapstructure:"fast_power_kwh_per_h"`
	SlowPowerKWhPerH    float64               `mapstructure:"slow_power_kwh_per_h"`
	ServiceRatePerKWh   float64               `mapstructure:"service_rate_per_kwh"`
	Tariff              TariffScheduleConfig  `mapstructure:"tariff_schedule"`
	InitialPiles        []InitialPileConfig   `mapstructure:"initial_piles"`
}

type TariffScheduleConfig struct {
	PeakRate   float64            `mapstructure:"peak_rate"`
	FlatRate   float64            `mapstructure:"flat_rate"`
	ValleyRate float64            `mapstructure:"valley_rate"`
	Windows    []TariffWindowConfig `mapstructure:"windows"`
}

type TariffWindowConfig struct {
	Slot     string `mapstructure:"slot"`
	StartMin int    `mapstructure:"start_min"`
	EndMin   int    `mapstructure:"end_min"`
}

type InitialPileConfig struct {
	Number string `mapstructure:"number"`
	Mode   string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	SnapshotTTL  time.Duration `mapstructure:"snapshot_ttl"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type RabbitMQConfig struct {
	URL          string `mapstructure:"url"`
	OutboxQueue  string `mapstructure:"outbox_queue"`
	Durable      bool   `mapstructure:"durable"`
}

type OpenTelemetryConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	Jaeger      JaegerConfig      `mapstructure:"jaeger"`
	ServiceName string            `mapstructure:"service_name"`
	Attributes  map[string]string `mapstructure:"attributes"`
}

type JaegerConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	SamplerType  string  `mapstructure:"sampler_type"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

type LoggingConfig struct {
	Level    string          `mapstructure:"level"`
	Format   string          `mapstructure:"format"`
	Output   string          `mapstructure:"output"`
	Sampling LoggingSampling `mapstructure:"sampling"`
}

type LoggingSampling struct {
	Enabled    bool `mapstructure:"enabled"`
	Initial    int  `mapstructure:"initial"`
	Thereafter int  `mapstructure:"thereafter"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      int           `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}
