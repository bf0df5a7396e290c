// Package config binds all runtime settings from environment variables.
// A .env file in the working directory is loaded first so local runs can
// keep credentials out of the shell.
package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"clover-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// SQLite (run history)
	DatabasePath                string `env:"DB_PATH" env-default:"data/clover.db"`
	DatabaseMigrationFolderPath string `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/sqlite"`
	DatabaseMigrationVersion    int    `env:"DB_MIGRATION_VERSION" env-default:"0"`

	// HubSpot destination
	HubSpotBaseURL        string        `env:"HUBSPOT_BASE_URL" env-default:"https://api.hubapi.com"`
	HubSpotAccessToken    string        `env:"HUBSPOT_ACCESS_TOKEN" env-default:""`
	HubSpotTokenURL       string        `env:"HUBSPOT_TOKEN_URL" env-default:"https://api.hubapi.com/oauth/v1/token"`
	HubSpotClientID       string        `env:"HUBSPOT_CLIENT_ID" env-default:""`
	HubSpotClientSecret   string        `env:"HUBSPOT_CLIENT_SECRET" env-default:""`
	HubSpotRefreshToken   string        `env:"HUBSPOT_REFRESH_TOKEN" env-default:""`
	HubSpotRequestTimeout time.Duration `env:"HUBSPOT_REQUEST_TIMEOUT" env-default:"60s"`

	// Migration tuning
	SearchBatchSize  int           `env:"SEARCH_BATCH_SIZE" env-default:"100"`
	SearchBatchDelay time.Duration `env:"SEARCH_BATCH_DELAY" env-default:"100ms"`
	ResultsDir       string        `env:"RESULTS_DIR" env-default:"results"`

	// Kafka producer (optional run events)
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"migration-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Tracing
	OtelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
	OtelInsecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
}

// HasOAuth reports whether the refresh-token flow is configured.
func (c *Config) HasOAuth() bool {
	return c.HubSpotClientID != "" && c.HubSpotClientSecret != "" && c.HubSpotRefreshToken != ""
}

// Load reads the optional .env file and binds the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}
	return cfg, nil
}
