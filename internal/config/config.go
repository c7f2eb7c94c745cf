package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application's configuration values.
type Config struct {
	ServerPort string
	LogLevel   slog.Level
	LogFormat  string

	AWSRegion     string
	S3Bucket      string
	MetadataTable string
	QueueURL      string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	APIKey string

	RateLimit  int
	RateWindow time.Duration

	// ResultTimeout bounds how long a run request blocks waiting for the
	// worker's result.
	ResultTimeout time.Duration
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT", 100)
	v.SetDefault("RATE_WINDOW", "60s")
	v.SetDefault("RESULT_TIMEOUT", "25s")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Debug("no .env file loaded", "error", err)
		}
	}

	// All external collaborators must be configured; a partially wired
	// gateway is worse than one that refuses to start.
	required := []string{
		"AWS_REGION",
		"S3_BUCKET",
		"METADATA_TABLE",
		"QUEUE_URL",
		"REDIS_ADDR",
		"API_KEY",
	}
	for _, key := range required {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("%s must be set", key)
		}
	}

	// Parse the log level string into a slog.Level type.
	var logLevel slog.Level
	logLevelStr := strings.ToLower(v.GetString("LOG_LEVEL"))
	switch logLevelStr {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	case "info":
		logLevel = slog.LevelInfo
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", logLevelStr)
		logLevel = slog.LevelInfo
	}

	return &Config{
		ServerPort:    v.GetString("SERVER_PORT"),
		LogLevel:      logLevel,
		LogFormat:     v.GetString("LOG_FORMAT"),
		AWSRegion:     v.GetString("AWS_REGION"),
		S3Bucket:      v.GetString("S3_BUCKET"),
		MetadataTable: v.GetString("METADATA_TABLE"),
		QueueURL:      v.GetString("QUEUE_URL"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		APIKey:        v.GetString("API_KEY"),
		RateLimit:     v.GetInt("RATE_LIMIT"),
		RateWindow:    v.GetDuration("RATE_WINDOW"),
		ResultTimeout: v.GetDuration("RESULT_TIMEOUT"),
	}, nil
}
