package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize int

	// Validation behavior for every consumed series.
	StrictMode      bool
	PerformanceMode bool
	MaxRecords      int
	SeriesTimeout   time.Duration

	// Scale memo cache capacity.
	ScaleCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	seriesTimeout, err := parseDuration("SERIES_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	batchSize, err := parsePositiveInt("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}

	maxRecords, err := parseNonNegativeInt("VALIDATE_MAX_RECORDS", 0)
	if err != nil {
		return nil, err
	}

	scaleCacheSize, err := parsePositiveInt("SCALE_CACHE_SIZE", 50)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "raw-tide-series"),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "chart-ready-series"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "tide-chart-service"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		BatchSize:        batchSize,
		StrictMode:       os.Getenv("VALIDATE_STRICT") == "true",
		PerformanceMode:  os.Getenv("VALIDATE_PERFORMANCE") == "true",
		MaxRecords:       maxRecords,
		SeriesTimeout:    seriesTimeout,
		ScaleCacheSize:   scaleCacheSize,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.StrictMode && cfg.PerformanceMode {
		return nil, errors.New("VALIDATE_STRICT and VALIDATE_PERFORMANCE are mutually exclusive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
