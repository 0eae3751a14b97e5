package config

import (
	"fmt"
	"time"
)

type AppConfig struct {
	Host           string        `yaml:"host" env:"APP_HOST" env-default:"127.0.0.1"`
	Port           int           `yaml:"port" env:"APP_PORT" env-default:"8080"`
	MetricsPort    int           `yaml:"metrics_port" env:"APP_METRICS_PORT" env-default:"0"`
	DefaultTimeout time.Duration `yaml:"default_timeout" env:"APP_DEFAULT_TIMEOUT" env-default:"10s"`
	// Upper bound of concurrent probes while classifying listing children.
	ListingConcurrency int `yaml:"listing_concurrency" env:"APP_LISTING_CONCURRENCY" env-default:"16"`
}

func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MetricsAddr is empty when the metrics listener is disabled.
func (c AppConfig) MetricsAddr() string {
	if c.MetricsPort <= 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"pretty"`

	// Optional rotated log file, written in addition to stdout.
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env-default:"50"`
	MaxBackups int    `yaml:"max_backups" env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env-default:"28"`
	Compress   bool   `yaml:"compress"`
}
