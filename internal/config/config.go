package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samvad-hq/completion-bench/pkg/httpclient"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	TargetURL             string          `mapstructure:"target_url"`
	ListenAddr            string          `mapstructure:"listen_addr"`
	BookCount             int             `mapstructure:"book_count"`
	BenchSink             httpclient.Sink `mapstructure:"bench_sink"`
	BenchTimeMs           int64           `mapstructure:"bench_time_ms"`
	BenchTime             time.Duration   `mapstructure:"-"`
	RequestTimeoutSeconds int64           `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration   `mapstructure:"-"`
	PublishersFile        string          `mapstructure:"publishers_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "completion-bench")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("target_url", "http://localhost:58815/books")
	v.SetDefault("listen_addr", ":58815")
	v.SetDefault("book_count", 100)
	v.SetDefault("bench_sink", string(httpclient.SinkDecode))
	v.SetDefault("bench_time_ms", 1000)
	v.SetDefault("request_timeout_seconds", 0) // no timeout
	v.SetDefault("publishers_file", "")
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/results.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize validates raw values and derives the duration fields.
func (cfg *Config) normalize() error {
	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	if cfg.TargetURL == "" {
		return fmt.Errorf("invalid target_url (must not be empty)")
	}
	if cfg.BookCount < 0 {
		return fmt.Errorf("invalid book_count (must not be negative)")
	}

	sink, err := httpclient.ParseSink(strings.ToLower(strings.TrimSpace(string(cfg.BenchSink))))
	if err != nil {
		return fmt.Errorf("invalid bench_sink: %w", err)
	}
	cfg.BenchSink = sink

	if cfg.BenchTimeMs <= 0 {
		return fmt.Errorf("invalid bench_time_ms (must be positive milliseconds)")
	}
	cfg.BenchTime = time.Duration(cfg.BenchTimeMs) * time.Millisecond

	if cfg.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must not be negative)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
