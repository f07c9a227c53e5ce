// Package config provides configuration management for the application. It
// handles loading, validation, and access to configuration values from a
// YAML file and LICITAWATCH_* environment variables via viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults applied for zero-value fields.
const (
	defaultPollInterval   = 30 * time.Minute
	defaultSourcesFile    = "sources.yml"
	defaultMaxSteps       = 50
	defaultStepDelay      = 2 * time.Second
	defaultWaitTimeout    = 30 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultNotifyRetries  = 3
	defaultDBPort         = "5432"
	defaultDBSSLMode      = "disable"
)

// Validation errors.
var (
	ErrMissingToken  = errors.New("telegram token is required")
	ErrMissingChatID = errors.New("telegram chat id is required")
	ErrMissingDBName = errors.New("database name is required")
)

// Database holds connection parameters for the durable dedup store.
type Database struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Telegram identifies the outbound notification channel. Both values come
// from configuration only; they are never embedded in code.
type Telegram struct {
	Token  string `mapstructure:"token"`
	ChatID string `mapstructure:"chat_id"`
}

// Fetch holds process-wide fetch defaults. Per-source values in the sources
// file override these.
type Fetch struct {
	MaxSteps       int           `mapstructure:"max_steps"`
	StepDelay      time.Duration `mapstructure:"step_delay"`
	WaitTimeout    time.Duration `mapstructure:"wait_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Notify holds delivery retry limits.
type Notify struct {
	MaxRetries int `mapstructure:"max_retries"`
}

// Log holds logger settings.
type Log struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// Config represents the application configuration.
type Config struct {
	Database     Database      `mapstructure:"database"`
	Telegram     Telegram      `mapstructure:"telegram"`
	Fetch        Fetch         `mapstructure:"fetch"`
	Notify       Notify        `mapstructure:"notify"`
	Log          Log           `mapstructure:"log"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	SourcesFile  string        `mapstructure:"sources_file"`
}

// Load reads configuration from the given file path (optional) plus
// environment overrides, applies defaults, and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LICITAWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		// Missing file is fine; env vars may carry everything.
		_ = v.ReadInConfig()
	}

	bindKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// bindKeys registers every config key with viper so AutomaticEnv picks up
// LICITAWATCH_* variables even when the key is absent from the file.
func bindKeys(v *viper.Viper) {
	keys := []string{
		"database.host", "database.port", "database.user",
		"database.password", "database.name", "database.sslmode",
		"telegram.token", "telegram.chat_id",
		"fetch.max_steps", "fetch.step_delay", "fetch.wait_timeout",
		"fetch.request_timeout",
		"notify.max_retries",
		"log.level", "log.encoding", "log.development",
		"poll_interval", "sources_file",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// applyDefaults fills zero-value fields with defaults.
func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.SourcesFile == "" {
		c.SourcesFile = defaultSourcesFile
	}
	if c.Fetch.MaxSteps <= 0 {
		c.Fetch.MaxSteps = defaultMaxSteps
	}
	if c.Fetch.StepDelay <= 0 {
		c.Fetch.StepDelay = defaultStepDelay
	}
	if c.Fetch.WaitTimeout <= 0 {
		c.Fetch.WaitTimeout = defaultWaitTimeout
	}
	if c.Fetch.RequestTimeout <= 0 {
		c.Fetch.RequestTimeout = defaultRequestTimeout
	}
	if c.Notify.MaxRetries <= 0 {
		c.Notify.MaxRetries = defaultNotifyRetries
	}
	if c.Database.Port == "" {
		c.Database.Port = defaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = defaultDBSSLMode
	}
}

// Validate checks that the fields required to run the monitor are present.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	if c.Telegram.ChatID == "" {
		return ErrMissingChatID
	}
	if c.Database.Name == "" {
		return ErrMissingDBName
	}
	return nil
}
