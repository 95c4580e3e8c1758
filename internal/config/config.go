package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/genome360-risk-client/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g.
// GENOME360_PREDICTOR_BASE_URL.
const EnvPrefix = "GENOME360"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	flags      *pflag.FlagSet
	config     *domain.Config
}

// ManagerOption customises how configuration is located.
type ManagerOption func(*Manager)

// WithConfigFile reads an explicit file instead of searching the default
// paths. A missing explicit file is an error.
func WithConfigFile(path string) ManagerOption {
	return func(m *Manager) {
		m.configFile = path
	}
}

// FlagKeys maps command line flags to configuration keys. Flags that were
// set on the command line override file and environment values.
var FlagKeys = map[string]string{
	"base-url":        "predictor.base_url",
	"timeout":         "predictor.timeout",
	"strict-ordering": "predictor.strict_ordering",
	"host":            "server.host",
	"port":            "server.port",
	"log-level":       "logging.level",
	"log-format":      "logging.format",
}

// WithFlags binds any flag in fs named in FlagKeys.
func WithFlags(fs *pflag.FlagSet) ManagerOption {
	return func(m *Manager) {
		m.flags = fs
	}
}

// NewManager creates a new configuration manager. The result is loaded once;
// callers pass the values on rather than re-reading the environment.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{v: viper.New()}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file, environment and defaults
func (m *Manager) loadConfig() error {
	v := m.v

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/genome360/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m.setDefaults()

	if m.flags != nil {
		for name, key := range FlagKeys {
			if f := m.flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || m.configFile != "" {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.Predictor.BaseURL = strings.TrimRight(config.Predictor.BaseURL, "/")

	m.config = config
	return nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can see it during Unmarshal.
func (m *Manager) setDefaults() {
	v := m.v

	// Predictor defaults
	v.SetDefault("predictor.base_url", "http://localhost:8000")
	v.SetDefault("predictor.predict_path", "/api/predict")
	v.SetDefault("predictor.timeout", "30s")
	v.SetDefault("predictor.rate_limit", 0)
	v.SetDefault("predictor.strict_ordering", false)
	v.SetDefault("predictor.circuit_breaker.enabled", false)
	v.SetDefault("predictor.circuit_breaker.max_requests", 1)
	v.SetDefault("predictor.circuit_breaker.interval", "60s")
	v.SetDefault("predictor.circuit_breaker.timeout", "30s")
	v.SetDefault("predictor.circuit_breaker.failure_threshold", 5)

	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.filename", "")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("history.size", 50)
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetPredictorConfig returns prediction service configuration
func (m *Manager) GetPredictorConfig() *domain.PredictorConfig {
	return &m.config.Predictor
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetLoggingConfig returns logging configuration
func (m *Manager) GetLoggingConfig() *domain.LoggingConfig {
	return &m.config.Logging
}

// ConfigFileUsed returns the file configuration was read from, if any.
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// AllSettings returns the merged settings as nested maps. Durations are
// rendered in Go duration syntax.
func (m *Manager) AllSettings() map[string]any {
	return normalize(m.v.AllSettings())
}

func normalize(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case map[string]any:
			out[k] = normalize(val)
		case time.Duration:
			out[k] = val.String()
		default:
			out[k] = val
		}
	}
	return out
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate predictor configuration
	u, err := url.Parse(config.Predictor.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid predictor base URL: %q", config.Predictor.BaseURL)
	}
	if config.Predictor.Timeout <= 0 {
		return fmt.Errorf("predictor timeout must be positive")
	}
	if config.Predictor.RateLimit < 0 {
		return fmt.Errorf("invalid predictor rate limit: %d", config.Predictor.RateLimit)
	}

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	switch strings.ToLower(config.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	if config.History.Size < 0 {
		return fmt.Errorf("invalid history size: %d", config.History.Size)
	}

	return nil
}
