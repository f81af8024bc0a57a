package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AppConfig is the static bootstrap configuration this service loads at
// boot (spec.md §1 Non-goals scope CLI flags and logging setup as
// consumer-owned, but the ambient stack itself — how config is sourced —
// still follows the teacher pack's convention). Dynamic AnalyzerConfig
// entries are managed through Store, not here.
//
// Configuration sources: a YAML config file (its path is the only CLI
// flag that feeds in, --config), environment variables (LIS_*) that
// override keys the file sets, then these defaults for anything left
// zero. When no config file is found, Load returns the defaults and does
// not read the environment.
type AppConfig struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	HIS     HISConfig     `mapstructure:"his" yaml:"his"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`

	// KnownAnalyzerIDs lists every analyzer id the supervisor's boot
	// sweep (spec.md §4.7) should look up in the ConfigStore. The store
	// itself has no enumeration operation (spec.md §6), so this is the
	// only place that knows the full analyzer population.
	KnownAnalyzerIDs []string `mapstructure:"known_analyzer_ids" yaml:"known_analyzer_ids"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// StoreConfig configures the file-backed ConfigStore reference
// implementation (internal/fileconfig.Store).
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig controls log output, per spec.md §1's ambient logging
// concern (carried even though "logging setup" itself is a Non-goal —
// that Non-goal scopes the CLI surface for it, not whether the service
// logs at all).
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP endpoint (C12).
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// APIConfig configures the command-surface HTTP API (C11, spec.md §6).
type APIConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// HISConfig configures the downstream delivery client (C8, spec.md §4.8).
type HISConfig struct {
	BaseURL       string        `mapstructure:"base_url" validate:"required,url" yaml:"base_url"`
	RetryAttempts int           `mapstructure:"retry_attempts" validate:"omitempty,lte=10" yaml:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Load loads AppConfig from file, environment, and defaults, following
// marmos91-dittofs/pkg/config/config.go's Load/setupViper/readConfigFile
// pipeline verbatim in shape: viper + mapstructure decode hooks for
// time.Duration, gopkg.in/yaml.v3 as the file format.
func Load(configPath string) (*AppConfig, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg := DefaultAppConfig()
		return &cfg, nil
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// DefaultAppConfig returns the zero-config defaults this service starts
// with when no config file is present.
func DefaultAppConfig() AppConfig {
	cfg := AppConfig{}
	ApplyDefaults(&cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields, per dittofs's
// ApplyDefaults/applyLoggingDefaults pattern.
func ApplyDefaults(cfg *AppConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9464
	}
	if cfg.API.Host == "" {
		cfg.API.Host = "0.0.0.0"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8090
	}
	if cfg.HIS.RetryAttempts == 0 {
		cfg.HIS.RetryAttempts = 3
	}
	if cfg.HIS.RetryDelay == 0 {
		cfg.HIS.RetryDelay = 5 * time.Second
	}
	if cfg.HIS.Timeout == 0 {
		cfg.HIS.Timeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(getConfigDir(), "analyzers.json")
	}
}

// SaveConfig writes cfg to path as YAML, mirroring dittofs's SaveConfig
// (restricted file permissions since HIS credentials may live alongside
// the base URL in a future revision).
func SaveConfig(cfg *AppConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("LIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch val := data.(type) {
		case string:
			return time.ParseDuration(val)
		case int:
			return time.Duration(val), nil
		case int64:
			return time.Duration(val), nil
		case float64:
			return time.Duration(val), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nramh-lis")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "nramh-lis")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
