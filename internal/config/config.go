package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Limits  LimitsConfig  `yaml:"limits" envconfig:"LIMITS"`
}

// ServerConfig contains HTTP server configuration for the web front-end
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/fundcli.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// LimitsConfig bounds the web front-end's upload handling
type LimitsConfig struct {
	MaxUploadBytes int64   `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"26214400"`
	UploadRPS      float64 `yaml:"upload_rps" envconfig:"UPLOAD_RPS" default:"2"`
	UploadBurst    int     `yaml:"upload_burst" envconfig:"UPLOAD_BURST" default:"5"`
}

// Load loads configuration from environment variables and an optional
// config.yaml next to the working directory. Environment takes precedence.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("FUND", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config. Precedence is explicit
// env var, then file value, then the envconfig default: a field only keeps
// its env-side value when its variable was actually set, since envconfig
// fills unset variables with defaults and would otherwise mask the file.
func mergeConfigs(fileConfig, envConfig Config) Config {
	merged := envConfig
	if fileConfig.Server.Port != 0 && !envSet("FUND_SERVER_PORT") {
		merged.Server.Port = fileConfig.Server.Port
	}
	if fileConfig.Server.ReadTimeout != 0 && !envSet("FUND_SERVER_READ_TIMEOUT") {
		merged.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if fileConfig.Server.WriteTimeout != 0 && !envSet("FUND_SERVER_WRITE_TIMEOUT") {
		merged.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if fileConfig.Server.IdleTimeout != 0 && !envSet("FUND_SERVER_IDLE_TIMEOUT") {
		merged.Server.IdleTimeout = fileConfig.Server.IdleTimeout
	}
	if fileConfig.Server.ShutdownTimeout != 0 && !envSet("FUND_SERVER_SHUTDOWN_TIMEOUT") {
		merged.Server.ShutdownTimeout = fileConfig.Server.ShutdownTimeout
	}
	if fileConfig.Logging.Level != "" && !envSet("FUND_LOGGING_LEVEL") {
		merged.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Format != "" && !envSet("FUND_LOGGING_FORMAT") {
		merged.Logging.Format = fileConfig.Logging.Format
	}
	if fileConfig.Logging.Output != "" && !envSet("FUND_LOGGING_OUTPUT") {
		merged.Logging.Output = fileConfig.Logging.Output
	}
	if fileConfig.Logging.FilePath != "" && !envSet("FUND_LOGGING_FILE_PATH") {
		merged.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if fileConfig.Paths.DataDir != "" && !envSet("FUND_PATHS_DATA_DIR") {
		merged.Paths.DataDir = fileConfig.Paths.DataDir
	}
	if fileConfig.Paths.LogsDir != "" && !envSet("FUND_PATHS_LOGS_DIR") {
		merged.Paths.LogsDir = fileConfig.Paths.LogsDir
	}
	if fileConfig.Limits.MaxUploadBytes != 0 && !envSet("FUND_LIMITS_MAX_UPLOAD_BYTES") {
		merged.Limits.MaxUploadBytes = fileConfig.Limits.MaxUploadBytes
	}
	if fileConfig.Limits.UploadRPS != 0 && !envSet("FUND_LIMITS_UPLOAD_RPS") {
		merged.Limits.UploadRPS = fileConfig.Limits.UploadRPS
	}
	if fileConfig.Limits.UploadBurst != 0 && !envSet("FUND_LIMITS_UPLOAD_BURST") {
		merged.Limits.UploadBurst = fileConfig.Limits.UploadBurst
	}
	return merged
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Limits.MaxUploadBytes < 0 {
		return fmt.Errorf("invalid max upload bytes: %d", c.Limits.MaxUploadBytes)
	}
	return nil
}

func getConfigFilePath() string {
	if path := os.Getenv("FUND_CONFIG_FILE"); path != "" {
		return path
	}
	return filepath.Join(".", "config.yaml")
}
