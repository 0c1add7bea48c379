package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AppName names the data directory, the env prefix and the config search paths.
const AppName = "image-converter"

// Config represents the main configuration structure
type Config struct {
	PreferencesFile string              `mapstructure:"preferences_file"`
	ConversionLog   ConversionLogConfig `mapstructure:"conversion_log"`
	Logging         LoggingConfig       `mapstructure:"logging"`
	History         HistoryConfig       `mapstructure:"history"`
	Metadata        MetadataConfig      `mapstructure:"metadata"`
	Server          ServerConfig        `mapstructure:"server"`
}

// ConversionLogConfig configures the per-item outcome log
type ConversionLogConfig struct {
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// HistoryConfig controls the run history database
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// MetadataConfig controls tag handling for converted files
type MetadataConfig struct {
	Preserve     bool   `mapstructure:"preserve"`
	ExiftoolPath string `mapstructure:"exiftool_path"`
	Inspect      bool   `mapstructure:"inspect_with_exiftool"`
}

// ServerConfig contains web front end settings
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DataDir returns the per-user directory holding preferences, logs and history.
func DataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "."+AppName)
	}
	return "."
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	dir := DataDir()
	return &Config{
		PreferencesFile: filepath.Join(dir, "preferences.json"),
		ConversionLog: ConversionLogConfig{
			FilePath:   filepath.Join(dir, "conversion.log"),
			MaxSize:    10,
			MaxBackups: 0, // keep every rotated file
			MaxAge:     0, // keep forever
			Compress:   false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   filepath.Join(dir, AppName+".log"),
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: filepath.Join(dir, "history.db"),
		},
		Metadata: MetadataConfig{
			Preserve:     false,
			ExiftoolPath: "exiftool",
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
// An explicit configPath must exist; otherwise a missing config file is fine.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/." + AppName)
		v.AddConfigPath("/etc/" + AppName)
	}

	v.SetEnvPrefix(strings.ReplaceAll(strings.ToUpper(AppName), "-", "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, config)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// bindDefaults registers every key so AutomaticEnv can override keys that the
// config file does not mention.
func bindDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("preferences_file", c.PreferencesFile)
	v.SetDefault("conversion_log.file_path", c.ConversionLog.FilePath)
	v.SetDefault("conversion_log.max_size", c.ConversionLog.MaxSize)
	v.SetDefault("conversion_log.max_backups", c.ConversionLog.MaxBackups)
	v.SetDefault("conversion_log.max_age", c.ConversionLog.MaxAge)
	v.SetDefault("conversion_log.compress", c.ConversionLog.Compress)
	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.file_path", c.Logging.FilePath)
	v.SetDefault("logging.max_size", c.Logging.MaxSize)
	v.SetDefault("logging.max_backups", c.Logging.MaxBackups)
	v.SetDefault("logging.max_age", c.Logging.MaxAge)
	v.SetDefault("logging.compress", c.Logging.Compress)
	v.SetDefault("history.enabled", c.History.Enabled)
	v.SetDefault("history.database_path", c.History.DatabasePath)
	v.SetDefault("metadata.preserve", c.Metadata.Preserve)
	v.SetDefault("metadata.exiftool_path", c.Metadata.ExiftoolPath)
	v.SetDefault("metadata.inspect_with_exiftool", c.Metadata.Inspect)
	v.SetDefault("server.port", c.Server.Port)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.PreferencesFile == "" {
		return fmt.Errorf("preferences_file is required")
	}
	c.PreferencesFile = expandPath(c.PreferencesFile)

	if c.ConversionLog.FilePath == "" {
		return fmt.Errorf("conversion_log.file_path is required")
	}
	c.ConversionLog.FilePath = expandPath(c.ConversionLog.FilePath)
	c.Logging.FilePath = expandPath(c.Logging.FilePath)

	if c.History.Enabled {
		if c.History.DatabasePath == "" {
			return fmt.Errorf("history.database_path is required when history is enabled")
		}
		c.History.DatabasePath = expandPath(c.History.DatabasePath)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}

	return nil
}

// Helper functions

func expandPath(path string) string {
	if path == "" {
		return path
	}
	expanded := os.ExpandEnv(path)
	if strings.HasPrefix(expanded, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			expanded = filepath.Join(home, expanded[1:])
		}
	}
	return expanded
}
