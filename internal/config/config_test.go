package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if filepath.Base(cfg.PreferencesFile) != "preferences.json" {
		t.Errorf("preferences file = %s", cfg.PreferencesFile)
	}
	if filepath.Base(cfg.ConversionLog.FilePath) != "conversion.log" {
		t.Errorf("conversion log = %s", cfg.ConversionLog.FilePath)
	}
	if cfg.Metadata.Preserve {
		t.Error("metadata preservation should be off by default")
	}
	if cfg.ConversionLog.MaxBackups != 0 || cfg.ConversionLog.MaxAge != 0 {
		t.Errorf("conversion log must keep every rotated file, got max_backups=%d max_age=%d",
			cfg.ConversionLog.MaxBackups, cfg.ConversionLog.MaxAge)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
preferences_file: `+filepath.Join(dir, "prefs.json")+`
conversion_log:
  file_path: `+filepath.Join(dir, "out.log")+`
logging:
  level: DEBUG
history:
  enabled: false
metadata:
  preserve: true
server:
  port: 9090
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PreferencesFile != filepath.Join(dir, "prefs.json") {
		t.Errorf("preferences file = %s", cfg.PreferencesFile)
	}
	if cfg.ConversionLog.FilePath != filepath.Join(dir, "out.log") {
		t.Errorf("conversion log = %s", cfg.ConversionLog.FilePath)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %s", cfg.Logging.Level)
	}
	if cfg.History.Enabled || !cfg.Metadata.Preserve || cfg.Server.Port != 9090 {
		t.Errorf("unexpected sections: %+v", cfg)
	}
	if cfg.ConversionLog.MaxBackups != 0 {
		t.Errorf("unset keys should keep defaults, max_backups = %d", cfg.ConversionLog.MaxBackups)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("IMAGE_CONVERTER_SERVER_PORT", "7070")
	t.Setenv("IMAGE_CONVERTER_METADATA_PRESERVE", "true")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070", cfg.Server.Port)
	}
	if !cfg.Metadata.Preserve {
		t.Error("env override for metadata.preserve ignored")
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, want: "invalid log level"},
		{name: "no preferences file", mutate: func(c *Config) { c.PreferencesFile = "" }, want: "preferences_file"},
		{name: "no conversion log", mutate: func(c *Config) { c.ConversionLog.FilePath = "" }, want: "conversion_log"},
		{name: "history without path", mutate: func(c *Config) { c.History.DatabasePath = "" }, want: "history.database_path"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, want: "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.PreferencesFile = "~/prefs.json"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.PreferencesFile != filepath.Join(home, "prefs.json") {
		t.Errorf("preferences file = %s", cfg.PreferencesFile)
	}
}
