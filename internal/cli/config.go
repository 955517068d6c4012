package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/toyz/annotest/internal/utils"
)

// Output formats
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// ConfigName is the config file looked up in the checked directory, without extension
const ConfigName = ".annotest"

// Config holds the configuration for the check command
type Config struct {
	// Manifest is the expectation manifest, relative to the checked directory
	Manifest string `mapstructure:"manifest"`
	// Format is the report format, text or yaml
	Format string `mapstructure:"format"`
	// Level is the diagnostic level name
	Level string `mapstructure:"level"`
	// Patterns are package patterns to load, "./..." when empty
	Patterns []string `mapstructure:"patterns"`
	// Tests includes _test.go files when loading packages
	Tests bool `mapstructure:"tests"`
}

// NewViper returns a viper instance with defaults and ANNOTEST_* environment
// lookup; commands bind their flags to it before calling LoadConfig
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("manifest", "annotest.yaml")
	v.SetDefault("format", FormatText)
	v.SetDefault("level", "info")
	v.SetDefault("patterns", []string{"./..."})
	v.SetDefault("tests", false)

	v.SetEnvPrefix("ANNOTEST")
	v.AutomaticEnv()
	return v
}

// LoadConfig reads .annotest.yaml from dir if present and merges it under
// flags and environment
func LoadConfig(v *viper.Viper, dir string) (*Config, error) {
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ManifestPath resolves the manifest against dir unless it is absolute
func (c *Config) ManifestPath(dir string) string {
	if filepath.IsAbs(c.Manifest) {
		return c.Manifest
	}
	return filepath.Join(dir, c.Manifest)
}

// DiagnosticLevel converts Level
func (c *Config) DiagnosticLevel() utils.DiagnosticLevel {
	level, _ := utils.ParseDiagnosticLevel(c.Level)
	return level
}

func validateConfig(cfg *Config) error {
	switch cfg.Format {
	case FormatText, FormatYAML:
	default:
		return fmt.Errorf("format must be %s or %s, got: %s", FormatText, FormatYAML, cfg.Format)
	}
	if cfg.Manifest == "" {
		return fmt.Errorf("manifest must not be empty")
	}
	if _, err := utils.ParseDiagnosticLevel(cfg.Level); err != nil {
		return err
	}
	return nil
}
