// Package config provides centralized configuration management using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "TEMPLECTL"

// DotEnvFile is loaded from the working directory before the environment is read.
const DotEnvFile = ".env"

// Config holds all configuration values for templectl.
type Config struct {
	APIURL            string        `mapstructure:"api_url" yaml:"api_url"`
	APIToken          string        `mapstructure:"api_token" yaml:"api_token,omitempty"`
	Tenant            string        `mapstructure:"tenant" yaml:"tenant,omitempty"`
	DataDir           string        `mapstructure:"data_dir" yaml:"data_dir"`
	ReceiptDir        string        `mapstructure:"receipt_dir" yaml:"receipt_dir"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile           string        `mapstructure:"log_file" yaml:"log_file"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Journal           bool          `mapstructure:"journal" yaml:"journal"`
}

// keys lists every setting with its default. api_url has no default.
var keys = []struct {
	name string
	def  any
}{
	{"api_url", nil},
	{"api_token", ""},
	{"tenant", ""},
	{"data_dir", ".templectl"},
	{"receipt_dir", "receipts"},
	{"log_level", "info"},
	{"log_file", ""},
	{"requests_per_second", 10.0},
	{"timeout", 30 * time.Second},
	{"journal", true},
}

// Default returns the configuration written by `templectl setup`.
func Default() *Config {
	return &Config{
		APIURL:            "http://localhost:8088/api/v1",
		DataDir:           ".templectl",
		ReceiptDir:        "receipts",
		LogLevel:          "info",
		RequestsPerSecond: 10,
		Timeout:           30 * time.Second,
		Journal:           true,
	}
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars (.env included) > project config > XDG global config > defaults
func Load() (*Config, error) {
	if fileExists(DotEnvFile) {
		// godotenv never overrides variables already set in the environment
		if err := godotenv.Load(DotEnvFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", DotEnvFile, err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("templectl")

	for _, k := range keys {
		if k.def != nil {
			v.SetDefault(k.name, k.def)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit bindings so Unmarshal sees env-only keys
	for _, k := range keys {
		if err := v.BindEnv(k.name, EnvName(k.name)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", k.name, err)
		}
	}

	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required (set it in %s or %s)", ProjectPath(), EnvName("api_url"))
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url %q must be an absolute http(s) url", c.APIURL)
	}
	if c.RequestsPerSecond <= 0 {
		return errors.New("requests_per_second must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	return nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/templectl/templectl.yml or $XDG_CONFIG_HOME/templectl/templectl.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "templectl", "templectl.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "templectl", "templectl.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "templectl.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	// The file may hold an API token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
