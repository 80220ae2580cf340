// Package config loads webscout settings from webscout.yaml and WEBSCOUT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. WEBSCOUT_MODEL_NAME.
const EnvPrefix = "WEBSCOUT"

// Config is the effective configuration of a run.
type Config struct {
	Model     ModelConfig     `mapstructure:"model" yaml:"model"`
	Agent     AgentConfig     `mapstructure:"agent" yaml:"agent"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
}

// ModelConfig selects the inference provider.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Name        string  `mapstructure:"name" yaml:"name"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens" yaml:"max_tokens"`
	APIKey      string  `mapstructure:"api_key" yaml:"-"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	// MaxCalls caps model calls across the whole agent tree. Zero is unlimited.
	MaxCalls int `mapstructure:"max_calls" yaml:"max_calls"`
}

// AgentConfig holds step budgets and output settings.
type AgentConfig struct {
	BrainSteps     int    `mapstructure:"brain_steps" yaml:"brain_steps"`
	NavigatorSteps int    `mapstructure:"navigator_steps" yaml:"navigator_steps"`
	ExtractorSteps int    `mapstructure:"extractor_steps" yaml:"extractor_steps"`
	SaveDir        string `mapstructure:"save_dir" yaml:"save_dir"`
	TableFormat    string `mapstructure:"table_format" yaml:"table_format"`
	Screenshots    bool   `mapstructure:"screenshots" yaml:"screenshots"`
	Persist        bool   `mapstructure:"persist" yaml:"persist"`
	CountTokens    bool   `mapstructure:"count_tokens" yaml:"count_tokens"`
}

// BrowserConfig configures the playwright session.
type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless" yaml:"headless"`
	CDPURL         string        `mapstructure:"cdp_url" yaml:"cdp_url,omitempty"`
	ViewportWidth  int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Install        bool          `mapstructure:"install" yaml:"install"`
}

// LoggerConfig configures structured logging and file rotation.
type LoggerConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ArtifactsConfig selects where extracted tables are uploaded. An empty
// bucket keeps artifacts in memory.
type ArtifactsConfig struct {
	Bucket       string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Prefix       string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Region       string `mapstructure:"region" yaml:"region"`
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	UsePathStyle bool   `mapstructure:"use_path_style" yaml:"use_path_style"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.name", "gpt-4o")
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("model.max_tokens", 4096)
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.max_calls", 0)

	v.SetDefault("agent.brain_steps", 1000)
	v.SetDefault("agent.navigator_steps", 20)
	v.SetDefault("agent.extractor_steps", 20)
	v.SetDefault("agent.save_dir", "runs")
	v.SetDefault("agent.table_format", "csv")
	v.SetDefault("agent.screenshots", true)
	v.SetDefault("agent.persist", true)
	v.SetDefault("agent.count_tokens", false)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.cdp_url", "")
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 1100)
	v.SetDefault("browser.timeout", "30s")
	v.SetDefault("browser.install", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("artifacts.bucket", "")
	v.SetDefault("artifacts.prefix", "webscout")
	v.SetDefault("artifacts.region", "us-east-1")
	v.SetDefault("artifacts.endpoint", "")
	v.SetDefault("artifacts.use_path_style", false)
}

// NewViper returns a viper instance with defaults and env overrides bound.
// When file is empty, webscout.yaml is searched in the working directory.
func NewViper(file string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("webscout")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file (optional unless file is named explicitly),
// applies env overrides and validates the result.
func Load(file string) (*Config, error) {
	v := NewViper(file)

	if err := ReadFile(v, file); err != nil {
		return nil, err
	}

	return FromViper(v)
}

// ReadFile reads the config file of v. A missing webscout.yaml is not an
// error; a missing explicitly named file is.
func ReadFile(v *viper.Viper, file string) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks enumerations and budgets.
func (c *Config) Validate() error {
	var errs []error

	switch c.Model.Provider {
	case "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("model.provider: unsupported %q (openai, anthropic)", c.Model.Provider))
	}

	if c.Model.Name == "" {
		errs = append(errs, errors.New("model.name: required"))
	}

	switch c.Agent.TableFormat {
	case "csv", "xlsx":
	default:
		errs = append(errs, fmt.Errorf("agent.table_format: unsupported %q (csv, xlsx)", c.Agent.TableFormat))
	}

	if c.Agent.BrainSteps < 1 || c.Agent.NavigatorSteps < 1 || c.Agent.ExtractorSteps < 1 {
		errs = append(errs, errors.New("agent: step budgets must be positive"))
	}

	switch c.Logger.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logger.format: unsupported %q (json, text)", c.Logger.Format))
	}

	return errors.Join(errs...)
}

// Dump renders the configuration as YAML. Secrets are omitted.
func Dump(c *Config) (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	return string(out), nil
}
