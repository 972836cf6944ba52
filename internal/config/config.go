// Package config loads runtime settings from flags, AIT_* environment
// variables and an optional YAML file through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. AIT_JOBS_CONCURRENCY.
const EnvPrefix = "AIT"

// DefaultFile is read when no --config is given and the file exists.
const DefaultFile = "ait.yaml"

// ProviderConfig describes one external translation or review capability.
type ProviderConfig struct {
	Provider    string        `mapstructure:"provider" json:"provider"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
	Template    string        `mapstructure:"template" json:"template"`
	RefineModel string        `mapstructure:"refine_model" json:"refine_model"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type JobsConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	Rate           float64       `mapstructure:"rate"` // provider calls per second, 0 = unlimited
	Burst          int           `mapstructure:"burst"`
	SegmentTimeout time.Duration `mapstructure:"segment_timeout"`
}

type MemoryConfig struct {
	FuzzyThreshold int `mapstructure:"fuzzy_threshold"` // 0 disables fuzzy matching
	MaxMatches     int `mapstructure:"max_matches"`
}

type ReviewConfig struct {
	// ManualSeverity sends segments with a finding of at least this
	// severity to needs_manual_review. Empty, the default, never flags a
	// segment and leaves every review to explicit completion.
	ManualSeverity string `mapstructure:"manual_severity"`
}

type ContextConfig struct {
	Window int `mapstructure:"window"`
}

type ValidationConfig struct {
	TargetLanguage bool `mapstructure:"target_language"`
}

type Config struct {
	DB         string           `mapstructure:"db"`
	Log        LogConfig        `mapstructure:"log"`
	Translator ProviderConfig   `mapstructure:"translator"`
	Reviewer   ProviderConfig   `mapstructure:"reviewer"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	Review     ReviewConfig     `mapstructure:"review"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	Context    ContextConfig    `mapstructure:"context"`
	Validation ValidationConfig `mapstructure:"validation"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		DB:  "ait.db",
		Log: LogConfig{Level: "info", Format: "text"},
		Translator: ProviderConfig{
			Provider: "ollama",
			Model:    "gemma2:27b",
			BaseURL:  "http://localhost:11434",
			Timeout:  120 * time.Second,
		},
		Reviewer: ProviderConfig{
			Provider: "ollama",
			Model:    "qwen3:14b",
			BaseURL:  "http://localhost:11434",
			Template: "default",
			Timeout:  180 * time.Second,
		},
		Jobs: JobsConfig{
			Concurrency:    4,
			Rate:           0,
			Burst:          1,
			SegmentTimeout: 5 * time.Minute,
		},
		Memory:  MemoryConfig{FuzzyThreshold: 75, MaxMatches: 5},
		Context: ContextConfig{Window: 2},
	}
}

// SetDefaults registers Defaults on v so that env and file overrides merge
// key by key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("db", d.DB)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	for prefix, p := range map[string]ProviderConfig{"translator": d.Translator, "reviewer": d.Reviewer} {
		v.SetDefault(prefix+".provider", p.Provider)
		v.SetDefault(prefix+".model", p.Model)
		v.SetDefault(prefix+".base_url", p.BaseURL)
		v.SetDefault(prefix+".api_key", p.APIKey)
		v.SetDefault(prefix+".credentials", p.Credentials)
		v.SetDefault(prefix+".project_id", p.ProjectID)
		v.SetDefault(prefix+".template", p.Template)
		v.SetDefault(prefix+".refine_model", p.RefineModel)
		v.SetDefault(prefix+".timeout", p.Timeout)
	}
	v.SetDefault("jobs.concurrency", d.Jobs.Concurrency)
	v.SetDefault("jobs.rate", d.Jobs.Rate)
	v.SetDefault("jobs.burst", d.Jobs.Burst)
	v.SetDefault("jobs.segment_timeout", d.Jobs.SegmentTimeout)
	v.SetDefault("memory.fuzzy_threshold", d.Memory.FuzzyThreshold)
	v.SetDefault("memory.max_matches", d.Memory.MaxMatches)
	v.SetDefault("review.manual_severity", d.Review.ManualSeverity)
	v.SetDefault("context.window", d.Context.Window)
	v.SetDefault("validation.target_language", d.Validation.TargetLanguage)
}

// Load reads configuration into a Config. An empty path falls back to
// DefaultFile when it exists; an explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	default:
		if _, err := os.Stat(DefaultFile); err == nil {
			v.SetConfigFile(DefaultFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", DefaultFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var (
	translatorProviders = map[string]bool{"ollama": true, "openrouter": true, "google": true}
	reviewerProviders   = map[string]bool{"ollama": true, "openrouter": true, "none": true}
)

// Validate rejects unknown providers and out-of-range numbers.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DB) == "" {
		errs = append(errs, errors.New("db path is empty"))
	}
	if !translatorProviders[c.Translator.Provider] {
		errs = append(errs, fmt.Errorf("unknown translator provider %q", c.Translator.Provider))
	}
	if c.Translator.RefineModel != "" && c.Translator.Provider == "google" {
		errs = append(errs, errors.New("translator.refine_model needs an LLM translator provider"))
	}
	if !reviewerProviders[c.Reviewer.Provider] {
		errs = append(errs, fmt.Errorf("unknown reviewer provider %q", c.Reviewer.Provider))
	}
	if c.Jobs.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("jobs.concurrency must be positive, got %d", c.Jobs.Concurrency))
	}
	if c.Jobs.Rate < 0 {
		errs = append(errs, fmt.Errorf("jobs.rate must not be negative, got %v", c.Jobs.Rate))
	}
	if c.Memory.FuzzyThreshold < 0 || c.Memory.FuzzyThreshold > 100 {
		errs = append(errs, fmt.Errorf("memory.fuzzy_threshold must be within 0..100, got %d", c.Memory.FuzzyThreshold))
	}
	switch c.Review.ManualSeverity {
	case "", "low", "medium", "high", "critical":
	default:
		errs = append(errs, fmt.Errorf("unknown review.manual_severity %q", c.Review.ManualSeverity))
	}
	if c.Context.Window < 0 {
		errs = append(errs, fmt.Errorf("context.window must not be negative, got %d", c.Context.Window))
	}
	return errors.Join(errs...)
}
