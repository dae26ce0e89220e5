// Package config handles configuration loading for edgarfacts.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Companies       map[string]string `mapstructure:"companies"        yaml:"companies"` // display name → CIK
	Filing          FilingConfig      `mapstructure:"filing"           yaml:"filing"`
	TargetPeriod    string            `mapstructure:"target_period"    yaml:"target_period"` // YYYY-MM
	Metrics         []string          `mapstructure:"metrics"          yaml:"metrics"`
	AncillaryFields []string          `mapstructure:"ancillary_fields" yaml:"ancillary_fields"`
	HTTP            HTTPConfig        `mapstructure:"http"             yaml:"http"`
	Output          OutputConfig      `mapstructure:"output"           yaml:"output"`
	Pipeline        PipelineConfig    `mapstructure:"pipeline"         yaml:"pipeline"`
	Logging         LoggingConfig     `mapstructure:"logging"          yaml:"logging"`
}

// FilingConfig holds the filing search criteria.
type FilingConfig struct {
	Type      string `mapstructure:"type"      yaml:"type"`      // "10-Q", "10-K", ...
	NotAfter  string `mapstructure:"not_after" yaml:"not_after"` // filed-on-or-before bound, YYYYMMDD
	MaxCount  int    `mapstructure:"max_count" yaml:"max_count"` // candidate listing size
	Ownership string `mapstructure:"ownership" yaml:"ownership"` // "include", "exclude", "only"
	Source    string `mapstructure:"source"    yaml:"source"`    // "html" or "atom" listing
}

// HTTPConfig holds fetch client settings.
type HTTPConfig struct {
	UserAgent   string `mapstructure:"user_agent"    yaml:"user_agent"`
	TimeoutSec  int    `mapstructure:"timeout_sec"   yaml:"timeout_sec"`
	RateLimit   int    `mapstructure:"rate_limit"    yaml:"rate_limit"` // requests per second
	CacheTTLMin int    `mapstructure:"cache_ttl_min" yaml:"cache_ttl_min"`
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"` // "csv" or "xlsx"
	Path   string `mapstructure:"path"   yaml:"path"`
}

// PipelineConfig holds batch execution settings.
type PipelineConfig struct {
	Workers         int    `mapstructure:"workers"          yaml:"workers"`          // per-company parallelism, 1 = sequential
	UndatedContexts string `mapstructure:"undated_contexts" yaml:"undated_contexts"` // "report" or "allow"
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.edgarfacts/config.yaml (home directory)
//  3. /etc/edgarfacts/config.yaml (system)
//
// Environment variables override config file values.
// Format: EDGARFACTS_<SECTION>_<KEY>, e.g., EDGARFACTS_HTTP_USER_AGENT
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".edgarfacts"))
	v.AddConfigPath("/etc/edgarfacts")

	v.SetEnvPrefix("EDGARFACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("EDGARFACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Filing criteria defaults
	v.SetDefault("filing.type", "10-Q")
	v.SetDefault("filing.max_count", 100)
	v.SetDefault("filing.ownership", "include")
	v.SetDefault("filing.source", "html")

	// Ancillary descriptive tags most filers carry
	v.SetDefault("ancillary_fields", []string{
		"entityregistrantname",
		"documenttype",
		"documentfiscalperiodfocus",
		"documentperiodenddate",
		"entitycentralindexkey",
		"amendmentflag",
	})

	// HTTP defaults. EDGAR requires an identifying User-Agent and caps
	// clients at 10 requests/second; stay under it.
	v.SetDefault("http.user_agent", "edgarfacts/1.0 (github.com/seenimoa/edgarfacts)")
	v.SetDefault("http.timeout_sec", 30)
	v.SetDefault("http.rate_limit", 8)
	v.SetDefault("http.cache_ttl_min", 15)

	// Output defaults
	v.SetDefault("output.format", "xlsx")
	v.SetDefault("output.path", "metrics.xlsx")

	// Pipeline defaults
	v.SetDefault("pipeline.workers", 1)
	v.SetDefault("pipeline.undated_contexts", "report")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

var (
	periodRe   = regexp.MustCompile(`^\d{4}-\d{2}$`)
	notAfterRe = regexp.MustCompile(`^\d{8}$`)
)

// Validate checks that the configuration can drive a run. Validation
// failures are fatal: everything here is caller error, not data quality.
func (c *Config) Validate() error {
	if len(c.Companies) == 0 {
		return fmt.Errorf("companies: at least one company is required")
	}
	for name, cik := range c.Companies {
		if strings.TrimSpace(cik) == "" {
			return fmt.Errorf("companies: %q has an empty registry code", name)
		}
	}
	if len(c.Metrics) == 0 {
		return fmt.Errorf("metrics: at least one metric name is required")
	}
	if !periodRe.MatchString(c.TargetPeriod) {
		return fmt.Errorf("target_period %q: want YYYY-MM", c.TargetPeriod)
	}
	if c.Filing.NotAfter != "" && !notAfterRe.MatchString(c.Filing.NotAfter) {
		return fmt.Errorf("filing.not_after %q: want YYYYMMDD", c.Filing.NotAfter)
	}
	switch c.Filing.Ownership {
	case "include", "exclude", "only":
	default:
		return fmt.Errorf("filing.ownership %q: want include, exclude, or only", c.Filing.Ownership)
	}
	switch c.Filing.Source {
	case "html", "atom":
	default:
		return fmt.Errorf("filing.source %q: want html or atom", c.Filing.Source)
	}
	if c.Filing.MaxCount < 1 {
		return fmt.Errorf("filing.max_count %d: must be positive", c.Filing.MaxCount)
	}
	switch c.Output.Format {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("output.format %q: want csv or xlsx", c.Output.Format)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path: must not be empty")
	}
	switch c.Pipeline.UndatedContexts {
	case "report", "allow":
	default:
		return fmt.Errorf("pipeline.undated_contexts %q: want report or allow", c.Pipeline.UndatedContexts)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers %d: must be at least 1", c.Pipeline.Workers)
	}
	if c.HTTP.TimeoutSec < 1 {
		return fmt.Errorf("http.timeout_sec %d: must be positive", c.HTTP.TimeoutSec)
	}
	if c.HTTP.RateLimit < 1 {
		return fmt.Errorf("http.rate_limit %d: must be positive", c.HTTP.RateLimit)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
