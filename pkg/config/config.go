// Package config loads the appinsights server configuration from defaults, an
// optional YAML file and APPINSIGHTS_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-appinsights/pkg/activity"
	"github.com/goliatone/go-appinsights/pkg/datasource"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "APPINSIGHTS_"

// Transports the server can run on.
const (
	TransportFiber = "fiber"
	TransportHTTP  = "http"
)

// Data source modes.
const (
	SourceMemory = "memory"
	SourceHTTP   = "http"
)

// Config holds the application configuration.
type Config struct {
	Addr        string `yaml:"addr" env:"ADDR" envDefault:":8080"`
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" envDefault:"info"`
	Transport   string `yaml:"transport" env:"TRANSPORT" envDefault:"fiber"`
	BasePath    string `yaml:"base_path" env:"BASE_PATH" envDefault:"/admin/api"`
	PagePath    string `yaml:"page_path" env:"PAGE_PATH" envDefault:"/dashboard"`

	Manifests       []string      `yaml:"manifests" env:"MANIFESTS" envSeparator:","`
	ChartAssetsHost string        `yaml:"chart_assets_host" env:"CHART_ASSETS_HOST"`
	ChartCacheTTL   time.Duration `yaml:"chart_cache_ttl" env:"CHART_CACHE_TTL" envDefault:"5m"`

	DataSource DataSource      `yaml:"data_source" envPrefix:"DATA_"`
	Activity   activity.Config `yaml:"activity" envPrefix:"ACTIVITY_"`
}

// DataSource selects where records come from.
type DataSource struct {
	Mode           string             `yaml:"mode" env:"MODE" envDefault:"memory"`
	BaseURL        string             `yaml:"base_url" env:"BASE_URL"`
	APIKey         string             `yaml:"api_key" env:"API_KEY"`
	Timeout        time.Duration      `yaml:"timeout" env:"TIMEOUT" envDefault:"10s"`
	FailureRate    float64            `yaml:"failure_rate" env:"FAILURE_RATE"`
	RebaseFixtures bool               `yaml:"rebase_fixtures" env:"REBASE_FIXTURES" envDefault:"true"`
	Latency        datasource.Latency `yaml:"latency" envPrefix:"LATENCY_"`
}

// Default returns the configuration with only defaults applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: map[string]string{},
	}); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}
	return cfg, nil
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

func load(path string, environ map[string]string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	// Defaults were applied above; this pass only picks up variables that are
	// actually set so the file keeps its values.
	opts := env.Options{Prefix: EnvPrefix, DefaultValueTagName: "-"}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	var errs []error
	c.Transport = strings.ToLower(strings.TrimSpace(c.Transport))
	if c.Transport != TransportFiber && c.Transport != TransportHTTP {
		errs = append(errs, fmt.Errorf("config: unknown transport %q", c.Transport))
	}
	c.DataSource.Mode = strings.ToLower(strings.TrimSpace(c.DataSource.Mode))
	switch c.DataSource.Mode {
	case SourceMemory:
	case SourceHTTP:
		if c.DataSource.BaseURL == "" {
			errs = append(errs, errors.New("config: data source base url is required in http mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown data source mode %q", c.DataSource.Mode))
	}
	if c.DataSource.FailureRate < 0 || c.DataSource.FailureRate > 1 {
		errs = append(errs, fmt.Errorf("config: failure rate %v outside 0..1", c.DataSource.FailureRate))
	}
	return errors.Join(errs...)
}

// Debug reports whether the log level asks for development logging.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}
