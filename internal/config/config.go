package config

import (
	"os"
	"time"

	"github.com/bornholm/bingsearch/pkg/search/bing"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

type Config struct {
	APIKey string `yaml:"api_key"`
	// Mode is either "strict" or "safe"
	Mode string `yaml:"mode"`

	Web     WebConfig     `yaml:"web"`
	News    NewsConfig    `yaml:"news"`
	Backoff BackoffConfig `yaml:"backoff"`
	Retry   RetryConfig   `yaml:"retry"`
}

type WebConfig struct {
	URL      string `yaml:"url"`
	PageSize int    `yaml:"page_size"`
}

type NewsConfig struct {
	URL          string `yaml:"url"`
	LookbackDays int    `yaml:"lookback_days"`
	MaxPages     int    `yaml:"max_pages"`
}

type BackoffConfig struct {
	Decode       time.Duration `yaml:"decode"`
	Continuation time.Duration `yaml:"continuation"`
}

type RetryConfig struct {
	Max       int           `yaml:"max"`
	BaseDelay time.Duration `yaml:"base_delay"`
}

func Default() *Config {
	defaults := bing.DefaultConfig()

	return &Config{
		Mode: defaults.Mode.String(),
		Web: WebConfig{
			URL:      defaults.WebURL,
			PageSize: defaults.PageSize,
		},
		News: NewsConfig{
			URL:          defaults.NewsURL,
			LookbackDays: defaults.LookbackDays,
			MaxPages:     defaults.MaxPages,
		},
		Backoff: BackoffConfig{
			Decode:       defaults.DecodeBackoff,
			Continuation: defaults.ContinuationBackoff,
		},
		Retry: RetryConfig{
			Max:       0,
			BaseDelay: time.Second,
		},
	}
}

// Load reads the YAML configuration file at path over the default values. A
// missing file or an empty path yields the default configuration.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}

		return nil, errors.Wrapf(err, "could not read config file '%s'", path)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "could not parse config file '%s'", path)
	}

	return config, nil
}

// ClientConfig converts the configuration into a validated client
// configuration.
func (c *Config) ClientConfig() (bing.Config, error) {
	var errs error

	mode, err := bing.ParseMode(c.Mode)
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	if c.Retry.Max < 0 {
		errs = multierror.Append(errs, errors.Errorf("retry max must not be negative, got %d", c.Retry.Max))
	}

	clientConfig := bing.Config{
		APIKey:              c.APIKey,
		Mode:                mode,
		WebURL:              c.Web.URL,
		NewsURL:             c.News.URL,
		PageSize:            c.Web.PageSize,
		LookbackDays:        c.News.LookbackDays,
		MaxPages:            c.News.MaxPages,
		DecodeBackoff:       c.Backoff.Decode,
		ContinuationBackoff: c.Backoff.Continuation,
	}

	if err := clientConfig.Validate(); err != nil {
		errs = multierror.Append(errs, err)
	}

	if errs != nil {
		return bing.Config{}, errors.WithStack(errs)
	}

	return clientConfig, nil
}
