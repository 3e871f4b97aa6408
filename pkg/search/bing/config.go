package bing

import (
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

const (
	DefaultWebURL  = "https://api.datamarket.azure.com/Bing/SearchWeb/Web"
	DefaultNewsURL = "https://api.datamarket.azure.com/Bing/Search/v1/News"
)

// Mode is the error policy of a client.
type Mode int

const (
	// ModeStrict fails on the first unexpected response.
	ModeStrict Mode = iota
	// ModeSafe logs unexpected responses, pauses and carries on as if the
	// response was empty.
	ModeSafe
)

func (m Mode) String() string {
	switch m {
	case ModeSafe:
		return "safe"
	default:
		return "strict"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return ModeStrict, nil
	case "safe":
		return ModeSafe, nil
	default:
		return ModeStrict, errors.Errorf("invalid mode '%s'", s)
	}
}

// Config is the immutable configuration of a Client.
type Config struct {
	APIKey string
	Mode   Mode

	WebURL  string
	NewsURL string

	// PageSize is the maximum number of results requested per web search
	// round trip.
	PageSize int
	// LookbackDays is used to compute the default cutoff date of latest news
	// searches.
	LookbackDays int
	// MaxPages bounds the number of round trips of a news accumulation.
	MaxPages int

	// DecodeBackoff is the pause applied in safe mode when a response
	// can't be decoded.
	DecodeBackoff time.Duration
	// ContinuationBackoff is the pause applied in safe mode when a
	// response lacks its continuation link.
	ContinuationBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		Mode:                ModeStrict,
		WebURL:              DefaultWebURL,
		NewsURL:             DefaultNewsURL,
		PageSize:            50,
		LookbackDays:        7,
		MaxPages:            100,
		DecodeBackoff:       5 * time.Second,
		ContinuationBackoff: 3 * time.Second,
	}
}

func (c Config) Validate() error {
	var errs error

	if strings.TrimSpace(c.APIKey) == "" {
		errs = multierror.Append(errs, errors.New("api key is required"))
	}

	if c.Mode != ModeStrict && c.Mode != ModeSafe {
		errs = multierror.Append(errs, errors.Errorf("invalid mode %d", c.Mode))
	}

	if c.WebURL == "" {
		errs = multierror.Append(errs, errors.New("web search url is required"))
	}

	if c.NewsURL == "" {
		errs = multierror.Append(errs, errors.New("news search url is required"))
	}

	if c.PageSize <= 0 {
		errs = multierror.Append(errs, errors.Errorf("page size must be positive, got %d", c.PageSize))
	}

	if c.LookbackDays < 0 {
		errs = multierror.Append(errs, errors.Errorf("lookback days must not be negative, got %d", c.LookbackDays))
	}

	if c.MaxPages <= 0 {
		errs = multierror.Append(errs, errors.Errorf("max pages must be positive, got %d", c.MaxPages))
	}

	if c.DecodeBackoff < 0 || c.ContinuationBackoff < 0 {
		errs = multierror.Append(errs, errors.New("backoff durations must not be negative"))
	}

	return errs
}

// LogValue implements slog.LogValuer. The API key is never logged.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", c.Mode.String()),
		slog.String("webURL", c.WebURL),
		slog.String("newsURL", c.NewsURL),
		slog.Int("pageSize", c.PageSize),
		slog.Int("lookbackDays", c.LookbackDays),
		slog.Int("maxPages", c.MaxPages),
		slog.Duration("decodeBackoff", c.DecodeBackoff),
		slog.Duration("continuationBackoff", c.ContinuationBackoff),
	)
}

var _ slog.LogValuer = Config{}
