package common

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bornholm/bingsearch/internal/config"
	"github.com/bornholm/bingsearch/internal/metrics"
	"github.com/bornholm/bingsearch/pkg/search"
	"github.com/bornholm/bingsearch/pkg/search/bing"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func ClientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      "config",
			Aliases:   []string{"c"},
			EnvVars:   []string{"BINGSEARCH_CONFIG"},
			Usage:     "YAML configuration file",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:    "api-key",
			EnvVars: []string{"BINGSEARCH_API_KEY"},
			Usage:   "Search API key",
		},
		&cli.BoolFlag{
			Name:    "safe",
			EnvVars: []string{"BINGSEARCH_SAFE"},
			Usage:   "Log and skip unexpected responses instead of failing",
		},
		&cli.IntFlag{
			Name:    "page-size",
			EnvVars: []string{"BINGSEARCH_PAGE_SIZE"},
			Usage:   "Maximum number of web results requested per round trip",
		},
		&cli.IntFlag{
			Name:    "max-pages",
			EnvVars: []string{"BINGSEARCH_MAX_PAGES"},
			Usage:   "Maximum number of news round trips",
		},
		&cli.IntFlag{
			Name:    "retries",
			EnvVars: []string{"BINGSEARCH_RETRIES"},
			Usage:   "Number of retries on transport failures",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			EnvVars: []string{"BINGSEARCH_TIMEOUT"},
			Usage:   "HTTP request timeout",
			Value:   30 * time.Second,
		},
		&cli.StringFlag{
			Name:      "metrics-file",
			EnvVars:   []string{"BINGSEARCH_METRICS_FILE"},
			Usage:     "Write request metrics in the Prometheus text format to this file",
			TakesFile: true,
		},
	}
}

// NewClient creates a search client from the configuration file and the
// command line flags. The returned function must be called once the client
// is no longer used.
func NewClient(cliCtx *cli.Context) (*bing.Client, func() error, error) {
	conf, err := config.Load(cliCtx.String("config"))
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	if cliCtx.IsSet("api-key") {
		conf.APIKey = cliCtx.String("api-key")
	}

	if cliCtx.IsSet("safe") {
		conf.Mode = bing.ModeStrict.String()
		if cliCtx.Bool("safe") {
			conf.Mode = bing.ModeSafe.String()
		}
	}

	if cliCtx.IsSet("page-size") {
		conf.Web.PageSize = cliCtx.Int("page-size")
	}

	if cliCtx.IsSet("max-pages") {
		conf.News.MaxPages = cliCtx.Int("max-pages")
	}

	if cliCtx.IsSet("retries") {
		conf.Retry.Max = cliCtx.Int("retries")
	}

	clientConfig, err := conf.ClientConfig()
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	slog.DebugContext(cliCtx.Context, "creating search client", slog.Any("config", clientConfig))

	var getter search.Getter = search.NewHTTPGetter(&http.Client{
		Timeout: cliCtx.Duration("timeout"),
	})

	if conf.Retry.Max > 0 {
		getter = search.WithRetry(getter, conf.Retry.Max, conf.Retry.BaseDelay,
			search.WithRetryLogger(slog.Default()),
		)
	}

	m := metrics.New()

	client, err := bing.NewClient(clientConfig,
		bing.WithGetter(getter),
		bing.WithLogger(slog.Default()),
		bing.WithObserver(m),
	)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	done := func() error {
		metricsFile := cliCtx.String("metrics-file")
		if metricsFile == "" {
			return nil
		}

		if err := m.WriteToFile(metricsFile); err != nil {
			return errors.Wrapf(err, "could not write metrics file '%s'", metricsFile)
		}

		return nil
	}

	return client, done, nil
}

// Done runs the cleanup function returned by NewClient and merges its error
// into *err. It is meant to be deferred so that metrics are also written when
// the search fails.
func Done(err *error, done func() error) {
	if doneErr := done(); doneErr != nil {
		if *err == nil {
			*err = errors.WithStack(doneErr)
			return
		}

		*err = multierror.Append(*err, doneErr)
	}
}
