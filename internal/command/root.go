package command

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/bornholm/bingsearch/internal/logx"
	"github.com/bornholm/bingsearch/pkg/search"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	logFormatText = "text"
	logFormatJSON = "json"
)

func Main(name string, version string, usage string, commands ...*cli.Command) {
	app := NewApp(name, version, usage, commands...)

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// NewApp creates the command line application. Logs are written to the
// application error writer.
func NewApp(name string, version string, usage string, commands ...*cli.Command) *cli.App {
	app := &cli.App{
		Name:     name,
		Usage:    usage,
		Commands: commands,
		Version:  version,
		Before: func(ctx *cli.Context) error {
			if workdir := ctx.String("workdir"); workdir != "" {
				if err := os.Chdir(workdir); err != nil {
					return errors.Wrap(err, "could not change working directory")
				}
			}

			logger, err := newLogger(ctx.App.ErrWriter, ctx.String("log-level"), ctx.String("log-format"))
			if err != nil {
				return errors.WithStack(err)
			}

			slog.SetDefault(logger)

			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workdir",
				EnvVars: []string{"BINGSEARCH_WORKDIR"},
				Usage:   "The working directory, used to resolve relative output and config files",
			},
			&cli.BoolFlag{
				Name:    "debug",
				EnvVars: []string{"BINGSEARCH_DEBUG"},
				Usage:   "Print errors with their stack trace",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"BINGSEARCH_LOG_LEVEL"},
				Usage:   "Logging level: debug, info, warn or error",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "log-format",
				EnvVars: []string{"BINGSEARCH_LOG_FORMAT"},
				Usage:   "Logging format: text or json",
				Value:   logFormatText,
			},
		},
	}

	if app.ErrWriter == nil {
		app.ErrWriter = os.Stderr
	}

	app.ExitErrHandler = func(ctx *cli.Context, err error) {
		if err == nil {
			return
		}

		message := err.Error()
		if ctx.Bool("debug") {
			message = fmt.Sprintf("%+v", err)
		}

		slog.ErrorContext(ctx.Context, message, errorAttrs(err)...)
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	return app
}

func newLogger(w io.Writer, rawLevel string, format string) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(rawLevel)); err != nil {
		return nil, errors.Wrapf(err, "invalid log level '%s'", rawLevel)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler

	switch strings.ToLower(format) {
	case logFormatText:
		handler = slog.NewTextHandler(w, opts)
	case logFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, errors.Errorf("invalid log format '%s'", format)
	}

	return slog.New(logx.ContextHandler{Handler: handler}), nil
}

// errorAttrs exposes the details of search errors, e.g. the HTTP status of an
// unexpected response.
func errorAttrs(err error) []any {
	attrs := make([]any, 0)

	var responseErr *search.ResponseError
	if errors.As(err, &responseErr) {
		attrs = append(attrs, slog.Int("status", responseErr.StatusCode))
		if responseErr.Key != "" {
			attrs = append(attrs, slog.String("key", responseErr.Key))
		}
	}

	var transportErr *search.TransportError
	if errors.As(err, &transportErr) {
		attrs = append(attrs, slog.String("url", transportErr.URL))
	}

	var malformedErr *search.MalformedResultError
	if errors.As(err, &malformedErr) {
		attrs = append(attrs, slog.String("field", malformedErr.Field))
	}

	return attrs
}
