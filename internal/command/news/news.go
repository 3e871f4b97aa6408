package news

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/bornholm/bingsearch/internal/command/common"
	"github.com/bornholm/bingsearch/internal/logx"
	"github.com/bornholm/bingsearch/pkg/search"
	"github.com/bornholm/bingsearch/pkg/search/bing"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func News() *cli.Command {
	flags := append(newsFlags(),
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Value:   100,
			Usage:   "Maximum number of results",
		},
		&cli.IntFlag{
			Name:  "skip",
			Usage: "Number of results to skip, implies --single",
		},
		&cli.BoolFlag{
			Name:  "single",
			Usage: "Only fetch one page of results",
		},
	)

	return &cli.Command{
		Name:  "news",
		Usage: "Search the news",
		Flags: flags,
		Subcommands: []*cli.Command{
			Latest(),
		},
		Action: func(cliCtx *cli.Context) (err error) {
			query, err := requireQuery(cliCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			params, err := parseParams(cliCtx.StringSlice("param"))
			if err != nil {
				return errors.WithStack(err)
			}

			client, done, err := common.NewClient(cliCtx)
			if err != nil {
				return errors.Wrap(err, "could not create search client")
			}

			defer common.Done(&err, done)

			ctx := logx.WithAttrs(cliCtx.Context, slog.String("query", query))

			var pages search.Pages

			if cliCtx.Bool("single") || cliCtx.IsSet("skip") {
				skip := cliCtx.Int("skip")

				slog.InfoContext(ctx, "searching news page", slog.Int("skip", skip))

				page, err := client.SearchNews(ctx, query, skip, params)
				if err != nil {
					return errors.Wrap(err, "news search failed")
				}

				pages = search.Pages{page}
			} else {
				limit := cliCtx.Int("limit")

				slog.InfoContext(ctx, "searching news", slog.Int("limit", limit))

				pages, err = client.SearchAllNews(ctx, query,
					bing.WithLimit(limit),
					bing.WithParams(params),
				)
				if err != nil {
					return errors.Wrap(err, "news search failed")
				}
			}

			if err := writePages(cliCtx, query, pages); err != nil {
				return errors.WithStack(err)
			}

			return nil
		},
	}
}

func Latest() *cli.Command {
	flags := append(newsFlags(),
		&cli.StringFlag{
			Name:  "before",
			Usage: "Only keep news published strictly before this date",
		},
		&cli.IntFlag{
			Name:  "lookback-days",
			Usage: "Cutoff date as a number of days before today, when --before is not set",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of results, 0 means no limit",
		},
	)

	return &cli.Command{
		Name:  "latest",
		Usage: "Search the most recent news published before a cutoff date",
		Flags: flags,
		Action: func(cliCtx *cli.Context) (err error) {
			query, err := requireQuery(cliCtx)
			if err != nil {
				return errors.WithStack(err)
			}

			params, err := parseParams(cliCtx.StringSlice("param"))
			if err != nil {
				return errors.WithStack(err)
			}

			funcs := []bing.NewsOptionFunc{
				bing.WithParams(params),
				bing.WithLimit(cliCtx.Int("limit")),
			}

			if before := cliCtx.String("before"); before != "" {
				date, err := dateparse.ParseAny(before)
				if err != nil {
					return errors.Wrapf(err, "could not parse date '%s'", before)
				}

				funcs = append(funcs, bing.WithBefore(date))
			}

			if cliCtx.IsSet("lookback-days") {
				funcs = append(funcs, bing.WithLookbackDays(cliCtx.Int("lookback-days")))
			}

			client, done, err := common.NewClient(cliCtx)
			if err != nil {
				return errors.Wrap(err, "could not create search client")
			}

			defer common.Done(&err, done)

			ctx := logx.WithAttrs(cliCtx.Context, slog.String("query", query))

			slog.InfoContext(ctx, "searching latest news")

			pages, err := client.SearchLatestNews(ctx, query, funcs...)
			if err != nil {
				return errors.Wrap(err, "latest news search failed")
			}

			if err := writePages(cliCtx, query, pages); err != nil {
				return errors.WithStack(err)
			}

			return nil
		},
	}
}

func newsFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "query",
			Aliases: []string{"q"},
			EnvVars: []string{"BINGSEARCH_QUERY"},
			Usage:   "Search query",
		},
		&cli.StringSliceFlag{
			Name:    "param",
			Aliases: []string{"p"},
			Usage:   "Additional search parameter as key=value, e.g. NewsCategory='rt_Business'",
		},
		&cli.BoolFlag{
			Name:  "aggregate",
			Usage: "Merge all pages into a single list of results",
		},
	}

	flags = append(flags, common.ClientFlags()...)
	flags = append(flags, common.OutputFlags()...)

	return flags
}

// The query flag is shared with the latest subcommand, so it cannot be
// marked as required on the parent command.
func requireQuery(cliCtx *cli.Context) (string, error) {
	query := strings.TrimSpace(cliCtx.String("query"))
	if query == "" {
		return "", errors.New("the query flag is required")
	}

	return query, nil
}

func writePages(cliCtx *cli.Context, query string, pages search.Pages) error {
	slog.InfoContext(cliCtx.Context, "search done", slog.Int("pages", len(pages)), slog.Int("results", pages.Len()))

	if cliCtx.Bool("aggregate") {
		return errors.WithStack(common.WriteResults(cliCtx, query, pages.Flatten()))
	}

	return errors.WithStack(common.WritePages(cliCtx, query, pages))
}

// parseParams converts key=value pairs into search parameters. Values that
// look like integers are sent as integers.
func parseParams(raw []string) (bing.Params, error) {
	params := bing.Params{}

	for _, kv := range raw {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, errors.Errorf("invalid parameter '%s', expected key=value", kv)
		}

		if i, err := strconv.Atoi(value); err == nil {
			params[key] = i
			continue
		}

		params[key] = value
	}

	return params, nil
}
