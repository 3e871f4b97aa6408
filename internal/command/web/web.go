package web

import (
	"log/slog"
	"strings"

	"github.com/bornholm/bingsearch/internal/command/common"
	"github.com/bornholm/bingsearch/internal/logx"
	"github.com/bornholm/bingsearch/pkg/search"
	"github.com/bornholm/bingsearch/pkg/search/bing"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func Web() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "query",
			Required: true,
			Aliases:  []string{"q"},
			EnvVars:  []string{"BINGSEARCH_QUERY"},
			Usage:    "Search query",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Value:   50,
			Usage:   "Maximum number of results",
		},
		&cli.IntFlag{
			Name:  "offset",
			Value: 0,
			Usage: "Number of results to skip, ignored with --all",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: string(bing.FormatJSON),
			Usage: "Response format requested to the API",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Follow continuation links until the limit is reached",
		},
	}

	flags = append(flags, common.ClientFlags()...)
	flags = append(flags, common.OutputFlags()...)

	return &cli.Command{
		Name:  "web",
		Usage: "Search the web",
		Flags: flags,
		Action: func(cliCtx *cli.Context) (err error) {
			query := strings.TrimSpace(cliCtx.String("query"))
			limit := cliCtx.Int("limit")

			format, err := bing.ParseFormat(cliCtx.String("format"))
			if err != nil {
				return errors.WithStack(err)
			}

			client, done, err := common.NewClient(cliCtx)
			if err != nil {
				return errors.Wrap(err, "could not create search client")
			}

			defer common.Done(&err, done)

			ctx := logx.WithAttrs(cliCtx.Context, slog.String("query", query))

			var results []search.Result

			if cliCtx.Bool("all") {
				slog.InfoContext(ctx, "searching web", slog.Int("limit", limit))

				results, err = client.SearchAll(ctx, query, limit, format)
				if err != nil {
					return errors.Wrap(err, "web search failed")
				}
			} else {
				offset := cliCtx.Int("offset")

				slog.InfoContext(ctx, "searching web page", slog.Int("limit", limit), slog.Int("offset", offset))

				var next string
				results, next, err = client.Search(ctx, query, limit, offset, format)
				if err != nil {
					return errors.Wrap(err, "web search failed")
				}

				if next != "" {
					slog.DebugContext(ctx, "more results available", slog.String("next", next))
				}
			}

			slog.InfoContext(ctx, "search done", slog.Int("results", len(results)))

			if err := common.WriteResults(cliCtx, query, results); err != nil {
				return errors.WithStack(err)
			}

			return nil
		},
	}
}
