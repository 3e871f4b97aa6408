package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/bornholm/bingsearch/pkg/search"
	"github.com/bornholm/bingsearch/pkg/search/index"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.yaml.in/yaml/v3"
)

const (
	OutputJSON     = "json"
	OutputYAML     = "yaml"
	OutputMarkdown = "markdown"
)

var extensions = map[string]string{
	OutputJSON:     ".json",
	OutputYAML:     ".yaml",
	OutputMarkdown: ".md",
}

func OutputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output-format",
			Aliases: []string{"f"},
			EnvVars: []string{"BINGSEARCH_OUTPUT_FORMAT"},
			Usage:   "Output format: json, yaml or markdown",
			Value:   OutputJSON,
		},
		&cli.StringFlag{
			Name:      "output",
			Aliases:   []string{"o"},
			EnvVars:   []string{"BINGSEARCH_OUTPUT"},
			Usage:     "Output file, default to stdout",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Write the output to a file named after the query",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Drop results whose URL matches this glob pattern",
		},
		&cli.StringFlag{
			Name:  "refine",
			Usage: "Only keep results matching this full text query, best matches first",
		},
	}
}

// Filter applies the --exclude and --refine flags to the given results.
func Filter(cliCtx *cli.Context, results []search.Result) ([]search.Result, error) {
	results, err := search.ExcludeURLs(results, cliCtx.StringSlice("exclude")...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if refine := cliCtx.String("refine"); refine != "" && len(results) > 0 {
		results, err = index.Refine(results, refine)
		if err != nil {
			return nil, errors.Wrapf(err, "could not refine results with '%s'", refine)
		}
	}

	return results, nil
}

// WriteResults renders the results in the requested format.
func WriteResults(cliCtx *cli.Context, query string, results []search.Result) error {
	results, err := Filter(cliCtx, results)
	if err != nil {
		return errors.WithStack(err)
	}

	return write(cliCtx, query, results, func(w io.Writer) error {
		return renderMarkdown(w, results)
	})
}

// WritePages renders each page separately in the requested format.
func WritePages(cliCtx *cli.Context, query string, pages search.Pages) error {
	filtered := make(search.Pages, 0, len(pages))
	for _, p := range pages {
		results, err := Filter(cliCtx, p.Results)
		if err != nil {
			return errors.WithStack(err)
		}

		filtered = append(filtered, search.Page{Results: results, URL: p.URL})
	}

	return write(cliCtx, query, filtered, func(w io.Writer) error {
		for i, p := range filtered {
			if _, err := fmt.Fprintf(w, "# Page %d\n\n**Request**: %s\n\n", i+1, p.URL); err != nil {
				return errors.WithStack(err)
			}

			if err := renderMarkdown(w, p.Results); err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	})
}

func write(cliCtx *cli.Context, query string, value any, markdown func(w io.Writer) error) error {
	format := strings.ToLower(cliCtx.String("output-format"))

	ext, exists := extensions[format]
	if !exists {
		return errors.Errorf("unknown output format '%s'", format)
	}

	var buff bytes.Buffer

	switch format {
	case OutputJSON:
		encoder := json.NewEncoder(&buff)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(value); err != nil {
			return errors.Wrap(err, "could not encode results")
		}

	case OutputYAML:
		encoder := yaml.NewEncoder(&buff)
		if err := encoder.Encode(value); err != nil {
			return errors.Wrap(err, "could not encode results")
		}
		if err := encoder.Close(); err != nil {
			return errors.WithStack(err)
		}

	case OutputMarkdown:
		if err := markdown(&buff); err != nil {
			return errors.WithStack(err)
		}
	}

	output := cliCtx.String("output")
	if output == "" && cliCtx.Bool("save") {
		output = slug.Make(query) + ext
	}

	if output == "" {
		if _, err := cliCtx.App.Writer.Write(buff.Bytes()); err != nil {
			return errors.WithStack(err)
		}

		return nil
	}

	if err := os.WriteFile(output, buff.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "failed to write results")
	}

	slog.InfoContext(cliCtx.Context, "results written", slog.String("output", output))

	return nil
}

func renderMarkdown(w io.Writer, results []search.Result) error {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)

	var sb strings.Builder

	sb.WriteString("# Search results\n\n")

	for i, r := range results {
		description, err := conv.ConvertString(r.Description)
		if err != nil {
			description = r.Description
		}

		sb.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, r.Title))
		sb.WriteString(fmt.Sprintf("**URL**: %s\n", r.URL))

		if r.HasDate() {
			sb.WriteString(fmt.Sprintf("**Date**: %s\n", r.Date))
		}

		sb.WriteString(fmt.Sprintf("**Description**:\n%s\n\n", strings.TrimSpace(description)))
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
