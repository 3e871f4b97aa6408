package common

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bornholm/bingsearch/pkg/search"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.yaml.in/yaml/v3"
)

var testResults = []search.Result{
	{
		URL:         "https://go.dev/blog/go1.24",
		Title:       "Go 1.24 is released",
		Description: "The Go team is happy to announce the <b>release</b> of Go 1.24",
		ID:          "0",
		Date:        "2025-02-11T00:00:00Z",
		Meta:        search.Meta{Type: "NewsResult", URI: "https://api.test/News?id=0"},
	},
	{
		URL:         "https://www.linkedin.com/posts/go",
		Title:       "Go on LinkedIn",
		Description: "Release party",
		ID:          "1",
		Meta:        search.Meta{Type: "NewsResult", URI: "https://api.test/News?id=1"},
	},
}

func run(t *testing.T, action func(cliCtx *cli.Context) error, args ...string) (string, error) {
	t.Helper()

	var buff bytes.Buffer

	app := &cli.App{
		Name:   "bingsearch",
		Writer: &buff,
		Commands: []*cli.Command{
			{
				Name:   "test",
				Flags:  OutputFlags(),
				Action: action,
			},
		},
	}

	err := app.Run(append([]string{"bingsearch", "test"}, args...))

	return buff.String(), err
}

func writeResults(cliCtx *cli.Context) error {
	return WriteResults(cliCtx, "golang release", testResults)
}

func TestWriteResultsJSON(t *testing.T) {
	output, err := run(t, writeResults)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	var results []search.Result
	if err := json.Unmarshal([]byte(output), &results); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, testResults, results)
}

func TestWriteResultsYAML(t *testing.T) {
	output, err := run(t, writeResults, "--output-format", "yaml")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	var results []search.Result
	if err := yaml.Unmarshal([]byte(output), &results); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, testResults, results)
}

func TestWriteResultsMarkdown(t *testing.T) {
	output, err := run(t, writeResults, "--output-format", "markdown")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Contains(t, output, "# Search results")
	assert.Contains(t, output, "## 1. Go 1.24 is released")
	assert.Contains(t, output, "**URL**: https://go.dev/blog/go1.24")
	assert.Contains(t, output, "**Date**: 2025-02-11T00:00:00Z")
	assert.Contains(t, output, "**release**")
	assert.Contains(t, output, "## 2. Go on LinkedIn")
}

func TestWriteResultsExcludeAndRefine(t *testing.T) {
	output, err := run(t, writeResults, "--exclude", "*linkedin.com*")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	var results []search.Result
	if err := json.Unmarshal([]byte(output), &results); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	require.Len(t, results, 1)
	assert.Equal(t, "https://go.dev/blog/go1.24", results[0].URL)

	output, err = run(t, writeResults, "--refine", "party")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	results = nil
	if err := json.Unmarshal([]byte(output), &results); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	require.Len(t, results, 1)
	assert.Equal(t, "https://www.linkedin.com/posts/go", results[0].URL)
}

func TestWriteResultsSave(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	output, err := run(t, writeResults, "--save", "--output-format", "markdown")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Empty(t, output)

	data, err := os.ReadFile(filepath.Join(dir, "golang-release.md"))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Contains(t, string(data), "# Search results")
}

func TestWritePages(t *testing.T) {
	pages := search.Pages{
		{Results: testResults[:1], URL: "https://api.test/News?$skip=0"},
		{Results: testResults[1:], URL: "https://api.test/News?$skip=1"},
	}

	output, err := run(t, func(cliCtx *cli.Context) error {
		return WritePages(cliCtx, "golang release", pages)
	}, "--output-format", "markdown")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Contains(t, output, "# Page 1")
	assert.Contains(t, output, "**Request**: https://api.test/News?$skip=1")

	output, err = run(t, func(cliCtx *cli.Context) error {
		return WritePages(cliCtx, "golang release", pages)
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	var decoded search.Pages
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, pages, decoded)
}

func TestWriteResultsUnknownFormat(t *testing.T) {
	_, err := run(t, writeResults, "--output-format", "csv")
	assert.Error(t, err)
}
