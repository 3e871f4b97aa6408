package search

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestExcludeURLs(t *testing.T) {
	results := []Result{
		{URL: "https://www.linkedin.com/in/someone"},
		{URL: "https://example.com/page"},
		{URL: "https://docs.example.org/guide"},
	}

	filtered, err := ExcludeURLs(results, "*linkedin.com*", "https://docs.*")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, []Result{{URL: "https://example.com/page"}}, filtered)
}

func TestExcludeURLsWithoutPatterns(t *testing.T) {
	results := []Result{{URL: "https://example.com"}}

	filtered, err := ExcludeURLs(results)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	assert.Equal(t, results, filtered)
}

func TestExcludeURLsInvalidPattern(t *testing.T) {
	_, err := ExcludeURLs([]Result{{URL: "https://example.com"}}, "[")
	assert.Error(t, err)
}
