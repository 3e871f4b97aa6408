package search

import (
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// ExcludeURLs returns the results whose URL matches none of the given glob
// patterns.
func ExcludeURLs(results []Result, patterns ...string) ([]Result, error) {
	if len(patterns) == 0 {
		return results, nil
	}

	excluded := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		pattern, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid url pattern '%s'", p)
		}

		excluded = append(excluded, pattern)
	}

	filtered := make([]Result, 0, len(results))

	for _, r := range results {
		match := false
		for _, p := range excluded {
			if p.Match(r.URL) {
				match = true
				break
			}
		}

		if match {
			continue
		}

		filtered = append(filtered, r)
	}

	return filtered, nil
}
