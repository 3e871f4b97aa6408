package bing

import (
	"context"
	"log/slog"

	"github.com/bornholm/bingsearch/pkg/search"
	"github.com/pkg/errors"
)

// Search returns a single page of at most limit web results starting at
// offset, and the continuation link of the next page (empty on the last one).
func (c *Client) Search(ctx context.Context, query string, limit int, offset int, format Format) ([]search.Result, string, error) {
	url, err := BuildWebURL(c.config.WebURL, query, limit, offset, format)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	results, next, err := c.fetchWeb(ctx, url)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	return results, next, nil
}

// SearchAll accumulates up to limit web results, page after page. It stops
// early, without error, when a page is empty or has no continuation link.
func (c *Client) SearchAll(ctx context.Context, query string, limit int, format Format) ([]search.Result, error) {
	if limit < 0 {
		return nil, errors.Wrapf(ErrNegativeBound, "limit=%d", limit)
	}

	results := make([]search.Result, 0, min(limit, c.config.PageSize))

	for len(results) < limit {
		remaining := limit - len(results)

		page, next, err := c.Search(ctx, query, min(remaining, c.config.PageSize), len(results), format)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if len(page) == 0 {
			c.logger.DebugContext(ctx, "empty page, stopping", slog.Int("total", len(results)))
			break
		}

		if len(page) > remaining {
			page = page[:remaining]
		}

		results = append(results, page...)

		if next == "" {
			c.logger.DebugContext(ctx, "no continuation link, stopping", slog.Int("total", len(results)))
			break
		}
	}

	return results, nil
}
