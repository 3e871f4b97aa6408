package bing

import (
	"context"
	"log/slog"
	"time"

	"github.com/araddon/dateparse"
	"github.com/bornholm/bingsearch/pkg/search"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

const (
	paramNewsSortBy = "NewsSortBy"
	sortByDate      = "'Date'"
)

// NewsOptions configures a news accumulation
type NewsOptions struct {
	// Limit is the maximum number of results kept, 0 means no limit.
	Limit  int
	Params Params
	// MaxPages bounds the number of round trips.
	MaxPages int
	// Before is the explicit cutoff date of latest news searches.
	Before time.Time
	// LookbackDays is used to compute the cutoff date when Before is not set.
	LookbackDays int
}

type NewsOptionFunc func(opts *NewsOptions)

func WithLimit(limit int) NewsOptionFunc {
	return func(opts *NewsOptions) {
		opts.Limit = limit
	}
}

// WithParams sets additional search parameters, e.g. NewsCategory
func WithParams(params Params) NewsOptionFunc {
	return func(opts *NewsOptions) {
		opts.Params = params
	}
}

func WithMaxPages(maxPages int) NewsOptionFunc {
	return func(opts *NewsOptions) {
		opts.MaxPages = maxPages
	}
}

// WithBefore sets the cutoff date of a latest news search
func WithBefore(before time.Time) NewsOptionFunc {
	return func(opts *NewsOptions) {
		opts.Before = before
	}
}

func WithLookbackDays(days int) NewsOptionFunc {
	return func(opts *NewsOptions) {
		opts.LookbackDays = days
	}
}

// SearchNews returns a single page of news results starting at skip. The
// page URL is the URL of the request.
func (c *Client) SearchNews(ctx context.Context, query string, skip int, params Params) (search.Page, error) {
	url, err := BuildNewsURL(c.config.NewsURL, query, FormatJSON, skip, params)
	if err != nil {
		return search.Page{}, errors.WithStack(err)
	}

	results, requestURL, err := c.fetchNews(ctx, url)
	if err != nil {
		return search.Page{}, errors.WithStack(err)
	}

	return search.Page{Results: results, URL: requestURL}, nil
}

// SearchAllNews accumulates news results, deduplicated by URL, until the
// limit is reached, a page is empty or the API repeats its previous page.
func (c *Client) SearchAllNews(ctx context.Context, query string, funcs ...NewsOptionFunc) (search.Pages, error) {
	opts, err := c.newsOptions(100, funcs)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pages, err := c.accumulateNews(ctx, query, opts, opts.Params, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return pages, nil
}

// SearchLatestNews accumulates news results sorted by date and published
// strictly before the cutoff date, deduplicated by URL. The cutoff date is
// either the one given with WithBefore or today minus the lookback window.
func (c *Client) SearchLatestNews(ctx context.Context, query string, funcs ...NewsOptionFunc) (search.Pages, error) {
	opts, err := c.newsOptions(0, funcs)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cutoff := c.cutoff(opts)

	params := opts.Params.clone()
	params[paramNewsSortBy] = sortByDate

	c.logger.DebugContext(ctx, "searching latest news", slog.String("cutoff", cutoff.Format(time.DateOnly)))

	inWindow := func(r search.Result) (bool, error) {
		if !r.HasDate() {
			return false, errors.WithStack(&search.MalformedResultError{Field: "Date"})
		}

		published, err := dateparse.ParseAny(r.Date)
		if err != nil {
			return false, errors.Wrapf(&search.MalformedResultError{Field: "Date"}, "could not parse '%s': %v", r.Date, err)
		}

		return calendarDate(published).Before(cutoff), nil
	}

	pages, err := c.accumulateNews(ctx, query, opts, params, inWindow)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return pages, nil
}

func (c *Client) newsOptions(limit int, funcs []NewsOptionFunc) (*NewsOptions, error) {
	opts := &NewsOptions{
		Limit:        limit,
		Params:       Params{},
		MaxPages:     c.config.MaxPages,
		LookbackDays: c.config.LookbackDays,
	}
	for _, fn := range funcs {
		fn(opts)
	}

	if opts.Params == nil {
		opts.Params = Params{}
	}

	var errs error

	if opts.Limit < 0 {
		errs = multierror.Append(errs, errors.Wrapf(ErrNegativeBound, "limit=%d", opts.Limit))
	}

	if opts.LookbackDays < 0 {
		errs = multierror.Append(errs, errors.Wrapf(ErrNegativeBound, "lookback days=%d", opts.LookbackDays))
	}

	if opts.MaxPages <= 0 {
		errs = multierror.Append(errs, errors.Wrapf(ErrInvalidParam, "max pages must be positive, got %d", opts.MaxPages))
	}

	if errs != nil {
		return nil, errs
	}

	return opts, nil
}

func (c *Client) cutoff(opts *NewsOptions) time.Time {
	if !opts.Before.IsZero() {
		return calendarDate(opts.Before)
	}

	return calendarDate(c.now()).AddDate(0, 0, -opts.LookbackDays)
}

// calendarDate drops the time of day, keeping the date as seen in the
// location of t.
func calendarDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// accumulateNews drives the news pagination. When keep is set, only results
// it accepts are retained and the loop stops as soon as a page brings no new
// accepted result after some have been retained.
func (c *Client) accumulateNews(ctx context.Context, query string, opts *NewsOptions, params Params, keep func(r search.Result) (bool, error)) (search.Pages, error) {
	seen := make(map[string]struct{})
	pages := make(search.Pages, 0)

	skip := 0
	kept := 0
	previousLastURL := ""

	for i := 0; i < opts.MaxPages; i++ {
		page, err := c.SearchNews(ctx, query, skip, params)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if len(page.Results) == 0 {
			c.logger.DebugContext(ctx, "empty news page, stopping", slog.Int("page", i))
			break
		}

		lastURL := page.Results[len(page.Results)-1].URL
		if i > 0 && lastURL == previousLastURL {
			c.logger.DebugContext(ctx, "news page repeated, stopping", slog.Int("page", i), slog.String("lastURL", lastURL))
			break
		}

		previousLastURL = lastURL
		skip += len(page.Results)

		selected := make([]search.Result, 0, len(page.Results))
		for _, r := range page.Results {
			if _, exists := seen[r.URL]; exists {
				continue
			}

			if keep != nil {
				ok, err := keep(r)
				if err != nil {
					return nil, errors.WithStack(err)
				}

				if !ok {
					continue
				}
			}

			seen[r.URL] = struct{}{}
			selected = append(selected, r)
		}

		if opts.Limit > 0 && kept+len(selected) > opts.Limit {
			selected = selected[:opts.Limit-kept]
		}

		hadKept := kept > 0
		kept += len(selected)

		pages = append(pages, search.Page{Results: selected, URL: page.URL})

		if opts.Limit > 0 && kept >= opts.Limit {
			break
		}

		if keep != nil && hadKept && len(selected) == 0 {
			c.logger.DebugContext(ctx, "no new news in window, stopping", slog.Int("page", i))
			break
		}
	}

	return pages, nil
}
