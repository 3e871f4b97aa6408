package bing

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/bornholm/bingsearch/pkg/search"
	"github.com/pkg/errors"
)

const (
	endpointWeb  = "web"
	endpointNews = "news"
)

// Observer is notified of every round trip and of every degraded response
// handled in safe mode.
type Observer interface {
	// ObserveRequest is called after each round trip. status is 0 when no
	// response could be obtained.
	ObserveRequest(endpoint string, status int, duration time.Duration)
	// ObserveDegraded is called when a response is skipped in safe mode.
	// reason is the missing key or "body" when the body is not JSON.
	ObserveDegraded(endpoint string, reason string)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, int, time.Duration) {}
func (nopObserver) ObserveDegraded(string, string)            {}

// ClientOptions holds the collaborators of a client
type ClientOptions struct {
	Getter   search.Getter
	Logger   *slog.Logger
	Observer Observer
	Sleep    func(ctx context.Context, d time.Duration) error
	Now      func() time.Time
}

type ClientOptionFunc func(opts *ClientOptions)

// WithGetter sets the transport used to reach the API
func WithGetter(getter search.Getter) ClientOptionFunc {
	return func(opts *ClientOptions) {
		opts.Getter = getter
	}
}

// WithLogger sets the diagnostic sink of the safe mode
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(opts *ClientOptions) {
		opts.Logger = logger
	}
}

func WithObserver(observer Observer) ClientOptionFunc {
	return func(opts *ClientOptions) {
		opts.Observer = observer
	}
}

// WithSleep replaces the function used to pause in safe mode
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ClientOptionFunc {
	return func(opts *ClientOptions) {
		opts.Sleep = sleep
	}
}

// WithNow replaces the clock used to compute default cutoff dates
func WithNow(now func() time.Time) ClientOptionFunc {
	return func(opts *ClientOptions) {
		opts.Now = now
	}
}

// Client is a Bing Search API client. It is immutable and issues one request
// at a time.
type Client struct {
	config   Config
	getter   search.Getter
	logger   *slog.Logger
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

func NewClient(config Config, funcs ...ClientOptionFunc) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid client configuration")
	}

	opts := &ClientOptions{
		Getter:   search.DefaultGetter(),
		Logger:   slog.Default(),
		Observer: nopObserver{},
		Sleep:    sleep,
		Now:      time.Now,
	}
	for _, fn := range funcs {
		fn(opts)
	}

	return &Client{
		config:   config,
		getter:   opts.Getter,
		logger:   opts.Logger,
		observer: opts.Observer,
		sleep:    opts.Sleep,
		now:      opts.Now,
	}, nil
}

func (c *Client) Config() Config {
	return c.config
}

// fetchWeb executes a web search request and returns its results with the
// continuation link of the next page.
func (c *Client) fetchWeb(ctx context.Context, url string) ([]search.Result, string, error) {
	res, err := c.get(ctx, endpointWeb, url)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	data, rawResults, err := c.decode(ctx, endpointWeb, res)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	if data == nil {
		return []search.Result{}, "", nil
	}

	next, err := c.continuation(ctx, res, data)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	results, err := toResults(rawResults)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	return results, next, nil
}

// fetchNews executes a news search request and returns its results with the
// URL of the request.
func (c *Client) fetchNews(ctx context.Context, url string) ([]search.Result, string, error) {
	res, err := c.get(ctx, endpointNews, url)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	requestURL := res.URL
	if requestURL == "" {
		requestURL = url
	}

	data, rawResults, err := c.decode(ctx, endpointNews, res)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	if data == nil {
		return []search.Result{}, requestURL, nil
	}

	results, err := toResults(rawResults)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	return results, requestURL, nil
}

func (c *Client) get(ctx context.Context, endpoint string, url string) (*search.Response, error) {
	c.logger.DebugContext(ctx, "executing search", slog.String("endpoint", endpoint), slog.String("url", url))

	start := time.Now()

	res, err := c.getter.Get(ctx, url, c.config.APIKey)
	if err != nil {
		c.observer.ObserveRequest(endpoint, 0, time.Since(start))

		if !errors.Is(err, search.ErrTransport) {
			err = &search.TransportError{URL: url, Err: err}
		}

		return nil, errors.WithStack(err)
	}

	c.observer.ObserveRequest(endpoint, res.StatusCode, time.Since(start))

	return res, nil
}

// decode extracts the "d" object and its results from the response body. A
// nil object without error means that the response was degraded in safe
// mode.
func (c *Client) decode(ctx context.Context, endpoint string, res *search.Response) (map[string]any, []any, error) {
	var body map[string]any
	if err := json.Unmarshal(res.Body, &body); err != nil {
		return nil, nil, c.degrade(ctx, endpoint, res, &search.ResponseError{
			StatusCode: res.StatusCode,
			Body:       string(res.Body),
			Err:        err,
		}, c.config.DecodeBackoff)
	}

	data, ok := body["d"].(map[string]any)
	if !ok {
		return nil, nil, c.degrade(ctx, endpoint, res, &search.ResponseError{
			StatusCode: res.StatusCode,
			Body:       string(res.Body),
			Key:        "d",
		}, c.config.DecodeBackoff)
	}

	rawResults, ok := data["results"].([]any)
	if !ok {
		return nil, nil, c.degrade(ctx, endpoint, res, &search.ResponseError{
			StatusCode: res.StatusCode,
			Body:       string(res.Body),
			Key:        "results",
		}, c.config.DecodeBackoff)
	}

	return data, rawResults, nil
}

func (c *Client) continuation(ctx context.Context, res *search.Response, data map[string]any) (string, error) {
	next, ok := data["__next"].(string)
	if ok {
		return next, nil
	}

	err := c.degrade(ctx, endpointWeb, res, &search.ResponseError{
		StatusCode: res.StatusCode,
		Body:       string(res.Body),
		Key:        "__next",
	}, c.config.ContinuationBackoff)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return "", nil
}

// degrade applies the error policy: the response error is returned in strict
// mode, logged and followed by a pause in safe mode.
func (c *Client) degrade(ctx context.Context, endpoint string, res *search.Response, respErr *search.ResponseError, backoff time.Duration) error {
	if c.config.Mode == ModeStrict {
		return errors.WithStack(respErr)
	}

	reason := respErr.Key
	if reason == "" {
		reason = "body"
	}

	c.observer.ObserveDegraded(endpoint, reason)

	attrs := []any{
		slog.String("endpoint", endpoint),
		slog.Int("status", res.StatusCode),
		slog.String("body", describeBody(res.Body)),
		slog.Duration("backoff", backoff),
	}

	if respErr.Key != "" {
		attrs = append(attrs, slog.String("key", respErr.Key))
	}

	if respErr.Err != nil {
		attrs = append(attrs, slog.Any("error", respErr.Err))
	}

	c.logger.WarnContext(ctx, "unexpected search response, continuing", attrs...)

	if err := c.sleep(ctx, backoff); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func toResults(rawResults []any) ([]search.Result, error) {
	results := make([]search.Result, 0, len(rawResults))

	for i, item := range rawResults {
		raw, ok := item.(map[string]any)
		if !ok {
			return nil, errors.Wrapf(&search.MalformedResultError{Field: "results"}, "result #%d is not an object", i)
		}

		r, err := search.NewResult(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "result #%d", i)
		}

		results = append(results, r)
	}

	return results, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
