package bing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bornholm/bingsearch/pkg/search"
)

type fakeGetter struct {
	mutex    sync.Mutex
	requests []*url.URL
	handler  func(u *url.URL) (int, string, error)
}

func (g *fakeGetter) Get(ctx context.Context, rawURL string, apiKey string) (*search.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	g.mutex.Lock()
	g.requests = append(g.requests, u)
	g.mutex.Unlock()

	status, body, err := g.handler(u)
	if err != nil {
		return nil, err
	}

	return &search.Response{StatusCode: status, Body: []byte(body), URL: rawURL}, nil
}

func (g *fakeGetter) Requests() []*url.URL {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return append([]*url.URL{}, g.requests...)
}

var _ search.Getter = &fakeGetter{}

type fakeObserver struct {
	requests []int
	degraded []string
}

func (o *fakeObserver) ObserveRequest(endpoint string, status int, duration time.Duration) {
	o.requests = append(o.requests, status)
}

func (o *fakeObserver) ObserveDegraded(endpoint string, reason string) {
	o.degraded = append(o.degraded, endpoint+":"+reason)
}

var _ Observer = &fakeObserver{}

type sleepRecorder struct {
	pauses []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.pauses = append(s.pauses, d)
	return nil
}

func newTestClient(t *testing.T, mode Mode, getter search.Getter, funcs ...ClientOptionFunc) *Client {
	t.Helper()

	config := DefaultConfig()
	config.APIKey = "secret"
	config.Mode = mode
	config.WebURL = "https://api.test/Web"
	config.NewsURL = "https://api.test/News"

	funcs = append([]ClientOptionFunc{
		WithGetter(getter),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, funcs...)

	client, err := NewClient(config, funcs...)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	return client
}

func rawResult(u string) map[string]any {
	return map[string]any{
		"Url":         u,
		"Title":       "Title of " + u,
		"Description": "Description of " + u,
		"ID":          u,
		"__metadata": map[string]any{
			"type": "WebResult",
			"uri":  "https://api.test/item?u=" + url.QueryEscape(u),
		},
	}
}

func rawNewsResult(u string, date string) map[string]any {
	raw := rawResult(u)
	raw["Date"] = date
	raw["__metadata"].(map[string]any)["type"] = "NewsResult"
	return raw
}

func responseBody(items []map[string]any, next *string) string {
	if items == nil {
		items = []map[string]any{}
	}

	d := map[string]any{
		"results": items,
	}

	if next != nil {
		d["__next"] = *next
	}

	data, err := json.Marshal(map[string]any{"d": d})
	if err != nil {
		panic(err)
	}

	return string(data)
}

func ptr(s string) *string {
	return &s
}

// webCorpus serves total generated results, honoring $top and $skip.
func webCorpus(total int) func(u *url.URL) (int, string, error) {
	return func(u *url.URL) (int, string, error) {
		query := u.Query()

		top, err := strconv.Atoi(query.Get("$top"))
		if err != nil {
			return 0, "", err
		}

		skip, err := strconv.Atoi(query.Get("$skip"))
		if err != nil {
			return 0, "", err
		}

		items := make([]map[string]any, 0, top)
		for i := skip; i < total && i < skip+top; i++ {
			items = append(items, rawResult(fmt.Sprintf("https://example.com/%d", i)))
		}

		next := ""
		if skip+top < total {
			next = fmt.Sprintf("https://api.test/Web?$skip=%d", skip+top)
		}

		return 200, responseBody(items, &next), nil
	}
}
