package search

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// Response is a raw API response.
type Response struct {
	StatusCode int
	Body       []byte
	// URL is the final URL of the request, query string included.
	URL string
}

// Getter issues authenticated GET requests against the search API. The API
// key is sent as the password of an HTTP basic authentication with an empty
// username.
//
// Implementations return an error only when no response could be obtained;
// non 2xx responses are returned as is so that callers can report their body.
type Getter interface {
	Get(ctx context.Context, url string, apiKey string) (*Response, error)
}

type HTTPGetter struct {
	client *http.Client
}

// Restrict response bodies to 4MB
const maxBodySize = 4e+6

// Get implements Getter.
func (g *HTTPGetter) Get(ctx context.Context, url string, apiKey string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WithStack(&TransportError{URL: url, Err: err})
	}

	req.SetBasicAuth("", apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return nil, errors.WithStack(&TransportError{URL: url, Err: err})
	}

	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, errors.WithStack(&TransportError{URL: url, Err: err})
	}

	return &Response{
		StatusCode: res.StatusCode,
		Body:       body,
		URL:        res.Request.URL.String(),
	}, nil
}

func NewHTTPGetter(client *http.Client) *HTTPGetter {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPGetter{
		client: client,
	}
}

var _ Getter = &HTTPGetter{}

var defaultGetter Getter = NewHTTPGetter(http.DefaultClient)

func SetDefaultGetter(getter Getter) {
	defaultGetter = getter
}

func DefaultGetter() Getter {
	return defaultGetter
}
