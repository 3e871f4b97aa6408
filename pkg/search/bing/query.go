package bing

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var (
	ErrEmptyQuery    = errors.New("query must not be empty")
	ErrNegativeBound = errors.New("top and skip must not be negative")
	ErrInvalidFormat = errors.New("invalid format")
	ErrReservedParam = errors.New("reserved parameter")
	ErrInvalidParam  = errors.New("invalid parameter value")
)

type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatXML:
		return f, nil
	default:
		return "", errors.Wrapf(ErrInvalidFormat, "'%s'", s)
	}
}

const (
	paramQuery  = "Query"
	paramTop    = "$top"
	paramSkip   = "$skip"
	paramFormat = "$format"
)

// reservedParams cannot be set through Params.
var reservedParams = []string{paramQuery, paramFormat, paramSkip}

// Params holds additional news search parameters, e.g. NewsCategory or
// NewsSortBy. Values must be strings or numbers.
type Params map[string]any

func (p Params) clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

func (p Params) validate() error {
	var errs error

	for _, key := range p.keys() {
		if slices.Contains(reservedParams, key) {
			errs = multierror.Append(errs, errors.Wrapf(ErrReservedParam, "'%s'", key))
			continue
		}

		if _, err := formatParam(p[key]); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "'%s'", key))
		}
	}

	return errs
}

func (p Params) keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func formatParam(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", errors.Wrapf(ErrInvalidParam, "unsupported type %T", value)
	}
}

// escape percent-encodes s for use in a query string, spaces included.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// quote wraps the query in single quotes, the literal string syntax of the
// search API, and percent-encodes it. Single quotes inside the query are
// doubled.
func quote(query string) string {
	return escape("'" + strings.ReplaceAll(query, "'", "''") + "'")
}

func checkQuery(query string, format Format) error {
	if strings.TrimSpace(query) == "" {
		return errors.WithStack(ErrEmptyQuery)
	}

	if format != FormatJSON && format != FormatXML {
		return errors.Wrapf(ErrInvalidFormat, "'%s'", format)
	}

	return nil
}

// BuildWebURL returns the web search URL for the given query and page bounds.
func BuildWebURL(endpoint string, query string, top int, skip int, format Format) (string, error) {
	if err := checkQuery(query, format); err != nil {
		return "", err
	}

	if top < 0 || skip < 0 {
		return "", errors.Wrapf(ErrNegativeBound, "top=%d, skip=%d", top, skip)
	}

	return fmt.Sprintf("%s?%s=%s&%s=%d&%s=%d&%s=%s", endpoint,
		paramQuery, quote(query),
		paramTop, top,
		paramSkip, skip,
		paramFormat, format,
	), nil
}

// BuildNewsURL returns the news search URL for the given query, offset and
// additional parameters.
func BuildNewsURL(endpoint string, query string, format Format, skip int, params Params) (string, error) {
	if err := checkQuery(query, format); err != nil {
		return "", err
	}

	if skip < 0 {
		return "", errors.Wrapf(ErrNegativeBound, "skip=%d", skip)
	}

	if err := params.validate(); err != nil {
		return "", errors.WithStack(err)
	}

	var sb strings.Builder

	sb.WriteString(endpoint)
	sb.WriteString(fmt.Sprintf("?%s=%s&%s=%s&%s=%d", paramQuery, quote(query), paramFormat, format, paramSkip, skip))

	for _, key := range params.keys() {
		value, _ := formatParam(params[key])
		sb.WriteString("&")
		sb.WriteString(escape(key))
		sb.WriteString("=")
		sb.WriteString(escape(value))
	}

	return sb.String(), nil
}
