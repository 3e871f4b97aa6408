package search

import "github.com/pkg/errors"

// Result is a single search hit.
type Result struct {
	URL         string `json:"url" yaml:"url" jsonschema:"required,description=URL of the result"`
	Title       string `json:"title" yaml:"title" jsonschema:"required,description=Title of the result"`
	Description string `json:"description" yaml:"description" jsonschema:"required,description=Description of the result"`
	ID          string `json:"id" yaml:"id" jsonschema:"required,description=Identifier of the result within its page"`
	// Date is only set for time-stamped results, i.e. news.
	Date string `json:"date,omitempty" yaml:"date,omitempty" jsonschema:"description=Publication date of news results"`
	Meta Meta   `json:"meta" yaml:"meta" jsonschema:"required"`
}

type Meta struct {
	Type string `json:"type" yaml:"type" jsonschema:"required,description=Result type, mostly WebResult or NewsResult"`
	URI  string `json:"uri" yaml:"uri" jsonschema:"required,description=Search API URI of the result"`
}

func (r Result) HasDate() bool {
	return r.Date != ""
}

// NewResult builds a Result from a decoded JSON object as returned by the
// search API. Field names are case sensitive.
func NewResult(raw map[string]any) (Result, error) {
	var (
		r   Result
		err error
	)

	if r.URL, err = requireString(raw, "Url"); err != nil {
		return Result{}, errors.WithStack(err)
	}

	if r.Title, err = requireString(raw, "Title"); err != nil {
		return Result{}, errors.WithStack(err)
	}

	if r.Description, err = requireString(raw, "Description"); err != nil {
		return Result{}, errors.WithStack(err)
	}

	if r.ID, err = requireString(raw, "ID"); err != nil {
		return Result{}, errors.WithStack(err)
	}

	if date, exists := raw["Date"]; exists {
		s, ok := date.(string)
		if !ok {
			return Result{}, errors.WithStack(&MalformedResultError{Field: "Date"})
		}

		r.Date = s
	}

	rawMeta, ok := raw["__metadata"].(map[string]any)
	if !ok {
		return Result{}, errors.WithStack(&MalformedResultError{Field: "__metadata"})
	}

	if r.Meta.Type, err = requireString(rawMeta, "type"); err != nil {
		return Result{}, errors.WithStack(err)
	}

	if r.Meta.URI, err = requireString(rawMeta, "uri"); err != nil {
		return Result{}, errors.WithStack(err)
	}

	return r, nil
}

func requireString(raw map[string]any, key string) (string, error) {
	s, ok := raw[key].(string)
	if !ok {
		return "", &MalformedResultError{Field: key}
	}

	return s, nil
}

// ToMap exposes the result fields by name for consumers treating results as
// generic mappings. The "date" key is only present for dated results.
func ToMap(r Result) map[string]any {
	m := map[string]any{
		"url":         r.URL,
		"title":       r.Title,
		"description": r.Description,
		"id":          r.ID,
		"meta": map[string]any{
			"type": r.Meta.Type,
			"uri":  r.Meta.URI,
		},
	}

	if r.HasDate() {
		m["date"] = r.Date
	}

	return m
}
