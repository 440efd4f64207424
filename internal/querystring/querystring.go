// Package querystring parses URL query strings into an ordered multimap
// and serializes them back.
//
// Unlike url.Values, a Query keeps parameters in their original order and
// a lookup by key returns the first match.
package querystring

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Param is a single percent-decoded key/value pair
type Param struct {
	Key   string
	Value string
}

// Query is an ordered list of parameters. Duplicate keys are allowed.
type Query struct {
	params []Param
}

// New returns an empty query for building a query string with Add
func New() *Query {
	return &Query{}
}

// Parse decodes a raw query string (without the leading '?').
//
// Segments are separated by '&' and split on their first '='. A segment
// without '=' becomes a parameter with an empty value. Empty segments
// ("a=1&&b=2", or an empty raw string) are dropped rather than kept as an
// empty key. Segments that fail to decode are dropped and parsing
// continues with the rest.
func Parse(raw string) *Query {
	q, _ := ParseWithErrors(raw)
	return q
}

// ParseWithErrors works like Parse but also reports every dropped segment.
// The returned query is always usable; the error is nil when nothing was dropped.
func ParseWithErrors(raw string) (*Query, error) {
	q := New()
	var errs []error

	for _, segment := range strings.Split(raw, "&") {
		if segment == "" {
			continue
		}

		rawKey, rawValue, _ := strings.Cut(segment, "=")

		key, err := decode(rawKey)
		if err != nil {
			errs = append(errs, fmt.Errorf("segment %q: key: %w", segment, err))
			continue
		}
		value, err := decode(rawValue)
		if err != nil {
			errs = append(errs, fmt.Errorf("segment %q: value: %w", segment, err))
			continue
		}

		q.params = append(q.params, Param{Key: key, Value: value})
	}

	return q, errors.Join(errs...)
}

func decode(s string) (string, error) {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(out) {
		return "", errors.New("not valid UTF-8")
	}
	return out, nil
}

// Add appends a parameter
func (q *Query) Add(key, value string) {
	q.params = append(q.params, Param{Key: key, Value: value})
}

// Get returns the value of the first parameter named key
func (q *Query) Get(key string) (string, bool) {
	for _, p := range q.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// GetAll returns the values of every parameter named key, in order.
// The result is empty, never nil, when there is no match.
func (q *Query) GetAll(key string) []string {
	values := []string{}
	for _, p := range q.params {
		if p.Key == key {
			values = append(values, p.Value)
		}
	}
	return values
}

// Len returns the number of parameters
func (q *Query) Len() int {
	return len(q.params)
}

// Params returns a copy of the parameters in order
func (q *Query) Params() []Param {
	out := make([]Param, len(q.params))
	copy(out, q.params)
	return out
}

// String serializes the query. Keys and values are form-encoded and
// "=value" is written only for non-empty values, so parameters that
// had an explicit empty value lose their '='.
func (q *Query) String() string {
	var b strings.Builder
	for i, p := range q.params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		if p.Value != "" {
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(p.Value))
		}
	}
	return b.String()
}
