// Package keyword extracts search keywords from search-engine referrer URLs.
package keyword

import (
	"net/url"
	"strings"

	"github.com/evyataryagoni/udfkit/internal/querystring"
)

// Rule maps a host substring to the query parameter holding the search term
type Rule struct {
	HostPattern string
	Param       string
}

// DefaultRules is the built-in search engine table. Order matters: the
// first rule whose pattern is contained in the host wins.
var DefaultRules = []Rule{
	{HostPattern: "google", Param: "q"},
	{HostPattern: "bing.com", Param: "q"},
	{HostPattern: "yahoo", Param: "p"},
	{HostPattern: "ask.com", Param: "q"},
}

// Extractor finds the search keyword in a referrer URL using a rule table
type Extractor struct {
	rules []Rule
}

// NewExtractor creates an extractor with its own copy of rules
func NewExtractor(rules []Rule) *Extractor {
	own := make([]Rule, len(rules))
	copy(own, rules)
	return &Extractor{rules: own}
}

var defaultExtractor = NewExtractor(DefaultRules)

// Extract returns the keyword in referrer using DefaultRules
func Extract(referrer string) (string, bool) {
	return defaultExtractor.Extract(referrer)
}

// Extract returns the search keyword and true, or "" and false when the
// referrer is malformed or not http(s), has no query, belongs to no known
// engine, or the engine's parameter is missing or empty.
func (e *Extractor) Extract(referrer string) (string, bool) {
	u, err := url.Parse(referrer)
	if err != nil || !webSchemes[u.Scheme] {
		return "", false
	}
	if u.RawQuery == "" {
		return "", false
	}

	rule, ok := e.match(u.Hostname())
	if !ok {
		return "", false
	}

	kw, ok := querystring.Parse(u.RawQuery).Get(rule.Param)
	if !ok || kw == "" {
		return "", false
	}
	return kw, true
}

// webSchemes are the referrer schemes a search page can have.
// url.Parse lower-cases the scheme.
var webSchemes = map[string]bool{"http": true, "https": true}

// match returns the first rule whose pattern occurs in host
func (e *Extractor) match(host string) (Rule, bool) {
	host = strings.ToLower(host)
	if host == "" {
		return Rule{}, false
	}
	for _, r := range e.rules {
		if strings.Contains(host, r.HostPattern) {
			return r, true
		}
	}
	return Rule{}, false
}
