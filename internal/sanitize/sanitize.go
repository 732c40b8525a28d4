// Package sanitize screens user-submitted report text for HTML.
//
// Reports are plain text and are stored exactly as typed; the JSON encoder
// makes them safe for the API and clients escape on render. What this
// package does is refuse real HTML elements, so "<script>" in a title is a
// validation error while "x<y" or a literal "&amp;" go through untouched.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// tagPattern finds fragments shaped like an opening, closing or
// self-closing tag. The name is checked against elements below.
var tagPattern = regexp.MustCompile(`<\s*/?\s*([a-zA-Z][a-zA-Z0-9]*)\b[^<>]*>`)

var elements = map[string]bool{
	"a": true, "abbr": true, "audio": true, "b": true, "base": true, "body": true,
	"br": true, "button": true, "code": true, "div": true, "em": true, "embed": true,
	"font": true, "form": true, "frame": true, "frameset": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "head": true, "hr": true,
	"html": true, "i": true, "iframe": true, "img": true, "input": true, "link": true,
	"li": true, "marquee": true, "math": true, "meta": true, "object": true, "ol": true,
	"p": true, "pre": true, "s": true, "script": true, "select": true, "small": true,
	"source": true, "span": true, "strong": true, "style": true, "sub": true, "sup": true,
	"svg": true, "table": true, "td": true, "textarea": true, "th": true, "title": true,
	"tr": true, "u": true, "ul": true, "video": true,
}

// Text trims surrounding whitespace. The content is otherwise unchanged.
func Text(s string) string {
	return strings.TrimSpace(s)
}

// ContainsMarkup reports whether s holds an HTML element. A fragment counts
// only if it names a known element and bluemonday's strict policy removes
// it entirely, i.e. an HTML parser would treat it as a tag.
func ContainsMarkup(s string) bool {
	if !strings.Contains(s, "<") {
		return false
	}
	for _, m := range tagPattern.FindAllStringSubmatch(s, -1) {
		if elements[strings.ToLower(m[1])] && strict.Sanitize(m[0]) == "" {
			return true
		}
	}
	return false
}
