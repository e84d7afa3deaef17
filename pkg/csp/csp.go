// Package csp parses, rewrites, and serializes Content-Security-Policy
// directive lists as they appear in meta tag content attributes.
//
// The wire format is `directive-name token token ...; directive-name ...`.
// Attribute values in the wild quote keyword sources either with literal
// apostrophes ('self') or with the numeric entity (&#39;self&#39;); the codec
// records which style the original used and restores it on output.
package csp

import (
	"strings"

	"golang.org/x/net/html"
)

// QuoteStyle says how apostrophes were represented in the original
// attribute value. It is detected once per value and applied uniformly to
// the whole re-serialized value.
type QuoteStyle int

const (
	QuoteLiteral QuoteStyle = iota
	QuoteEntity
)

// aposEntity is the numeric entity form of an apostrophe in markup.
const aposEntity = "&#39;"

// ScriptSrc is the directive the self policy operates on.
const ScriptSrc = "script-src"

// Directive is one named clause of a policy, e.g. `script-src 'self'`.
// Token order is preserved across a round trip.
type Directive struct {
	Name   string
	Tokens []string
}

// List is an ordered sequence of directives plus the detected quote style.
type List struct {
	Directives []Directive
	Quote      QuoteStyle
}

// Parse decodes a raw content attribute value. The value is entity-unescaped
// before splitting so both quoting styles parse identically; the quote style
// is detected against the original, pre-unescape text. Empty segments are
// discarded, order is preserved.
func Parse(raw string) List {
	list := List{Quote: QuoteLiteral}
	if strings.Contains(raw, aposEntity) {
		list.Quote = QuoteEntity
	}

	for _, segment := range strings.Split(html.UnescapeString(raw), ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		fields := strings.Fields(segment)
		list.Directives = append(list.Directives, Directive{
			Name:   fields[0],
			Tokens: fields[1:],
		})
	}
	return list
}

// Serialize renders the list back to an attribute value. Directives are
// joined with "; ", name and tokens with single spaces. When the original
// used entity quoting, every literal apostrophe is replaced with &#39; in a
// single pass over the final joined string; doing it any earlier would
// double-escape.
func (l List) Serialize() string {
	parts := make([]string, 0, len(l.Directives))
	for _, d := range l.Directives {
		parts = append(parts, strings.Join(append([]string{d.Name}, d.Tokens...), " "))
	}
	out := strings.Join(parts, "; ")
	if l.Quote == QuoteEntity {
		out = strings.ReplaceAll(out, "'", aposEntity)
	}
	return out
}

// EnsureScriptSelf makes sure a script-src directive exists and allows
// 'self'. An existing directive keeps its tokens in order, with 'self'
// appended only when no token already names it (comparison strips quotes,
// so both 'self' and "self" count). Without a script-src directive a new
// `script-src 'self'` is appended to the list.
func (l *List) EnsureScriptSelf() {
	for i := range l.Directives {
		if !strings.EqualFold(l.Directives[i].Name, ScriptSrc) {
			continue
		}
		for _, token := range l.Directives[i].Tokens {
			if strings.Trim(token, `'"`) == "self" {
				return
			}
		}
		l.Directives[i].Tokens = append(l.Directives[i].Tokens, "'self'")
		return
	}
	l.Directives = append(l.Directives, Directive{Name: ScriptSrc, Tokens: []string{"'self'"}})
}
