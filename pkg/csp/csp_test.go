package csp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantQuote  QuoteStyle
		wantNames  []string
		wantTokens [][]string
	}{
		{
			name:       "single directive",
			raw:        "default-src 'self'",
			wantQuote:  QuoteLiteral,
			wantNames:  []string{"default-src"},
			wantTokens: [][]string{{"'self'"}},
		},
		{
			name:       "multiple directives preserve order",
			raw:        "default-src 'none'; img-src https://cdn.example.com; script-src 'self' https://x.com",
			wantQuote:  QuoteLiteral,
			wantNames:  []string{"default-src", "img-src", "script-src"},
			wantTokens: [][]string{{"'none'"}, {"https://cdn.example.com"}, {"'self'", "https://x.com"}},
		},
		{
			name:       "entity quoting detected and unescaped",
			raw:        "script-src &#39;self&#39; https://x.com",
			wantQuote:  QuoteEntity,
			wantNames:  []string{"script-src"},
			wantTokens: [][]string{{"'self'", "https://x.com"}},
		},
		{
			name:       "empty segments discarded",
			raw:        ";; default-src 'self' ;; ",
			wantQuote:  QuoteLiteral,
			wantNames:  []string{"default-src"},
			wantTokens: [][]string{{"'self'"}},
		},
		{
			name:      "empty value",
			raw:       "",
			wantQuote: QuoteLiteral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := Parse(tt.raw)
			assert.Equal(t, tt.wantQuote, list.Quote)
			assert.Len(t, list.Directives, len(tt.wantNames))
			for i, d := range list.Directives {
				assert.Equal(t, tt.wantNames[i], d.Name)
				assert.Equal(t, tt.wantTokens[i], d.Tokens)
			}
		})
	}
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		list List
		want string
	}{
		{
			name: "literal quoting",
			list: List{Directives: []Directive{
				{Name: "default-src", Tokens: []string{"'none'"}},
				{Name: "script-src", Tokens: []string{"'self'"}},
			}},
			want: "default-src 'none'; script-src 'self'",
		},
		{
			name: "entity quoting applied once over the joined string",
			list: List{
				Quote: QuoteEntity,
				Directives: []Directive{
					{Name: "script-src", Tokens: []string{"'self'", "'unsafe-inline'"}},
				},
			},
			want: "script-src &#39;self&#39; &#39;unsafe-inline&#39;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.list.Serialize())
		})
	}
}

func TestEnsureScriptSelf(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "already contains self",
			raw:  "script-src 'self' https://x.com",
			want: "script-src 'self' https://x.com",
		},
		{
			name: "double-quoted self counts",
			raw:  `script-src "self"`,
			want: `script-src "self"`,
		},
		{
			name: "self appended to existing directive",
			raw:  "script-src https://x.com",
			want: "script-src https://x.com 'self'",
		},
		{
			name: "directive appended when absent",
			raw:  "default-src 'none'",
			want: "default-src 'none'; script-src 'self'",
		},
		{
			name: "name match is case-insensitive",
			raw:  "SCRIPT-SRC https://x.com",
			want: "SCRIPT-SRC https://x.com 'self'",
		},
		{
			name: "script-src-elem is a different directive",
			raw:  "script-src-elem 'self'",
			want: "script-src-elem 'self'; script-src 'self'",
		},
		{
			name: "whitespace normalized even when conformant",
			raw:  "script-src   'self'    https://x.com",
			want: "script-src 'self' https://x.com",
		},
		{
			name: "entity style restored around the new token",
			raw:  "default-src &#39;none&#39;",
			want: "default-src &#39;none&#39;; script-src &#39;self&#39;",
		},
		{
			name: "empty list gains script-src",
			raw:  "",
			want: "script-src 'self'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := Parse(tt.raw)
			list.EnsureScriptSelf()
			assert.Equal(t, tt.want, list.Serialize())
		})
	}
}

func TestEnsureScriptSelfIdempotent(t *testing.T) {
	list := Parse("default-src 'none'")
	list.EnsureScriptSelf()
	first := list.Serialize()

	again := Parse(first)
	again.EnsureScriptSelf()
	assert.Equal(t, first, again.Serialize())
}

func TestEntityRoundTripNoDoubleEscape(t *testing.T) {
	raw := "script-src &#39;self&#39;"
	list := Parse(raw)
	list.EnsureScriptSelf()
	out := list.Serialize()
	assert.Equal(t, raw, out)
	assert.NotContains(t, out, "&amp;#39;")
	assert.NotContains(t, out, "'")
}
