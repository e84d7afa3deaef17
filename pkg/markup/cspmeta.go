package markup

import (
	"strings"

	"github.com/fulmenhq/webneat/pkg/csp"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EnsureCSPSelf rewrites the security-policy meta tag so that script-src
// allows 'self'. A document without such a meta, or with one lacking a
// content attribute, is left unchanged.
//
// The changed flag is an exact string comparison between the re-serialized
// directive list and the raw attribute text as written in the source file.
// Comparing raw text rather than a did-we-touch-it boolean is what makes
// the operation idempotent: an already-conformant value — in either quoting
// style — serializes back to its own raw text and reports unchanged, while
// a value that merely needs whitespace normalization still counts as a
// change.
func EnsureCSPSelf(d *Document) bool {
	meta := FindFirst(d.root, isCSPMeta)
	if meta == nil {
		return false
	}
	parsedVal, ok := Attr(meta, "content")
	if !ok {
		return false
	}

	// The tree stores entity-decoded attribute values, so quote-style
	// detection needs the raw text recovered from the source.
	raw, ok := rawCSPMetaContent(d.source)
	if !ok {
		raw = parsedVal
	}

	list := csp.Parse(raw)
	list.EnsureScriptSelf()
	out := list.Serialize()
	if out == raw {
		return false
	}

	// The tree wants the decoded form; the renderer re-escapes on output.
	SetAttr(meta, "content", html.UnescapeString(out))
	return true
}

// isCSPMeta matches `<meta http-equiv="Content-Security-Policy">` and the
// legacy X- prefixed form, case-insensitively.
func isCSPMeta(n *html.Node) bool {
	if !IsElement(n, atom.Meta) {
		return false
	}
	equiv, ok := Attr(n, "http-equiv")
	if !ok {
		return false
	}
	return strings.EqualFold(equiv, "Content-Security-Policy") ||
		strings.EqualFold(equiv, "X-Content-Security-Policy")
}

// rawCSPMetaContent scans the source text for the first security-policy
// meta tag and returns its content attribute exactly as written, entities
// and all.
func rawCSPMetaContent(source string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(source))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "meta" || !hasAttr {
				continue
			}
			// Raw must be copied before further tokenizer calls.
			raw := string(append([]byte(nil), z.Raw()...))

			isCSP := false
			for {
				key, val, more := z.TagAttr()
				if strings.EqualFold(string(key), "http-equiv") {
					v := string(val)
					if strings.EqualFold(v, "Content-Security-Policy") ||
						strings.EqualFold(v, "X-Content-Security-Policy") {
						isCSP = true
					}
				}
				if !more {
					break
				}
			}
			if !isCSP {
				continue
			}
			return rawAttrValue(raw, "content")
		}
	}
}

// rawAttrValue extracts the named attribute's value from a raw tag, without
// entity decoding. Handles double-quoted, single-quoted, and unquoted
// values per the HTML attribute grammar; the tokenizer has already accepted
// the tag, so the scan can stay simple.
func rawAttrValue(tag, name string) (string, bool) {
	i := 1 // past '<'
	for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}
	for i < len(tag) {
		for i < len(tag) && (isTagSpace(tag[i]) || tag[i] == '/') {
			i++
		}
		if i >= len(tag) || tag[i] == '>' {
			break
		}

		start := i
		for i < len(tag) && tag[i] != '=' && !isTagSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
			i++
		}
		attrName := tag[start:i]

		for i < len(tag) && isTagSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] != '=' {
			continue // valueless attribute
		}
		i++
		for i < len(tag) && isTagSpace(tag[i]) {
			i++
		}

		var val string
		if i < len(tag) && (tag[i] == '"' || tag[i] == '\'') {
			quote := tag[i]
			i++
			vs := i
			for i < len(tag) && tag[i] != quote {
				i++
			}
			val = tag[vs:i]
			if i < len(tag) {
				i++
			}
		} else {
			vs := i
			for i < len(tag) && !isTagSpace(tag[i]) && tag[i] != '>' {
				i++
			}
			val = tag[vs:i]
		}

		if strings.EqualFold(attrName, name) {
			return val, true
		}
	}
	return "", false
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
