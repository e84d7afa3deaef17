// Package markup owns the per-file document tree and the idempotent
// mutations webneat applies to it: preview-script injection, link hardening,
// and the CSP meta rewrite.
//
// A Document wraps one file's parse and is single-use: created from decoded
// text, mutated in place, rendered, discarded. Nothing here is shared
// across files.
package markup

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is an exclusive, mutable parse of one file's markup. The original
// source text is retained because some decisions (CSP quote style) depend on
// the raw, pre-entity-decode attribute text that the parse no longer carries.
type Document struct {
	root   *html.Node
	source string
}

// Parse builds a Document from decoded file text.
func Parse(source string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	return &Document{root: root, source: source}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Render serializes the tree back to markup text.
func (d *Document) Render() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, d.root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FindFirst returns the first node (depth-first, document order) matching
// the predicate, or nil.
func FindFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node matching the predicate in document order.
func FindAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// IsElement reports whether n is an element with the given atom.
func IsElement(n *html.Node, a atom.Atom) bool {
	return n.Type == html.ElementNode && n.DataAtom == a
}

// Attr returns the value of the named attribute. The parser lowercases
// attribute keys, but matching stays case-insensitive for nodes built by
// hand or in foreign content.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present, whatever its value.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if strings.EqualFold(n.Attr[i].Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
