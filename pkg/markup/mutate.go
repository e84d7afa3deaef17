package markup

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// InjectScript ensures the document references the preview script exactly
// once. If any script element anywhere in the tree already has a src equal
// to scriptPath (case-insensitively), the document is left alone. Otherwise
// a bare `<script src=scriptPath></script>` is appended as the last child of
// body, or of the document root when no body exists. Reports whether the
// tree changed.
func InjectScript(d *Document, scriptPath string) bool {
	existing := FindFirst(d.root, func(n *html.Node) bool {
		if !IsElement(n, atom.Script) {
			return false
		}
		src, ok := Attr(n, "src")
		return ok && strings.EqualFold(src, scriptPath)
	})
	if existing != nil {
		return false
	}

	script := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
		Attr:     []html.Attribute{{Key: "src", Val: scriptPath}},
	}

	if body := FindFirst(d.root, func(n *html.Node) bool { return IsElement(n, atom.Body) }); body != nil {
		body.AppendChild(script)
	} else {
		d.root.AppendChild(script)
	}
	return true
}

// HardenLinks gives every anchor without a target attribute
// target="_blank" rel="noopener noreferrer". An anchor that already carries
// a target, whatever its value, is never touched; that is what keeps the
// operation idempotent and author overrides intact. Reports whether at
// least one anchor was modified.
func HardenLinks(d *Document) bool {
	changed := false
	for _, a := range FindAll(d.root, func(n *html.Node) bool { return IsElement(n, atom.A) }) {
		if HasAttr(a, "target") {
			continue
		}
		SetAttr(a, "target", "_blank")
		SetAttr(a, "rel", "noopener noreferrer")
		changed = true
	}
	return changed
}

// StripComments removes every comment node from the tree. Comment removal
// is housekeeping, not a patch: it never counts toward the changed flag, so
// a file whose only difference is comments is not rewritten.
func StripComments(d *Document) {
	for _, c := range FindAll(d.root, func(n *html.Node) bool { return n.Type == html.CommentNode }) {
		c.Parent.RemoveChild(c)
	}
}
