package html

import (
	"strings"

	"github.com/pkg/errors"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses a complete page with the HTML5 tree construction rules, so
// missing <html>, <head> and <body> elements are synthesized and
// misnested markup is repaired the way a browser would.
//
// <style> bodies are moved to Stylesheets and kept out of the tree. Inline
// scripts stay in the tree and their source is also appended to Scripts in
// document order.
func Parse(src string) (*Document, error) {
	parsed, err := nethtml.Parse(strings.NewReader(src))
	if err != nil {
		return nil, errors.Wrap(err, "parsing document")
	}

	doc := NewDocument()
	c := &converter{doc: doc}
	for n := parsed.FirstChild; n != nil; n = n.NextSibling {
		if child := c.convert(n); child != nil {
			doc.Root.AddChild(child)
		}
	}
	return doc, nil
}

// converter turns an x/net/html tree into Nodes. With a nil doc it
// converts fragment content and leaves <style> and <script> alone.
type converter struct {
	doc *Document
}

func (c *converter) convert(n *nethtml.Node) *Node {
	switch n.Type {
	case nethtml.TextNode:
		return NewText(n.Data)
	case nethtml.ElementNode:
	default:
		return nil
	}

	if c.doc != nil && isHTMLElement(n, atom.Style) {
		c.doc.Stylesheets = append(c.doc.Stylesheets, rawText(n))
		return nil
	}

	node := NewElement(n.Data)
	for _, attr := range n.Attr {
		name := attr.Key
		if attr.Namespace != "" {
			name = attr.Namespace + ":" + attr.Key
		}
		node.Attributes[name] = attr.Val
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if converted := c.convert(child); converted != nil {
			node.AddChild(converted)
		}
	}

	if c.doc != nil && isHTMLElement(n, atom.Script) && isClassicScript(node) {
		c.doc.Scripts = append(c.doc.Scripts, rawText(n))
	}
	return node
}

func isHTMLElement(n *nethtml.Node, a atom.Atom) bool {
	return n.DataAtom == a && n.Namespace == ""
}

// isClassicScript reports whether an inline script should be run: it has
// no src and either no type or a JavaScript MIME type.
func isClassicScript(n *Node) bool {
	if n.HasAttribute("src") {
		return false
	}
	typ, ok := n.GetAttribute("type")
	return !ok || IsJavaScriptType(typ)
}

// IsJavaScriptType reports whether a script type attribute names classic
// JavaScript. The empty string counts, as in browsers.
func IsJavaScriptType(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text/javascript", "application/javascript":
		return true
	}
	return false
}

func rawText(n *nethtml.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == nethtml.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
