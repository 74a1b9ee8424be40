package dom

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"domkit/pkg/css"
	"domkit/pkg/html"
)

// Document owns a parsed tree and the Element wrapper of each of its
// element nodes. It is not safe for concurrent use.
type Document struct {
	EventTarget

	tree     *html.Document
	elements map[*html.Node]*Element
	factory  css.Factory
	logger   *zap.Logger
	sheets   []*css.Stylesheet
}

func NewDocument(tree *html.Document, opts ...Option) *Document {
	if tree == nil {
		tree = html.NewDocument()
	}
	d := &Document{
		tree:     tree,
		elements: make(map[*html.Node]*Element),
		factory:  css.DefaultFactory,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Parse parses src and wraps the result.
func Parse(src string, opts ...Option) (*Document, error) {
	tree, err := html.Parse(src)
	if err != nil {
		return nil, errors.Wrap(err, "parsing document")
	}
	return NewDocument(tree, opts...), nil
}

func (d *Document) Tree() *html.Document {
	return d.tree
}

func (d *Document) Root() *html.Node {
	return d.tree.Root
}

func (d *Document) Logger() *zap.Logger {
	return d.logger
}

// Element returns the wrapper for node, creating it on first use. It
// returns nil for text nodes and the document root.
func (d *Document) Element(node *html.Node) *Element {
	if node == nil || node.Type != html.ElementNode {
		return nil
	}
	if e, ok := d.elements[node]; ok {
		return e
	}
	return d.wrap(node)
}

func (d *Document) wrap(node *html.Node) *Element {
	e := newElement(d, node)
	d.elements[node] = e
	return e
}

// CreateElement returns a new detached element.
func (d *Document) CreateElement(tag string) *Element {
	return d.wrap(html.NewElement(strings.ToLower(tag)))
}

// DocumentElement returns the first element child of the root.
func (d *Document) DocumentElement() *Element {
	for _, child := range d.tree.Root.Children {
		if child.Type == html.ElementNode {
			return d.Element(child)
		}
	}
	return nil
}

// Body returns the first <body> element, or nil.
func (d *Document) Body() *Element {
	return d.firstByTag("body")
}

// Head returns the first <head> element, or nil.
func (d *Document) Head() *Element {
	return d.firstByTag("head")
}

func (d *Document) firstByTag(tag string) *Element {
	var found *html.Node
	d.tree.Root.Walk(func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.TagName == tag {
			found = n
			return true
		}
		return false
	})
	return d.Element(found)
}

func (d *Document) GetElementByID(id string) *Element {
	var found *html.Node
	d.tree.Root.Walk(func(n *html.Node) bool {
		if v, ok := n.GetAttribute("id"); ok && v == id && n.Type == html.ElementNode {
			found = n
			return true
		}
		return false
	})
	return d.Element(found)
}

func (d *Document) GetElementsByTagName(tag string) []*Element {
	tag = strings.ToLower(tag)
	return d.collect(d.tree.Root, func(n *html.Node) bool {
		return tag == "*" || n.TagName == tag
	})
}

func (d *Document) QuerySelector(selector string) (*Element, error) {
	return querySelector(d, d.tree.Root, selector)
}

func (d *Document) QuerySelectorAll(selector string) ([]*Element, error) {
	return querySelectorAll(d, d.tree.Root, selector)
}

// ComputedStyle resolves e's style from the document's stylesheets and
// its inline style attribute.
func (d *Document) ComputedStyle(e *Element) *css.Style {
	if d.sheets == nil {
		d.sheets = css.ParseStylesheets(d.tree.Stylesheets)
	}
	return css.ComputeStyle(e.node, d.sheets)
}

// AddStylesheet appends stylesheet text to the document.
func (d *Document) AddStylesheet(text string) {
	d.tree.Stylesheets = append(d.tree.Stylesheets, text)
	d.sheets = nil
}

func (d *Document) DispatchEvent(ev *Event) (bool, error) {
	d.logger.Debug("dispatch", zap.String("type", ev.Type), zap.String("target", "#document"))
	return dispatch(d, ev)
}

func (d *Document) parentTarget() Target {
	return nil
}

// collect returns the wrappers of the element descendants of root that
// satisfy match, in document order.
func (d *Document) collect(root *html.Node, match func(*html.Node) bool) []*Element {
	var out []*Element
	for _, child := range root.Children {
		child.Walk(func(n *html.Node) bool {
			if n.Type == html.ElementNode && match(n) {
				out = append(out, d.Element(n))
			}
			return false
		})
	}
	return out
}

func compileGroup(group string) ([]css.Selector, error) {
	raws := css.SplitSelectorGroup(group)
	if len(raws) == 0 {
		return nil, errors.Wrapf(ErrInvalidSelector, "%q", group)
	}
	sels := make([]css.Selector, len(raws))
	for i, raw := range raws {
		sels[i] = css.ParseSelector(raw)
		if len(sels[i].Parts) == 0 {
			return nil, errors.Wrapf(ErrInvalidSelector, "%q", raw)
		}
	}
	return sels, nil
}

func matchesAny(n *html.Node, sels []css.Selector) bool {
	for _, sel := range sels {
		if css.MatchesSelector(n, sel) {
			return true
		}
	}
	return false
}

func querySelector(d *Document, root *html.Node, group string) (*Element, error) {
	sels, err := compileGroup(group)
	if err != nil {
		return nil, err
	}
	var found *html.Node
	for _, child := range root.Children {
		if child.Walk(func(n *html.Node) bool {
			if n.Type == html.ElementNode && matchesAny(n, sels) {
				found = n
				return true
			}
			return false
		}) {
			break
		}
	}
	return d.Element(found), nil
}

func querySelectorAll(d *Document, root *html.Node, group string) ([]*Element, error) {
	sels, err := compileGroup(group)
	if err != nil {
		return nil, err
	}
	return d.collect(root, func(n *html.Node) bool { return matchesAny(n, sels) }), nil
}
