package dom

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"domkit/pkg/html"
)

// Element is the scriptable view of one element node. The presentational
// fields are plain values assigned by whoever embeds the document; there
// is no layout to compute them.
type Element struct {
	EventTarget

	node *html.Node
	doc  *Document

	TabIndex int

	OffsetHeight int
	OffsetWidth  int
	OffsetLeft   int
	OffsetTop    int
	ClientHeight int
	ClientWidth  int

	style *styleCache
}

func newElement(doc *Document, node *html.Node) *Element {
	e := &Element{node: node, doc: doc, TabIndex: -1}
	if v, ok := node.GetAttribute("tabindex"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			e.TabIndex = n
		}
	}
	return e
}

func (e *Element) Node() *html.Node {
	return e.node
}

func (e *Element) OwnerDocument() *Document {
	return e.doc
}

func (e *Element) TagName() string {
	return e.node.TagName
}

func (e *Element) ID() string {
	id, _ := e.node.GetAttribute("id")
	return id
}

// GetAttribute looks name up case-insensitively, matching SetAttribute.
func (e *Element) GetAttribute(name string) (string, bool) {
	return e.node.GetAttribute(strings.ToLower(name))
}

// SetAttribute writes an attribute. Writing style invalidates the cached
// style declaration on its next read.
func (e *Element) SetAttribute(name, value string) {
	e.node.SetAttribute(strings.ToLower(name), value)
}

func (e *Element) RemoveAttribute(name string) {
	e.node.RemoveAttribute(strings.ToLower(name))
}

func (e *Element) HasAttribute(name string) bool {
	return e.node.HasAttribute(strings.ToLower(name))
}

// InnerText returns the text of all descendant text nodes.
func (e *Element) InnerText() string {
	return e.node.TextContent()
}

// SetInnerText replaces every child with a single text node. An empty
// string leaves the element without children.
func (e *Element) SetInnerText(text string) {
	e.node.SetTextContent(text)
}

func (e *Element) InnerHTML() string {
	return e.node.Serialize()
}

// SetInnerHTML replaces the children with the parsed fragment.
func (e *Element) SetInnerHTML(src string) error {
	nodes, err := html.ParseFragment(src)
	if err != nil {
		return errors.Wrapf(err, "setting innerHTML of <%s>", e.node.TagName)
	}
	e.node.SetTextContent("")
	for _, n := range nodes {
		e.node.AddChild(n)
	}
	return nil
}

func (e *Element) OuterHTML() string {
	return e.node.SerializeOuter()
}

// Parent returns the parent element, or nil when e is detached or a child
// of the document root.
func (e *Element) Parent() *Element {
	return e.doc.Element(e.node.Parent)
}

// Children returns the element children in order.
func (e *Element) Children() []*Element {
	var out []*Element
	for _, child := range e.node.Children {
		if child.Type == html.ElementNode {
			out = append(out, e.doc.Element(child))
		}
	}
	return out
}

// AppendChild moves child to the end of e's children.
func (e *Element) AppendChild(child *Element) error {
	if err := e.checkInsert(child); err != nil {
		return err
	}
	if old := child.node.Parent; old != nil {
		old.RemoveChild(child.node)
	}
	e.node.AddChild(child.node)
	return nil
}

// InsertBefore inserts child before ref. A nil ref appends.
func (e *Element) InsertBefore(child, ref *Element) error {
	if ref == nil {
		return e.AppendChild(child)
	}
	if err := e.checkInsert(child); err != nil {
		return err
	}
	if ref.node.Parent != e.node {
		return errors.Wrap(ErrNotFound, "reference node is not a child")
	}
	if child == ref {
		return nil
	}
	if old := child.node.Parent; old != nil {
		old.RemoveChild(child.node)
	}
	e.node.InsertBefore(child.node, ref.node)
	return nil
}

func (e *Element) RemoveChild(child *Element) error {
	if child == nil || child.node.Parent != e.node {
		return errors.Wrap(ErrNotFound, "node is not a child")
	}
	e.node.RemoveChild(child.node)
	return nil
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	if p := e.node.Parent; p != nil {
		p.RemoveChild(e.node)
	}
}

func (e *Element) checkInsert(child *Element) error {
	if child == nil {
		return errors.Wrap(ErrHierarchy, "nil child")
	}
	if child.doc != e.doc {
		return ErrWrongDocument
	}
	if child.node.Contains(e.node) {
		return errors.Wrapf(ErrHierarchy, "<%s> contains <%s>", child.node.TagName, e.node.TagName)
	}
	return nil
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	return other != nil && e.node.Contains(other.node)
}

func (e *Element) Matches(selector string) (bool, error) {
	sels, err := compileGroup(selector)
	if err != nil {
		return false, err
	}
	return matchesAny(e.node, sels), nil
}

// Closest returns the nearest inclusive ancestor matching selector.
func (e *Element) Closest(selector string) (*Element, error) {
	sels, err := compileGroup(selector)
	if err != nil {
		return nil, err
	}
	for n := e.node; n != nil && !n.IsRoot(); n = n.Parent {
		if matchesAny(n, sels) {
			return e.doc.Element(n), nil
		}
	}
	return nil, nil
}

func (e *Element) QuerySelector(selector string) (*Element, error) {
	return querySelector(e.doc, e.node, selector)
}

func (e *Element) QuerySelectorAll(selector string) ([]*Element, error) {
	return querySelectorAll(e.doc, e.node, selector)
}

// Click fires a synthetic click event at e.
func (e *Element) Click() error {
	return e.fireInteraction("click")
}

// Blur fires a synthetic blur event at e. Focus does not move.
func (e *Element) Blur() error {
	return e.fireInteraction("blur")
}

// Focus fires a synthetic focus event at e. Focus does not move.
func (e *Element) Focus() error {
	return e.fireInteraction("focus")
}

// fireInteraction builds a bubbling, composed event of type typ, stamps it
// with e as target and current target and dispatches it. No default action
// follows; the outcome of PreventDefault is not reported.
func (e *Element) fireInteraction(typ string) error {
	ev := NewEvent(typ, EventInit{Bubbles: true, Composed: true})
	ev.Target = e
	ev.CurrentTarget = e
	if _, err := e.DispatchEvent(ev); err != nil {
		return err
	}
	return nil
}

func (e *Element) DispatchEvent(ev *Event) (bool, error) {
	e.doc.logger.Debug("dispatch",
		zap.String("type", ev.Type),
		zap.String("target", e.node.TagName),
		zap.Bool("bubbles", ev.Bubbles),
	)
	return dispatch(e, ev)
}

// parentTarget is the parent element, the document for a top-level
// element, and nil for a detached one.
func (e *Element) parentTarget() Target {
	parent := e.node.Parent
	switch {
	case parent == nil:
		return nil
	case parent.IsRoot():
		if parent == e.doc.tree.Root {
			return e.doc
		}
		return nil
	}
	return e.doc.Element(parent)
}
