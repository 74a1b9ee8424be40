package js

import (
	"github.com/dop251/goja"

	"domkit/pkg/html"
)

// Traversal getters. The *Child and *Sibling forms see text nodes; the
// *ElementChild and *ElementSibling forms skip them.

func (e *elementAccessor) firstChild() goja.Value {
	return e.ctx.nodeProxy(scan(e.node.Children, 0, 1, false))
}

func (e *elementAccessor) lastChild() goja.Value {
	return e.ctx.nodeProxy(scan(e.node.Children, len(e.node.Children)-1, -1, false))
}

func (e *elementAccessor) firstElementChild() goja.Value {
	return e.ctx.nodeProxy(scan(e.node.Children, 0, 1, true))
}

func (e *elementAccessor) lastElementChild() goja.Value {
	return e.ctx.nodeProxy(scan(e.node.Children, len(e.node.Children)-1, -1, true))
}

func (e *elementAccessor) nextSibling() goja.Value {
	return e.ctx.nodeProxy(e.sibling(1, false))
}

func (e *elementAccessor) previousSibling() goja.Value {
	return e.ctx.nodeProxy(e.sibling(-1, false))
}

func (e *elementAccessor) nextElementSibling() goja.Value {
	return e.ctx.nodeProxy(e.sibling(1, true))
}

func (e *elementAccessor) previousElementSibling() goja.Value {
	return e.ctx.nodeProxy(e.sibling(-1, true))
}

func (e *elementAccessor) sibling(step int, elementsOnly bool) *html.Node {
	parent := e.node.Parent
	if parent == nil {
		return nil
	}
	idx := e.node.IndexInParent()
	if idx < 0 {
		return nil
	}
	return scan(parent.Children, idx+step, step, elementsOnly)
}

// scan walks nodes from start in steps of step and returns the first node
// accepted, or nil.
func scan(nodes []*html.Node, start, step int, elementsOnly bool) *html.Node {
	for i := start; i >= 0 && i < len(nodes); i += step {
		if !elementsOnly || nodes[i].Type == html.ElementNode {
			return nodes[i]
		}
	}
	return nil
}
