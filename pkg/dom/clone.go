package dom

import "domkit/pkg/html"

// cloneHook copies the state an element variant keeps outside the tree.
type cloneHook func(src, dst *Element)

// CloneNode copies e, and its descendants when deep is set. The clone is
// detached, belongs to the same document, carries no listeners and builds
// its own style cache from its copied style attribute.
func (e *Element) CloneNode(deep bool) *Element {
	return cloneWith(e, deep, copyPresentation)
}

func copyPresentation(src, dst *Element) {
	dst.TabIndex = src.TabIndex
	dst.OffsetHeight = src.OffsetHeight
	dst.OffsetWidth = src.OffsetWidth
	dst.OffsetLeft = src.OffsetLeft
	dst.OffsetTop = src.OffsetTop
	dst.ClientHeight = src.ClientHeight
	dst.ClientWidth = src.ClientWidth
}

// cloneWith runs the tree clone, then each hook on every cloned element
// whose source has a wrapper. Unwrapped sources still hold defaults.
func cloneWith(src *Element, deep bool, hooks ...cloneHook) *Element {
	doc := src.doc
	node := src.node.CloneNode(deep)
	dst := doc.wrap(node)
	for _, hook := range hooks {
		hook(src, dst)
	}
	if deep {
		cloneDescendants(doc, src.node, node, hooks)
	}
	return dst
}

func cloneDescendants(doc *Document, src, dst *html.Node, hooks []cloneHook) {
	for i, child := range src.Children {
		if i >= len(dst.Children) || child.Type != html.ElementNode {
			continue
		}
		copied := dst.Children[i]
		if se, ok := doc.elements[child]; ok {
			de := doc.Element(copied)
			for _, hook := range hooks {
				hook(se, de)
			}
		}
		cloneDescendants(doc, child, copied, hooks)
	}
}
