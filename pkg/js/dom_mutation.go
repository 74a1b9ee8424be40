package js

import (
	"github.com/dop251/goja"

	"domkit/pkg/html"
)

// adoptable resolves a mutation argument to a node that may be inserted
// under parent, detaching it from its current parent. Strings become text
// nodes when allowText is set.
func (e *elementAccessor) adoptable(method string, arg goja.Value, allowText bool) *html.Node {
	vm := e.ctx.vm
	node := e.ctx.unwrapNode(arg)
	if node == nil {
		if !allowText {
			panic(vm.NewTypeError("Failed to execute '" + method + "': parameter is not a Node"))
		}
		return html.NewText(arg.String())
	}
	if node.Contains(e.node) {
		e.ctx.throwDOMError("HierarchyRequestError", "Failed to execute '"+method+"': the new child contains the parent")
	}
	if node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
	return node
}

// appendChildFn returns a JS function that implements node.appendChild(child).
func (e *elementAccessor) appendChildFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(e.ctx.vm.NewTypeError("Failed to execute 'appendChild': 1 argument required"))
		}
		child := e.adoptable("appendChild", call.Arguments[0], false)
		e.node.AddChild(child)
		return e.ctx.nodeProxy(child)
	}
}

// removeChildFn returns a JS function that implements node.removeChild(child).
func (e *elementAccessor) removeChildFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		child := e.ctx.unwrapNode(call.Argument(0))
		if child == nil {
			panic(e.ctx.vm.NewTypeError("Failed to execute 'removeChild': parameter 1 is not a Node"))
		}
		if e.node.RemoveChild(child) == nil {
			e.ctx.throwDOMError("NotFoundError", "Failed to execute 'removeChild': the node to be removed is not a child of this node")
		}
		return e.ctx.nodeProxy(child)
	}
}

// insertBeforeFn returns a JS function that implements node.insertBefore(newNode, refNode).
func (e *elementAccessor) insertBeforeFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(e.ctx.vm.NewTypeError("Failed to execute 'insertBefore': 1 argument required"))
		}
		ref := e.ctx.unwrapNode(call.Argument(1))
		if ref != nil && ref.Parent != e.node {
			e.ctx.throwDOMError("NotFoundError", "Failed to execute 'insertBefore': the reference node is not a child of this node")
		}
		child := e.adoptable("insertBefore", call.Arguments[0], false)
		if child == ref {
			return e.ctx.nodeProxy(child)
		}
		e.node.InsertBefore(child, ref)
		return e.ctx.nodeProxy(child)
	}
}

// appendFn returns a JS function for element.append(...nodes).
// Accepts nodes and strings (strings become text nodes).
func (e *elementAccessor) appendFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		for _, arg := range call.Arguments {
			e.node.AddChild(e.adoptable("append", arg, true))
		}
		return goja.Undefined()
	}
}

// prependFn returns a JS function for element.prepend(...nodes).
func (e *elementAccessor) prependFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		nodes := e.collect("prepend", call.Arguments)
		var first *html.Node
		if len(e.node.Children) > 0 {
			first = e.node.Children[0]
		}
		for _, n := range nodes {
			e.node.InsertBefore(n, first)
		}
		return goja.Undefined()
	}
}

// beforeFn returns a JS function for element.before(...nodes).
func (e *elementAccessor) beforeFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parent := e.node.Parent
		if parent == nil {
			return goja.Undefined()
		}
		for _, n := range e.collect("before", call.Arguments) {
			parent.InsertBefore(n, e.node)
		}
		return goja.Undefined()
	}
}

// afterFn returns a JS function for element.after(...nodes).
func (e *elementAccessor) afterFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parent := e.node.Parent
		if parent == nil {
			return goja.Undefined()
		}
		nodes := e.collect("after", call.Arguments)
		// The reference is taken after collecting, since collecting can
		// detach the current next sibling.
		var ref *html.Node
		if idx := e.node.IndexInParent(); idx >= 0 && idx+1 < len(parent.Children) {
			ref = parent.Children[idx+1]
		}
		for _, n := range nodes {
			parent.InsertBefore(n, ref)
		}
		return goja.Undefined()
	}
}

// replaceWithFn returns a JS function for element.replaceWith(...nodes).
func (e *elementAccessor) replaceWithFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parent := e.node.Parent
		if parent == nil {
			return goja.Undefined()
		}
		for _, n := range e.collect("replaceWith", call.Arguments) {
			parent.InsertBefore(n, e.node)
		}
		parent.RemoveChild(e.node)
		return goja.Undefined()
	}
}

// replaceChildrenFn returns a JS function for element.replaceChildren(...nodes).
func (e *elementAccessor) replaceChildrenFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		nodes := e.collect("replaceChildren", call.Arguments)
		e.node.SetTextContent("")
		for _, n := range nodes {
			e.node.AddChild(n)
		}
		return goja.Undefined()
	}
}

func (e *elementAccessor) collect(method string, args []goja.Value) []*html.Node {
	nodes := make([]*html.Node, 0, len(args))
	for _, arg := range args {
		nodes = append(nodes, e.adoptable(method, arg, true))
	}
	return nodes
}
