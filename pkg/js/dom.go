package js

import (
	"strconv"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"domkit/pkg/css"
	"domkit/pkg/dom"
	"domkit/pkg/html"
)

// domContext holds shared state for DOM bindings within a single execution.
// It caches one JS object per node, style declaration and event so the
// same Go value always surfaces as the same object (needed for ===).
type domContext struct {
	vm     *goja.Runtime
	doc    *dom.Document
	logger *zap.Logger
	origin time.Time

	docObj *goja.Object
	cache  map[*html.Node]*goja.Object
	nodes  map[*goja.Object]*html.Node
	styles map[*dom.Element]styleEntry
	events map[*dom.Event]*goja.Object
	byObj  map[*goja.Object]*dom.Event

	constructed map[*dom.Event]bool
}

func newDOMContext(vm *goja.Runtime, doc *dom.Document, logger *zap.Logger) *domContext {
	return &domContext{
		vm:     vm,
		doc:    doc,
		logger: logger,
		origin: time.Now(),
		cache:  make(map[*html.Node]*goja.Object),
		nodes:  make(map[*goja.Object]*html.Node),
		styles: make(map[*dom.Element]styleEntry),
		events: make(map[*dom.Event]*goja.Object),
		byObj:  make(map[*goja.Object]*dom.Event),

		constructed: make(map[*dom.Event]bool),
	}
}

// registerDocument sets up the global `document` object and the event
// constructors on the goja runtime.
func registerDocument(vm *goja.Runtime, doc *dom.Document, logger *zap.Logger) *domContext {
	ctx := newDOMContext(vm, doc, logger)
	ctx.docObj = vm.NewDynamicObject(&documentAccessor{ctx: ctx})
	vm.Set("document", ctx.docObj)
	registerEventConstructors(ctx)
	vm.Set("getComputedStyle", func(call goja.FunctionCall) goja.Value {
		el := ctx.unwrapElement(call.Argument(0))
		if el == nil {
			panic(vm.NewTypeError("Failed to execute 'getComputedStyle': parameter 1 is not of type 'Element'"))
		}
		return vm.NewDynamicObject(&computedStyleAccessor{vm: vm, style: doc.ComputedStyle(el)})
	})
	return ctx
}

// nodeProxy creates (or retrieves from cache) a JS DynamicObject wrapping
// an html.Node. Element nodes are backed by their dom.Element.
func (ctx *domContext) nodeProxy(node *html.Node) goja.Value {
	if node == nil {
		return goja.Null()
	}
	if node == ctx.doc.Root() {
		return ctx.docObj
	}
	if v, ok := ctx.cache[node]; ok {
		return v
	}
	obj := ctx.vm.NewDynamicObject(&elementAccessor{ctx: ctx, node: node, el: ctx.doc.Element(node)})
	ctx.cache[node] = obj
	ctx.nodes[obj] = node
	return obj
}

func (ctx *domContext) elementProxy(el *dom.Element) goja.Value {
	if el == nil {
		return goja.Null()
	}
	return ctx.nodeProxy(el.Node())
}

// targetProxy maps an event target back to its JS object.
func (ctx *domContext) targetProxy(t dom.Target) goja.Value {
	switch t := t.(type) {
	case *dom.Element:
		return ctx.elementProxy(t)
	case *dom.Document:
		return ctx.docObj
	}
	return goja.Null()
}

// elementArray creates a JS array of Element proxies.
func (ctx *domContext) elementArray(els []*dom.Element) goja.Value {
	items := make([]interface{}, len(els))
	for i, el := range els {
		items[i] = ctx.elementProxy(el)
	}
	return ctx.vm.NewArray(items...)
}

func (ctx *domContext) nodeArray(nodes []*html.Node) goja.Value {
	items := make([]interface{}, len(nodes))
	for i, n := range nodes {
		items[i] = ctx.nodeProxy(n)
	}
	return ctx.vm.NewArray(items...)
}

// unwrapNode extracts the *html.Node from a goja value that wraps an elementAccessor.
func (ctx *domContext) unwrapNode(val goja.Value) *html.Node {
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil
	}
	return ctx.nodes[obj]
}

func (ctx *domContext) unwrapElement(val goja.Value) *dom.Element {
	return ctx.doc.Element(ctx.unwrapNode(val))
}

// throwDOMError raises a DOMException-shaped error with the given name.
func (ctx *domContext) throwDOMError(name, msg string) {
	obj := ctx.vm.NewObject()
	obj.Set("name", name)
	obj.Set("message", msg)
	obj.Set("toString", func(goja.FunctionCall) goja.Value {
		return ctx.vm.ToValue(name + ": " + msg)
	})
	panic(obj)
}

// documentAccessor implements goja.DynamicObject for the global document.
// body, head and documentElement are looked up on every access.
type documentAccessor struct {
	ctx *domContext
}

var documentKeys = []string{
	"nodeType", "nodeName", "documentElement", "head", "body", "title",
	"getElementById", "getElementsByTagName", "getElementsByClassName",
	"createElement", "createTextNode", "querySelector", "querySelectorAll",
	"addEventListener", "removeEventListener", "dispatchEvent", "childNodes", "children",
}

func (d *documentAccessor) Get(key string) goja.Value {
	ctx := d.ctx
	vm := ctx.vm
	doc := ctx.doc

	switch key {
	case "nodeType":
		return vm.ToValue(9) // Node.DOCUMENT_NODE
	case "nodeName":
		return vm.ToValue("#document")
	case "documentElement":
		return ctx.elementProxy(doc.DocumentElement())
	case "head":
		return ctx.elementProxy(doc.Head())
	case "body":
		return ctx.elementProxy(doc.Body())
	case "title":
		if title := doc.GetElementsByTagName("title"); len(title) > 0 {
			return vm.ToValue(strings.TrimSpace(title[0].InnerText()))
		}
		return vm.ToValue("")
	case "childNodes":
		return ctx.nodeArray(doc.Root().Children)
	case "children":
		var els []*dom.Element
		for _, c := range doc.Root().Children {
			if el := doc.Element(c); el != nil {
				els = append(els, el)
			}
		}
		return ctx.elementArray(els)
	case "getElementById":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return goja.Null()
			}
			return ctx.elementProxy(doc.GetElementByID(call.Arguments[0].String()))
		})
	case "getElementsByTagName":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return ctx.elementArray(nil)
			}
			return ctx.elementArray(doc.GetElementsByTagName(call.Arguments[0].String()))
		})
	case "getElementsByClassName":
		return vm.ToValue(getElementsByClassNameFn(ctx, doc.Root()))
	case "createElement":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required"))
			}
			return ctx.elementProxy(doc.CreateElement(call.Arguments[0].String()))
		})
	case "createTextNode":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			text := ""
			if len(call.Arguments) > 0 {
				text = call.Arguments[0].String()
			}
			return ctx.nodeProxy(html.NewText(text))
		})
	case "querySelector":
		return vm.ToValue(querySelectorFn(ctx, doc.QuerySelector))
	case "querySelectorAll":
		return vm.ToValue(querySelectorAllFn(ctx, doc.QuerySelectorAll))
	case "addEventListener":
		return vm.ToValue(ctx.addEventListenerFn(doc))
	case "removeEventListener":
		return vm.ToValue(ctx.removeEventListenerFn(doc))
	case "dispatchEvent":
		return vm.ToValue(ctx.dispatchEventFn(doc))
	}
	return goja.Undefined()
}

func (d *documentAccessor) Set(key string, val goja.Value) bool {
	return false
}

func (d *documentAccessor) Has(key string) bool {
	for _, k := range documentKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (d *documentAccessor) Delete(key string) bool {
	return false
}

func (d *documentAccessor) Keys() []string {
	return documentKeys
}

// elementAccessor implements goja.DynamicObject to intercept property access
// on DOM node proxies. el is nil for text nodes.
type elementAccessor struct {
	ctx  *domContext
	node *html.Node
	el   *dom.Element
}

var nodeKeys = []string{
	"nodeType", "nodeName", "nodeValue", "textContent",
	"childNodes", "parentElement", "parentNode",
	"firstChild", "lastChild", "nextSibling", "previousSibling",
	"appendChild", "removeChild", "insertBefore",
	"cloneNode", "contains", "hasChildNodes", "remove", "ownerDocument",
}

var elementKeys = []string{
	"tagName", "id", "className", "innerHTML", "outerHTML", "innerText",
	"getAttribute", "setAttribute", "hasAttribute", "removeAttribute",
	"children", "style", "classList",
	"firstElementChild", "lastElementChild", "nextElementSibling", "previousElementSibling",
	"childElementCount",
	"querySelector", "querySelectorAll", "matches", "closest",
	"append", "prepend", "before", "after", "replaceWith", "replaceChildren",
	"getElementsByTagName", "getElementsByClassName",
	"tabIndex", "offsetHeight", "offsetWidth", "offsetLeft", "offsetTop",
	"clientHeight", "clientWidth",
	"click", "focus", "blur",
	"addEventListener", "removeEventListener", "dispatchEvent",
}

func (e *elementAccessor) Get(key string) goja.Value {
	vm := e.ctx.vm

	switch key {
	case "nodeType":
		if e.node.Type == html.TextNode {
			return vm.ToValue(3) // Node.TEXT_NODE
		}
		return vm.ToValue(1) // Node.ELEMENT_NODE
	case "nodeName":
		if e.node.Type == html.TextNode {
			return vm.ToValue("#text")
		}
		return vm.ToValue(strings.ToUpper(e.node.TagName))
	case "nodeValue":
		if e.node.Type == html.TextNode {
			return vm.ToValue(e.node.Text)
		}
		return goja.Null()
	case "textContent":
		return vm.ToValue(e.node.TextContent())
	case "childNodes":
		return e.ctx.nodeArray(e.node.Children)
	case "parentElement":
		if p := e.node.Parent; p != nil && p.Type == html.ElementNode {
			return e.ctx.nodeProxy(p)
		}
		return goja.Null()
	case "parentNode":
		return e.ctx.nodeProxy(e.node.Parent)
	case "ownerDocument":
		return e.ctx.docObj
	case "firstChild":
		return e.firstChild()
	case "lastChild":
		return e.lastChild()
	case "nextSibling":
		return e.nextSibling()
	case "previousSibling":
		return e.previousSibling()
	case "appendChild":
		return vm.ToValue(e.appendChildFn())
	case "removeChild":
		return vm.ToValue(e.removeChildFn())
	case "insertBefore":
		return vm.ToValue(e.insertBeforeFn())
	case "cloneNode":
		return vm.ToValue(e.cloneNodeFn())
	case "contains":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			other := e.ctx.unwrapNode(call.Argument(0))
			return vm.ToValue(other != nil && e.node.Contains(other))
		})
	case "hasChildNodes":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(len(e.node.Children) > 0)
		})
	case "remove":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if e.node.Parent != nil {
				e.node.Parent.RemoveChild(e.node)
			}
			return goja.Undefined()
		})
	}

	if e.el == nil {
		return goja.Undefined()
	}
	return e.getElementProperty(key)
}

func (e *elementAccessor) getElementProperty(key string) goja.Value {
	vm := e.ctx.vm
	el := e.el

	switch key {
	case "tagName":
		return vm.ToValue(strings.ToUpper(el.TagName()))
	case "id":
		return vm.ToValue(el.ID())
	case "className":
		cls, _ := el.GetAttribute("class")
		return vm.ToValue(cls)
	case "innerHTML":
		return vm.ToValue(el.InnerHTML())
	case "outerHTML":
		return vm.ToValue(el.OuterHTML())
	case "innerText":
		return vm.ToValue(el.InnerText())
	case "getAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return goja.Null()
			}
			val, ok := el.GetAttribute(strings.ToLower(call.Arguments[0].String()))
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(val)
		})
	case "setAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 2 {
				panic(vm.NewTypeError("Failed to execute 'setAttribute' on 'Element': 2 arguments required"))
			}
			el.SetAttribute(call.Arguments[0].String(), call.Arguments[1].String())
			return goja.Undefined()
		})
	case "hasAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return vm.ToValue(false)
			}
			return vm.ToValue(el.HasAttribute(call.Arguments[0].String()))
		})
	case "removeAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) > 0 {
				el.RemoveAttribute(call.Arguments[0].String())
			}
			return goja.Undefined()
		})
	case "children":
		return e.ctx.elementArray(el.Children())
	case "childElementCount":
		return vm.ToValue(len(el.Children()))
	case "style":
		decl, err := el.Style()
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return e.ctx.styleProxy(el, decl)
	case "classList":
		return newClassListProxy(e.ctx, el)
	case "firstElementChild":
		return e.firstElementChild()
	case "lastElementChild":
		return e.lastElementChild()
	case "nextElementSibling":
		return e.nextElementSibling()
	case "previousElementSibling":
		return e.previousElementSibling()

	case "querySelector":
		return vm.ToValue(querySelectorFn(e.ctx, el.QuerySelector))
	case "querySelectorAll":
		return vm.ToValue(querySelectorAllFn(e.ctx, el.QuerySelectorAll))
	case "matches":
		return vm.ToValue(matchesFn(e.ctx, el))
	case "closest":
		return vm.ToValue(closestFn(e.ctx, el))
	case "getElementsByTagName":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return e.ctx.elementArray(nil)
			}
			tag := strings.ToLower(call.Arguments[0].String())
			var result []*dom.Element
			e.walkElements(func(d *dom.Element) {
				if tag == "*" || d.TagName() == tag {
					result = append(result, d)
				}
			})
			return e.ctx.elementArray(result)
		})
	case "getElementsByClassName":
		return vm.ToValue(getElementsByClassNameFn(e.ctx, e.node))

	case "append":
		return vm.ToValue(e.appendFn())
	case "prepend":
		return vm.ToValue(e.prependFn())
	case "before":
		return vm.ToValue(e.beforeFn())
	case "after":
		return vm.ToValue(e.afterFn())
	case "replaceWith":
		return vm.ToValue(e.replaceWithFn())
	case "replaceChildren":
		return vm.ToValue(e.replaceChildrenFn())

	case "tabIndex":
		return vm.ToValue(el.TabIndex)
	case "offsetHeight":
		return vm.ToValue(el.OffsetHeight)
	case "offsetWidth":
		return vm.ToValue(el.OffsetWidth)
	case "offsetLeft":
		return vm.ToValue(el.OffsetLeft)
	case "offsetTop":
		return vm.ToValue(el.OffsetTop)
	case "clientHeight":
		return vm.ToValue(el.ClientHeight)
	case "clientWidth":
		return vm.ToValue(el.ClientWidth)

	case "click":
		return vm.ToValue(e.ctx.interactionFn(el.Click))
	case "focus":
		return vm.ToValue(e.ctx.interactionFn(el.Focus))
	case "blur":
		return vm.ToValue(e.ctx.interactionFn(el.Blur))
	case "addEventListener":
		return vm.ToValue(e.ctx.addEventListenerFn(el))
	case "removeEventListener":
		return vm.ToValue(e.ctx.removeEventListenerFn(el))
	case "dispatchEvent":
		return vm.ToValue(e.ctx.dispatchEventFn(el))
	}
	return goja.Undefined()
}

func (e *elementAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "textContent":
		e.node.SetTextContent(val.String())
		return true
	case "nodeValue":
		if e.node.Type == html.TextNode {
			e.node.Text = val.String()
		}
		return true
	}

	el := e.el
	if el == nil {
		return false
	}
	switch key {
	case "innerText":
		el.SetInnerText(val.String())
	case "className":
		el.SetAttribute("class", val.String())
	case "id":
		el.SetAttribute("id", val.String())
	case "innerHTML":
		if err := el.SetInnerHTML(val.String()); err != nil {
			panic(e.ctx.vm.NewGoError(err))
		}
	case "style":
		decl, err := el.Style()
		if err != nil {
			panic(e.ctx.vm.NewGoError(err))
		}
		decl.SetCSSText(val.String())
	case "tabIndex":
		el.TabIndex = toInt(val)
	case "offsetHeight":
		el.OffsetHeight = toInt(val)
	case "offsetWidth":
		el.OffsetWidth = toInt(val)
	case "offsetLeft":
		el.OffsetLeft = toInt(val)
	case "offsetTop":
		el.OffsetTop = toInt(val)
	case "clientHeight":
		el.ClientHeight = toInt(val)
	case "clientWidth":
		el.ClientWidth = toInt(val)
	default:
		return false
	}
	return true
}

func (e *elementAccessor) Has(key string) bool {
	for _, k := range nodeKeys {
		if k == key {
			return true
		}
	}
	if e.el == nil {
		return false
	}
	for _, k := range elementKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (e *elementAccessor) Delete(key string) bool {
	return false
}

func (e *elementAccessor) Keys() []string {
	if e.el == nil {
		return nodeKeys
	}
	keys := make([]string, 0, len(nodeKeys)+len(elementKeys))
	keys = append(keys, nodeKeys...)
	return append(keys, elementKeys...)
}

func (e *elementAccessor) cloneNodeFn() func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		deep := call.Argument(0).ToBoolean()
		if e.el != nil {
			return e.ctx.elementProxy(e.el.CloneNode(deep))
		}
		return e.ctx.nodeProxy(e.node.CloneNode(deep))
	}
}

// walkElements calls fn for each element descendant in document order.
func (e *elementAccessor) walkElements(fn func(*dom.Element)) {
	for _, child := range e.node.Children {
		child.Walk(func(n *html.Node) bool {
			if d := e.ctx.doc.Element(n); d != nil {
				fn(d)
			}
			return false
		})
	}
}

// toInt converts a JS value to an int the way integer IDL attributes do:
// NaN becomes 0 and fractions truncate.
func toInt(val goja.Value) int {
	return int(val.ToInteger())
}

// getElementsByClassNameFn matches elements carrying every class in the
// space-separated argument.
func getElementsByClassNameFn(ctx *domContext, root *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return ctx.elementArray(nil)
		}
		want := strings.Fields(call.Arguments[0].String())
		var result []*dom.Element
		for _, child := range root.Children {
			child.Walk(func(n *html.Node) bool {
				if n.Type != html.ElementNode || len(want) == 0 {
					return false
				}
				cls, _ := n.GetAttribute("class")
				have := parseTokenSet(cls)
				for _, w := range want {
					if have.index(w) < 0 {
						return false
					}
				}
				result = append(result, ctx.doc.Element(n))
				return false
			})
		}
		return ctx.elementArray(result)
	}
}

// computedStyleAccessor is the read-only result of getComputedStyle.
type computedStyleAccessor struct {
	vm    *goja.Runtime
	style *css.Style
}

func (c *computedStyleAccessor) Get(key string) goja.Value {
	switch key {
	case "length":
		return c.vm.ToValue(len(c.style.Properties))
	case "getPropertyValue":
		return c.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			v, _ := c.style.Get(call.Argument(0).String())
			return c.vm.ToValue(v)
		})
	}
	if idx, err := strconv.Atoi(key); err == nil {
		names := c.style.Names()
		if idx >= 0 && idx < len(names) {
			return c.vm.ToValue(names[idx])
		}
		return goja.Undefined()
	}
	v, _ := c.style.Get(css.CamelToKebab(key))
	return c.vm.ToValue(v)
}

func (c *computedStyleAccessor) Set(key string, val goja.Value) bool {
	return false
}

func (c *computedStyleAccessor) Has(key string) bool {
	_, ok := c.style.Get(css.CamelToKebab(key))
	return ok || key == "length" || key == "getPropertyValue"
}

func (c *computedStyleAccessor) Delete(key string) bool {
	return false
}

func (c *computedStyleAccessor) Keys() []string {
	names := c.style.Names()
	for i, n := range names {
		names[i] = css.KebabToCamel(n)
	}
	return names
}
