package js

import (
	"strconv"

	"github.com/dop251/goja"

	"domkit/pkg/css"
	"domkit/pkg/dom"
)

// styleEntry is the proxy handed out for an element's current declaration.
type styleEntry struct {
	decl *css.Declaration
	obj  *goja.Object
}

// styleProxy wraps el's declaration. While the style attribute is unchanged
// it returns the same object, so element.style === element.style. Each
// element holds at most one entry; a replaced declaration drops its proxy.
func (ctx *domContext) styleProxy(el *dom.Element, decl *css.Declaration) goja.Value {
	if entry, ok := ctx.styles[el]; ok && entry.decl == decl {
		return entry.obj
	}
	obj := ctx.vm.NewDynamicObject(&styleAccessor{vm: ctx.vm, decl: decl})
	ctx.styles[el] = styleEntry{decl: decl, obj: obj}
	return obj
}

// styleAccessor maps camelCase and kebab-case property access onto a
// CSS declaration block.
type styleAccessor struct {
	vm   *goja.Runtime
	decl *css.Declaration
}

var styleMethods = []string{
	"cssText", "length", "getPropertyValue", "getPropertyPriority",
	"setProperty", "removeProperty", "item",
}

func (s *styleAccessor) Get(key string) goja.Value {
	vm := s.vm
	switch key {
	case "cssText":
		return vm.ToValue(s.decl.CSSText())
	case "length":
		return vm.ToValue(s.decl.Length())
	case "getPropertyValue":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(s.decl.GetPropertyValue(call.Argument(0).String()))
		})
	case "getPropertyPriority":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(s.decl.GetPropertyPriority(call.Argument(0).String()))
		})
	case "setProperty":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 2 {
				panic(vm.NewTypeError("Failed to execute 'setProperty' on 'CSSStyleDeclaration': 2 arguments required"))
			}
			s.decl.SetProperty(call.Arguments[0].String(), cssValue(call.Arguments[1]), cssValue(call.Argument(2)))
			return goja.Undefined()
		})
	case "removeProperty":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(s.decl.RemoveProperty(call.Argument(0).String()))
		})
	case "item":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(s.decl.Item(int(call.Argument(0).ToInteger())))
		})
	}
	if idx, err := strconv.Atoi(key); err == nil {
		if idx >= 0 && idx < s.decl.Length() {
			return vm.ToValue(s.decl.Item(idx))
		}
		return goja.Undefined()
	}
	return vm.ToValue(s.decl.GetPropertyValue(css.CamelToKebab(key)))
}

func (s *styleAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "cssText":
		s.decl.SetCSSText(cssValue(val))
		return true
	case "length":
		return false
	}
	for _, m := range styleMethods {
		if m == key {
			return false
		}
	}
	s.decl.SetProperty(css.CamelToKebab(key), cssValue(val), "")
	return true
}

func (s *styleAccessor) Has(key string) bool {
	for _, m := range styleMethods {
		if m == key {
			return true
		}
	}
	return s.decl.GetPropertyValue(css.CamelToKebab(key)) != ""
}

func (s *styleAccessor) Delete(key string) bool {
	s.decl.RemoveProperty(css.CamelToKebab(key))
	return true
}

func (s *styleAccessor) Keys() []string {
	names := s.decl.Properties()
	for i, n := range names {
		names[i] = css.KebabToCamel(n)
	}
	return names
}

// cssValue treats null and undefined as the empty string, which removes
// the property.
func cssValue(v goja.Value) string {
	if v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return ""
	}
	return v.String()
}
