package js

import (
	"github.com/dop251/goja"
	"github.com/pkg/errors"

	"domkit/pkg/dom"
)

// querySelectorFn returns a JS function implementing querySelector over
// a document or element lookup.
func querySelectorFn(ctx *domContext, query func(string) (*dom.Element, error)) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'querySelector': 1 argument required"))
		}
		el, err := query(call.Arguments[0].String())
		if err != nil {
			ctx.throwSelectorError(err)
		}
		return ctx.elementProxy(el)
	}
}

// querySelectorAllFn returns a JS function implementing querySelectorAll.
func querySelectorAllFn(ctx *domContext, query func(string) ([]*dom.Element, error)) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'querySelectorAll': 1 argument required"))
		}
		els, err := query(call.Arguments[0].String())
		if err != nil {
			ctx.throwSelectorError(err)
		}
		return ctx.elementArray(els)
	}
}

// matchesFn returns a JS function implementing element.matches(selector).
func matchesFn(ctx *domContext, el *dom.Element) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'matches': 1 argument required"))
		}
		ok, err := el.Matches(call.Arguments[0].String())
		if err != nil {
			ctx.throwSelectorError(err)
		}
		return ctx.vm.ToValue(ok)
	}
}

// closestFn returns a JS function implementing element.closest(selector).
func closestFn(ctx *domContext, el *dom.Element) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(ctx.vm.NewTypeError("Failed to execute 'closest': 1 argument required"))
		}
		found, err := el.Closest(call.Arguments[0].String())
		if err != nil {
			ctx.throwSelectorError(err)
		}
		return ctx.elementProxy(found)
	}
}

func (ctx *domContext) throwSelectorError(err error) {
	if errors.Cause(err) == dom.ErrInvalidSelector {
		ctx.throwDOMError("SyntaxError", err.Error())
	}
	panic(ctx.vm.NewGoError(err))
}
