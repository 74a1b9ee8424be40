package js

import (
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"domkit/pkg/dom"
)

// tokenSet is the ordered set behind a DOMTokenList: the whitespace
// separated tokens of an attribute with duplicates dropped.
type tokenSet []string

func parseTokenSet(attr string) tokenSet {
	var set tokenSet
	for _, tok := range strings.Fields(attr) {
		if set.index(tok) < 0 {
			set = append(set, tok)
		}
	}
	return set
}

func (s tokenSet) index(tok string) int {
	for i, t := range s {
		if t == tok {
			return i
		}
	}
	return -1
}

func (s tokenSet) without(tok string) tokenSet {
	i := s.index(tok)
	if i < 0 {
		return s
	}
	return append(s[:i:i], s[i+1:]...)
}

func (s tokenSet) String() string {
	return strings.Join(s, " ")
}

// classList is element.classList. It holds no state of its own; every
// access reparses the class attribute so it never goes stale.
type classList struct {
	ctx *domContext
	el  *dom.Element
}

func newClassListProxy(ctx *domContext, el *dom.Element) goja.Value {
	return ctx.vm.NewDynamicObject(&classList{ctx: ctx, el: el})
}

func (cl *classList) read() tokenSet {
	attr, _ := cl.el.GetAttribute("class")
	return parseTokenSet(attr)
}

// write stores set, except that an empty set never creates a missing
// class attribute.
func (cl *classList) write(set tokenSet) {
	if len(set) == 0 && !cl.el.HasAttribute("class") {
		return
	}
	cl.el.SetAttribute("class", set.String())
}

func (cl *classList) token(method string, v goja.Value) string {
	tok := v.String()
	switch {
	case tok == "":
		cl.ctx.throwDOMError("SyntaxError", "Failed to execute '"+method+"' on 'DOMTokenList': the token provided must not be empty")
	case strings.ContainsAny(tok, " \t\n\r\f"):
		cl.ctx.throwDOMError("InvalidCharacterError", "Failed to execute '"+method+"' on 'DOMTokenList': the token provided contains HTML space characters")
	}
	return tok
}

func (cl *classList) requireArgs(method string, call goja.FunctionCall, n int) {
	if len(call.Arguments) < n {
		panic(cl.ctx.vm.NewTypeError("Failed to execute '" + method + "' on 'DOMTokenList': " + strconv.Itoa(n) + " argument(s) required"))
	}
}

var classListMethods = map[string]func(cl *classList, call goja.FunctionCall) goja.Value{
	"add": func(cl *classList, call goja.FunctionCall) goja.Value {
		set := cl.read()
		for _, arg := range call.Arguments {
			if tok := cl.token("add", arg); set.index(tok) < 0 {
				set = append(set, tok)
			}
		}
		cl.write(set)
		return goja.Undefined()
	},
	"remove": func(cl *classList, call goja.FunctionCall) goja.Value {
		set := cl.read()
		for _, arg := range call.Arguments {
			set = set.without(cl.token("remove", arg))
		}
		cl.write(set)
		return goja.Undefined()
	},
	"toggle": func(cl *classList, call goja.FunctionCall) goja.Value {
		cl.requireArgs("toggle", call, 1)
		tok := cl.token("toggle", call.Arguments[0])
		set := cl.read()
		present := set.index(tok) >= 0
		want := !present
		if len(call.Arguments) > 1 && !goja.IsUndefined(call.Arguments[1]) {
			want = call.Arguments[1].ToBoolean()
		}
		switch {
		case want && !present:
			cl.write(append(set, tok))
		case !want && present:
			cl.write(set.without(tok))
		}
		return cl.ctx.vm.ToValue(want)
	},
	"contains": func(cl *classList, call goja.FunctionCall) goja.Value {
		return cl.ctx.vm.ToValue(cl.read().index(call.Argument(0).String()) >= 0)
	},
	"replace": func(cl *classList, call goja.FunctionCall) goja.Value {
		cl.requireArgs("replace", call, 2)
		oldTok := cl.token("replace", call.Arguments[0])
		newTok := cl.token("replace", call.Arguments[1])
		set := cl.read()
		i := set.index(oldTok)
		if i < 0 {
			return cl.ctx.vm.ToValue(false)
		}
		if set.index(newTok) >= 0 {
			set = set.without(oldTok)
		} else {
			set[i] = newTok
		}
		cl.write(set)
		return cl.ctx.vm.ToValue(true)
	},
	"item": func(cl *classList, call goja.FunctionCall) goja.Value {
		set := cl.read()
		idx := call.Argument(0).ToInteger()
		if idx < 0 || idx >= int64(len(set)) {
			return goja.Null()
		}
		return cl.ctx.vm.ToValue(set[idx])
	},
	"toString": func(cl *classList, call goja.FunctionCall) goja.Value {
		return cl.ctx.vm.ToValue(cl.read().String())
	},
}

func (cl *classList) Get(key string) goja.Value {
	switch key {
	case "length":
		return cl.ctx.vm.ToValue(len(cl.read()))
	case "value":
		attr, _ := cl.el.GetAttribute("class")
		return cl.ctx.vm.ToValue(attr)
	}
	if method, ok := classListMethods[key]; ok {
		return cl.ctx.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return method(cl, call)
		})
	}
	if idx, err := strconv.Atoi(key); err == nil {
		if set := cl.read(); idx >= 0 && idx < len(set) {
			return cl.ctx.vm.ToValue(set[idx])
		}
	}
	return goja.Undefined()
}

func (cl *classList) Set(key string, val goja.Value) bool {
	if key != "value" {
		return false
	}
	cl.el.SetAttribute("class", val.String())
	return true
}

func (cl *classList) Has(key string) bool {
	if key == "length" || key == "value" {
		return true
	}
	if _, ok := classListMethods[key]; ok {
		return true
	}
	idx, err := strconv.Atoi(key)
	return err == nil && idx >= 0 && idx < len(cl.read())
}

func (cl *classList) Delete(string) bool {
	return false
}

func (cl *classList) Keys() []string {
	keys := make([]string, 0, len(cl.read()))
	for i := range cl.read() {
		keys = append(keys, strconv.Itoa(i))
	}
	return keys
}
