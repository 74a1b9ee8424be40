package js

import (
	"github.com/dop251/goja"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"domkit/pkg/dom"
)

// registerEventConstructors installs Event and CustomEvent.
func registerEventConstructors(ctx *domContext) {
	vm := ctx.vm
	construct := func(name string, custom bool) func(goja.ConstructorCall) *goja.Object {
		return func(call goja.ConstructorCall) *goja.Object {
			if len(call.Arguments) == 0 {
				panic(vm.NewTypeError("Failed to construct '" + name + "': 1 argument required"))
			}
			init, detail := ctx.eventInit(call.Argument(1))
			ev := dom.NewEvent(call.Arguments[0].String(), init)
			if custom {
				ev.Detail = detail
			}
			ctx.constructed[ev] = true
			return ctx.eventProxy(ev)
		}
	}
	vm.Set("Event", construct("Event", false))
	vm.Set("CustomEvent", construct("CustomEvent", true))
}

func (ctx *domContext) eventInit(v goja.Value) (dom.EventInit, goja.Value) {
	var init dom.EventInit
	detail := goja.Null()
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return init, detail
	}
	obj := v.ToObject(ctx.vm)
	flag := func(name string) bool {
		f := obj.Get(name)
		return f != nil && f.ToBoolean()
	}
	init.Bubbles = flag("bubbles")
	init.Cancelable = flag("cancelable")
	init.Composed = flag("composed")
	if d := obj.Get("detail"); d != nil && !goja.IsUndefined(d) {
		detail = d
	}
	return init, detail
}

func (ctx *domContext) eventProxy(ev *dom.Event) *goja.Object {
	if obj, ok := ctx.events[ev]; ok {
		return obj
	}
	obj := ctx.vm.NewDynamicObject(&eventAccessor{ctx: ctx, ev: ev})
	ctx.events[ev] = obj
	ctx.byObj[obj] = ev
	return obj
}

// pruneEvents drops the proxies of finished events that Go code created,
// such as the ones fired by click(). Script-constructed events stay since
// the script may dispatch them again.
func (ctx *domContext) pruneEvents() {
	for ev, obj := range ctx.events {
		if ev.Dispatching() || ctx.constructed[ev] {
			continue
		}
		delete(ctx.byObj, obj)
		delete(ctx.events, ev)
	}
}

// listenerOptions reads the third addEventListener/removeEventListener
// argument: either a capture boolean or an options object.
func (ctx *domContext) listenerOptions(v goja.Value) (capture, once, passive bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return false, false, false
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.ToBoolean(), false, false
	}
	flag := func(name string) bool {
		f := obj.Get(name)
		return f != nil && f.ToBoolean()
	}
	return flag("capture"), flag("once"), flag("passive")
}

func (ctx *domContext) addEventListenerFn(t dom.Target) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(ctx.vm.NewTypeError("Failed to execute 'addEventListener' on 'EventTarget': 2 arguments required"))
		}
		cb, ok := call.Arguments[1].(*goja.Object)
		if !ok {
			return goja.Undefined()
		}
		typ := call.Arguments[0].String()
		capture, once, passive := ctx.listenerOptions(call.Argument(2))

		opts := []dom.ListenerOption{dom.WithKey(cb)}
		if capture {
			opts = append(opts, dom.Capture())
		}
		if once {
			opts = append(opts, dom.Once())
		}
		if passive {
			opts = append(opts, dom.Passive())
		}
		t.AddEventListener(typ, ctx.listener(cb), opts...)
		return goja.Undefined()
	}
}

// listener adapts a JS function, or an object with handleEvent, to a
// dom.Listener. A thrown exception becomes the listener's error.
func (ctx *domContext) listener(cb *goja.Object) dom.Listener {
	fn, isFn := goja.AssertFunction(cb)
	return func(ev *dom.Event) error {
		evObj := ctx.eventProxy(ev)
		var err error
		if isFn {
			_, err = fn(ctx.targetProxy(ev.CurrentTarget), evObj)
		} else if handle, ok := goja.AssertFunction(cb.Get("handleEvent")); ok {
			_, err = handle(cb, evObj)
		}
		if err != nil {
			ctx.logger.Debug("listener threw", zap.String("type", ev.Type), zap.Error(err))
		}
		return err
	}
}

func (ctx *domContext) removeEventListenerFn(t dom.Target) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		cb, ok := call.Argument(1).(*goja.Object)
		if !ok {
			return goja.Undefined()
		}
		typ := call.Argument(0).String()
		capture, _, _ := ctx.listenerOptions(call.Argument(2))
		if id, found := t.FindListener(typ, cb, capture); found {
			t.RemoveEventListener(typ, id)
		}
		return goja.Undefined()
	}
}

func (ctx *domContext) dispatchEventFn(t dom.Target) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		obj, _ := call.Argument(0).(*goja.Object)
		ev, ok := ctx.byObj[obj]
		if !ok {
			panic(ctx.vm.NewTypeError("Failed to execute 'dispatchEvent' on 'EventTarget': parameter 1 is not of type 'Event'"))
		}
		notCanceled, err := t.DispatchEvent(ev)
		ctx.pruneEvents()
		if err != nil {
			ctx.throw(err)
		}
		return ctx.vm.ToValue(notCanceled)
	}
}

// interactionFn wraps Element.Click, Focus or Blur for scripts.
func (ctx *domContext) interactionFn(fire func() error) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		err := fire()
		ctx.pruneEvents()
		if err != nil {
			ctx.throw(err)
		}
		return goja.Undefined()
	}
}

// throw rethrows a dispatch error into the running script. A listener's
// JS exception is rethrown as is; an interrupt is re-armed so the outer
// script stops too.
func (ctx *domContext) throw(err error) {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		panic(exc)
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		ctx.vm.Interrupt(interrupted.Value())
		return
	}
	if errors.Cause(err) == dom.ErrDispatching {
		ctx.throwDOMError("InvalidStateError", err.Error())
	}
	panic(ctx.vm.NewGoError(err))
}

// eventAccessor exposes a dom.Event to scripts.
type eventAccessor struct {
	ctx *domContext
	ev  *dom.Event
}

var eventKeys = []string{
	"type", "bubbles", "cancelable", "composed", "target", "currentTarget",
	"srcElement", "eventPhase", "defaultPrevented", "returnValue", "isTrusted",
	"timeStamp", "detail", "cancelBubble",
	"preventDefault", "stopPropagation", "stopImmediatePropagation", "composedPath",
	"NONE", "CAPTURING_PHASE", "AT_TARGET", "BUBBLING_PHASE",
}

func (a *eventAccessor) Get(key string) goja.Value {
	vm := a.ctx.vm
	ev := a.ev
	switch key {
	case "type":
		return vm.ToValue(ev.Type)
	case "bubbles":
		return vm.ToValue(ev.Bubbles)
	case "cancelable":
		return vm.ToValue(ev.Cancelable)
	case "composed":
		return vm.ToValue(ev.Composed)
	case "target", "srcElement":
		return a.ctx.targetProxy(ev.Target)
	case "currentTarget":
		return a.ctx.targetProxy(ev.CurrentTarget)
	case "eventPhase":
		return vm.ToValue(int(ev.EventPhase))
	case "defaultPrevented":
		return vm.ToValue(ev.DefaultPrevented)
	case "returnValue":
		return vm.ToValue(!ev.DefaultPrevented)
	case "isTrusted":
		return vm.ToValue(ev.IsTrusted)
	case "timeStamp":
		return vm.ToValue(float64(ev.TimeStamp.Sub(a.ctx.origin).Microseconds()) / 1000)
	case "detail":
		if d, ok := ev.Detail.(goja.Value); ok {
			return d
		}
		return goja.Null()
	case "cancelBubble":
		return vm.ToValue(ev.PropagationStopped())
	case "preventDefault":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			ev.PreventDefault()
			return goja.Undefined()
		})
	case "stopPropagation":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			ev.StopPropagation()
			return goja.Undefined()
		})
	case "stopImmediatePropagation":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			ev.StopImmediatePropagation()
			return goja.Undefined()
		})
	case "composedPath":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			path := ev.ComposedPath()
			items := make([]interface{}, len(path))
			for i, t := range path {
				items[i] = a.ctx.targetProxy(t)
			}
			return vm.NewArray(items...)
		})
	case "NONE":
		return vm.ToValue(int(dom.PhaseNone))
	case "CAPTURING_PHASE":
		return vm.ToValue(int(dom.PhaseCapturing))
	case "AT_TARGET":
		return vm.ToValue(int(dom.PhaseAtTarget))
	case "BUBBLING_PHASE":
		return vm.ToValue(int(dom.PhaseBubbling))
	}
	return goja.Undefined()
}

func (a *eventAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "cancelBubble":
		if val.ToBoolean() {
			a.ev.StopPropagation()
		}
		return true
	case "returnValue":
		if !val.ToBoolean() {
			a.ev.PreventDefault()
		}
		return true
	}
	return false
}

func (a *eventAccessor) Has(key string) bool {
	for _, k := range eventKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (a *eventAccessor) Delete(key string) bool {
	return false
}

func (a *eventAccessor) Keys() []string {
	return eventKeys
}
