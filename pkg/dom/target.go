package dom

// Target is anything events can be dispatched to: an *Element or the
// *Document at the root of every propagation path.
type Target interface {
	AddEventListener(typ string, fn Listener, opts ...ListenerOption) ListenerID
	RemoveEventListener(typ string, id ListenerID)
	FindListener(typ string, key interface{}, capture bool) (ListenerID, bool)
	DispatchEvent(ev *Event) (bool, error)

	listeners() *EventTarget
	parentTarget() Target
}

// Listener handles an event. A non-nil error aborts dispatch and is
// returned to whoever dispatched the event.
type Listener func(ev *Event) error

// ListenerID identifies a registration so it can be removed later.
type ListenerID uint64

type listenerOptions struct {
	capture bool
	once    bool
	passive bool
	key     interface{}
}

type ListenerOption func(*listenerOptions)

// Capture registers the listener for the capture phase.
func Capture() ListenerOption {
	return func(o *listenerOptions) { o.capture = true }
}

// Once removes the listener before its first invocation.
func Once() ListenerOption {
	return func(o *listenerOptions) { o.once = true }
}

// Passive makes PreventDefault a no-op inside the listener.
func Passive() ListenerOption {
	return func(o *listenerOptions) { o.passive = true }
}

// WithKey identifies the callback behind a listener. A second registration
// with the same key and capture flag is ignored and returns the first ID.
// key must be comparable.
func WithKey(key interface{}) ListenerOption {
	return func(o *listenerOptions) { o.key = key }
}

type eventListener struct {
	id      ListenerID
	fn      Listener
	options listenerOptions
	removed bool
}

// EventTarget is the listener registry embedded by Element and Document.
type EventTarget struct {
	registry map[string][]*eventListener
	nextID   ListenerID
}

func (et *EventTarget) listeners() *EventTarget {
	return et
}

func (et *EventTarget) AddEventListener(typ string, fn Listener, opts ...ListenerOption) ListenerID {
	var o listenerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.key != nil {
		if id, ok := et.FindListener(typ, o.key, o.capture); ok {
			return id
		}
	}
	if et.registry == nil {
		et.registry = make(map[string][]*eventListener)
	}
	et.nextID++
	et.registry[typ] = append(et.registry[typ], &eventListener{
		id:      et.nextID,
		fn:      fn,
		options: o,
	})
	return et.nextID
}

// FindListener looks up the registration made with WithKey(key).
func (et *EventTarget) FindListener(typ string, key interface{}, capture bool) (ListenerID, bool) {
	for _, l := range et.registry[typ] {
		if l.options.key == key && l.options.capture == capture {
			return l.id, true
		}
	}
	return 0, false
}

func (et *EventTarget) RemoveEventListener(typ string, id ListenerID) {
	list := et.registry[typ]
	for i, l := range list {
		if l.id == id {
			l.removed = true
			et.registry[typ] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// HasEventListeners reports whether any listener is registered for typ.
func (et *EventTarget) HasEventListeners(typ string) bool {
	return len(et.registry[typ]) > 0
}

// snapshot copies the listener list so registrations made during dispatch
// are not invoked for the current event.
func (et *EventTarget) snapshot(typ string) []*eventListener {
	list := et.registry[typ]
	if len(list) == 0 {
		return nil
	}
	out := make([]*eventListener, len(list))
	copy(out, list)
	return out
}

// dispatch runs the capture, at-target and bubble phases over the path
// from receiver up to the document.
func dispatch(receiver Target, ev *Event) (bool, error) {
	if ev.dispatching {
		return false, ErrDispatching
	}
	ev.dispatching = true
	ev.Target = receiver
	ev.path = propagationPath(receiver)
	defer func() {
		ev.dispatching = false
		ev.CurrentTarget = nil
		ev.EventPhase = PhaseNone
		ev.stopPropagation = false
		ev.stopImmediate = false
		ev.path = nil
	}()

	path := ev.path
	for i := len(path) - 1; i > 0 && !ev.stopPropagation; i-- {
		if err := invoke(path[i], ev, PhaseCapturing, true); err != nil {
			return false, err
		}
	}
	if !ev.stopPropagation {
		if err := invoke(path[0], ev, PhaseAtTarget, true); err != nil {
			return false, err
		}
	}
	if !ev.stopPropagation {
		if err := invoke(path[0], ev, PhaseAtTarget, false); err != nil {
			return false, err
		}
	}
	if ev.Bubbles {
		for i := 1; i < len(path) && !ev.stopPropagation; i++ {
			if err := invoke(path[i], ev, PhaseBubbling, false); err != nil {
				return false, err
			}
		}
	}
	return !ev.DefaultPrevented, nil
}

func propagationPath(t Target) []Target {
	var path []Target
	for ; t != nil; t = t.parentTarget() {
		path = append(path, t)
	}
	return path
}

func invoke(t Target, ev *Event, phase Phase, capture bool) error {
	et := t.listeners()
	ev.CurrentTarget = t
	ev.EventPhase = phase
	for _, l := range et.snapshot(ev.Type) {
		if l.removed || l.options.capture != capture {
			continue
		}
		if l.options.once {
			et.RemoveEventListener(ev.Type, l.id)
		}
		ev.inPassive = l.options.passive
		err := l.fn(ev)
		ev.inPassive = false
		if err != nil {
			return err
		}
		if ev.stopImmediate {
			break
		}
	}
	return nil
}
