package dom

import "time"

// Phase is the stage of propagation an event is currently in.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

func (p Phase) String() string {
	switch p {
	case PhaseCapturing:
		return "capturing"
	case PhaseAtTarget:
		return "at-target"
	case PhaseBubbling:
		return "bubbling"
	}
	return "none"
}

// EventInit mirrors the dictionary accepted by the Event constructor.
type EventInit struct {
	Bubbles    bool
	Cancelable bool
	Composed   bool
}

// Event is a DOM event. Target and CurrentTarget are plain fields so a
// dispatcher can stamp them before handing the event to DispatchEvent.
type Event struct {
	Type       string
	Bubbles    bool
	Cancelable bool
	// Composed is carried for scripts; there are no shadow trees to cross.
	Composed bool

	Target           Target
	CurrentTarget    Target
	EventPhase       Phase
	DefaultPrevented bool
	IsTrusted        bool
	TimeStamp        time.Time

	// Detail holds the payload of a CustomEvent.
	Detail interface{}

	stopPropagation bool
	stopImmediate   bool
	inPassive       bool
	dispatching     bool
	path            []Target
}

func NewEvent(typ string, init EventInit) *Event {
	return &Event{
		Type:       typ,
		Bubbles:    init.Bubbles,
		Cancelable: init.Cancelable,
		Composed:   init.Composed,
		TimeStamp:  time.Now(),
	}
}

// PreventDefault marks the event canceled. It has no effect on events that
// are not cancelable or from inside a passive listener.
func (ev *Event) PreventDefault() {
	if ev.Cancelable && !ev.inPassive {
		ev.DefaultPrevented = true
	}
}

func (ev *Event) StopPropagation() {
	ev.stopPropagation = true
}

func (ev *Event) StopImmediatePropagation() {
	ev.stopPropagation = true
	ev.stopImmediate = true
}

func (ev *Event) PropagationStopped() bool {
	return ev.stopPropagation
}

// Dispatching reports whether the event is currently being dispatched.
func (ev *Event) Dispatching() bool {
	return ev.dispatching
}

// ComposedPath returns the propagation path, target first. It is empty
// outside of dispatch.
func (ev *Event) ComposedPath() []Target {
	path := make([]Target, len(ev.path))
	copy(path, ev.path)
	return path
}
