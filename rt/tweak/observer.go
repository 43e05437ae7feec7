package tweak

// EventKind identifies what changed.
type EventKind int

const (
	// EventSet is fired after SetOverride.
	EventSet EventKind = iota + 1
	// EventClear is fired after ClearOverride. Value is the default.
	EventClear
	// EventReset is fired once after Reset, however many keys were cleared.
	EventReset
	// EventLoad is fired once after LoadOverrides applied persisted values.
	EventLoad
)

func (k EventKind) String() string {
	switch k {
	case EventSet:
		return "set"
	case EventClear:
		return "clear"
	case EventReset:
		return "reset"
	case EventLoad:
		return "load"
	default:
		return "unknown"
	}
}

// Event describes a committed store mutation.
type Event struct {
	Kind EventKind

	// Key and Value are set for EventSet and EventClear. Value is the new
	// effective value.
	Key   string
	Value Value

	// Keys lists affected keys (sorted) for EventReset and EventLoad.
	Keys []string
}

// Observer receives store events.
//
// Observers run synchronously on the write path, one after another in
// subscription order. They may read the store but must not call write APIs
// (those return ErrReentrantWrite). Observers must be fast and must not block.
type Observer interface {
	OnTweakEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnTweakEvent(e Event) { f(e) }
