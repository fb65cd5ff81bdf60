package observation

// Event is an informational signal emitted while an Observation is running.
// It carries no state change; handlers decide whether and how to record it.
type Event struct {
	name           string
	contextualName string
}

// NewEvent creates an Event with the given low-cardinality name.
func NewEvent(name string) Event {
	return Event{name: name}
}

// NewEventWithContextualName creates an Event with a low-cardinality name and
// a human-readable contextual name for this particular emission.
func NewEventWithContextualName(name string, contextualName string) Event {
	return Event{name: name, contextualName: contextualName}
}

func (e Event) Name() string {
	return e.name
}

// ContextualName returns the human-readable name, falling back to Name.
func (e Event) ContextualName() string {
	if e.contextualName == "" {
		return e.name
	}

	return e.contextualName
}
