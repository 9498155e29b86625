package settingsync

import "sync"

// EventType identifies a settings update notification.
type EventType string

const (
	// EventModuleUpdated is emitted after a successful background refresh of a
	// module's full settings.
	EventModuleUpdated EventType = "module-updated"
	// EventSettingUpdated is emitted after a successful field-level background
	// refresh.
	EventSettingUpdated EventType = "setting-updated"
)

// Event is an update notification. Module is always set; Key only for
// EventSettingUpdated.
type Event struct {
	Type   EventType
	Module string
	Key    string
}

// Notifier fans update notifications out to subscribers. The settings layer
// only emits; consumption is up to the host application.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewNotifier creates a new notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[int]func(Event)),
	}
}

// Subscribe registers a callback for all events and returns an unsubscribe function.
func (n *Notifier) Subscribe(fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		delete(n.subs, id)
	}
}

// Publish delivers an event to all subscribers. Delivery is synchronous and
// in-process; subscribers must not block.
func (n *Notifier) Publish(event Event) {
	n.mu.Lock()
	subs := make([]func(Event), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}
