package settingsync

import "sync"

// NetworkStatus is the injected connectivity provider. Services consult it
// before any remote operation and subscribe to transitions to sync on
// reconnect. Injecting it (instead of reading ambient state) keeps the
// network fakeable in tests.
type NetworkStatus interface {
	// Online reports current connectivity.
	Online() bool
	// Subscribe registers a callback for connectivity transitions and returns
	// an unsubscribe function.
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// AlwaysOnline is a NetworkStatus that reports permanent connectivity and
// never fires transitions.
type AlwaysOnline struct{}

// Online always reports true.
func (AlwaysOnline) Online() bool {
	return true
}

// Subscribe is a no-op; the status never changes.
func (AlwaysOnline) Subscribe(_ func(online bool)) func() {
	return func() {}
}

// ManualNetworkStatus is a NetworkStatus driven by explicit SetOnline calls.
// It backs tests and hosts that derive connectivity from their own signals.
type ManualNetworkStatus struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(online bool)
}

// NewManualNetworkStatus creates a manual status provider with the given initial state.
func NewManualNetworkStatus(online bool) *ManualNetworkStatus {
	return &ManualNetworkStatus{
		online: online,
		subs:   make(map[int]func(online bool)),
	}
}

// Online reports the last state set.
func (m *ManualNetworkStatus) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.online
}

// SetOnline updates the state and notifies subscribers of a transition.
func (m *ManualNetworkStatus) SetOnline(online bool) {
	m.mu.Lock()

	if m.online == online {
		m.mu.Unlock()

		return
	}

	m.online = online

	subs := make([]func(online bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe registers a transition callback.
func (m *ManualNetworkStatus) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.subs, id)
	}
}
