package bridge

import "sync"

// Provider event names.
const (
	EventConnect         = "connect"
	EventDisconnect      = "disconnect"
	EventChainChanged    = "chainChanged"
	EventAccountsChanged = "accountsChanged"
)

// Listener receives the payload of an emitted event.
type Listener func(payload ...any)

type subscription struct {
	fn Listener
}

// EventNotifier fans events out to subscribers. Listeners of one event run
// synchronously in subscription order on the emitting goroutine.
type EventNotifier struct {
	mu   sync.Mutex
	subs map[string][]*subscription
}

func NewEventNotifier() *EventNotifier {
	return &EventNotifier{subs: make(map[string][]*subscription)}
}

// Subscribe registers fn for event and returns a func that removes it again.
// Calling the returned func more than once is harmless.
func (n *EventNotifier) Subscribe(event string, fn Listener) (unsubscribe func()) {
	sub := &subscription{fn: fn}

	n.mu.Lock()
	n.subs[event] = append(n.subs[event], sub)
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(event, sub) })
	}
}

func (n *EventNotifier) remove(event string, sub *subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()

	subs := n.subs[event]
	for i, s := range subs {
		if s != sub {
			continue
		}
		rest := make([]*subscription, 0, len(subs)-1)
		rest = append(append(rest, subs[:i]...), subs[i+1:]...)
		if len(rest) == 0 {
			delete(n.subs, event)
		} else {
			n.subs[event] = rest
		}
		return
	}
}

// Emit calls every listener of event with payload and reports whether there
// was at least one. Listeners may subscribe or unsubscribe while being
// called; such changes apply from the next Emit on.
func (n *EventNotifier) Emit(event string, payload ...any) bool {
	n.mu.Lock()
	subs := n.subs[event]
	n.mu.Unlock()

	for _, s := range subs {
		s.fn(payload...)
	}
	return len(subs) > 0
}

// Listeners returns the number of subscribers for event.
func (n *EventNotifier) Listeners(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[event])
}
