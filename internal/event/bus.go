// Package event provides the synchronous pub/sub bus used by the viewer core.
//
// The bus makes two ordering guarantees that callers rely on as hard
// contracts:
//
//   - Dispatch operates on a snapshot of the listener list taken before any
//     handler runs. Subscriptions added or removed during a dispatch do not
//     affect the in-progress dispatch.
//   - Handlers marked external are deferred: every internal handler for an
//     event runs first (in subscribe order), then every external handler (in
//     subscribe order). External consumers therefore always observe internal
//     state updates before reacting.
package event

import (
	"sync"

	"github.com/google/uuid"
)

// Name identifies an event on the bus.
type Name string

// Handler receives an event payload.
type Handler func(payload any)

// Bus is a synchronous publish/subscribe event bus.
// All methods are safe for concurrent use.
type Bus struct {
	mu   sync.Mutex
	subs map[Name][]*Subscription
	byID map[string]*Subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Name][]*Subscription),
		byID: make(map[string]*Subscription),
	}
}

// Subscribe registers a handler for the named event and returns the
// subscription handle used to unsubscribe.
func (b *Bus) Subscribe(name Name, handler Handler, opts ...SubscribeOption) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if name == "" {
		return nil, ErrInvalidName
	}

	cfg := defaultSubscribeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sub := &Subscription{
		id:       uuid.NewString(),
		name:     name,
		handler:  handler,
		once:     cfg.once,
		external: cfg.external,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[name] = append(b.subs[name], sub)
	b.byID[sub.id] = sub

	return sub, nil
}

// Unsubscribe removes a subscription. Removing a nil, unknown, or
// already-removed subscription is a silent no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(sub)
}

// Dispatch invokes every handler subscribed to name with the given payload.
// Internal handlers run first in subscribe order, then external handlers in
// subscribe order. Dispatching an event with no listeners is a no-op.
func (b *Bus) Dispatch(name Name, payload any) {
	b.mu.Lock()

	current := b.subs[name]
	if len(current) == 0 {
		b.mu.Unlock()
		return
	}

	// Snapshot before invoking anything so mutations made by handlers do
	// not affect this dispatch.
	snapshot := make([]*Subscription, len(current))
	copy(snapshot, current)

	// One-shot subscriptions are deregistered before invocation so a panic
	// inside the handler cannot leave them re-armed.
	for _, sub := range snapshot {
		if sub.once {
			b.removeLocked(sub)
		}
	}

	b.mu.Unlock()

	for _, sub := range snapshot {
		if !sub.external {
			sub.handler(payload)
		}
	}
	for _, sub := range snapshot {
		if sub.external {
			sub.handler(payload)
		}
	}
}

// Count returns the number of live subscriptions for the named event.
func (b *Bus) Count(name Name) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[name])
}

// Clear removes every subscription from the bus.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs = make(map[Name][]*Subscription)
	b.byID = make(map[string]*Subscription)
}

// removeLocked removes a subscription from both indexes.
// The caller must hold b.mu.
func (b *Bus) removeLocked(sub *Subscription) {
	if _, exists := b.byID[sub.id]; !exists {
		return
	}
	delete(b.byID, sub.id)

	list := b.subs[sub.name]
	for i, s := range list {
		if s.id == sub.id {
			b.subs[sub.name] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[sub.name]) == 0 {
		delete(b.subs, sub.name)
	}
}
