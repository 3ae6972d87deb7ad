package auth

import (
	"sync"

	"github.com/delarsify/sanjeevani/internal/session"
)

// Broker fans session change events out to subscribers keyed by token hash.
// Publish is synchronous and serialized, so every subscriber sees events in
// the order they were published. Handlers must not publish.
type Broker struct {
	pub sync.Mutex

	mu   sync.Mutex
	next uint64
	subs map[string]map[uint64]func(session.Event)
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[uint64]func(session.Event))}
}

// Subscribe registers handler for events published under key.
func (b *Broker) Subscribe(key string, handler func(session.Event)) session.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	if b.subs[key] == nil {
		b.subs[key] = make(map[uint64]func(session.Event))
	}
	b.subs[key][id] = handler
	return &subscription{broker: b, key: key, id: id}
}

// Publish delivers ev to every handler subscribed under key and returns once
// they have all run.
func (b *Broker) Publish(key string, ev session.Event) {
	b.pub.Lock()
	defer b.pub.Unlock()

	b.mu.Lock()
	handlers := make([]func(session.Event), 0, len(b.subs[key]))
	for _, h := range b.subs[key] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Count returns the number of live subscriptions under key.
func (b *Broker) Count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[key])
}

func (b *Broker) remove(key string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[key], id)
	if len(b.subs[key]) == 0 {
		delete(b.subs, key)
	}
}

type subscription struct {
	broker *Broker
	key    string
	id     uint64
	once   sync.Once
}

func (s *subscription) Cancel() {
	s.once.Do(func() { s.broker.remove(s.key, s.id) })
}
