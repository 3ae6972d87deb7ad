package posts

import "sync"

// Feed fans post changes out to live subscribers. Publish calls handlers
// synchronously on the publishing goroutine.
type Feed struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]func(Event)
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]func(Event))}
}

// Subscribe registers handler. The returned function cancels the
// subscription and may be called more than once.
func (f *Feed) Subscribe(handler func(Event)) (cancel func()) {
	f.mu.Lock()
	f.next++
	id := f.next
	f.subs[id] = handler
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber.
func (f *Feed) Publish(ev Event) {
	f.mu.Lock()
	handlers := make([]func(Event), 0, len(f.subs))
	for _, h := range f.subs {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscribers returns the number of live subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
