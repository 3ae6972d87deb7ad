// Package widgets holds the local state of the marketing-page widgets. Each
// widget owns its state; widgets never share state with each other.
package widgets

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrUnknownCard is returned when entering a card outside the fixed set.
	ErrUnknownCard = errors.New("unknown card")
	// ErrNoMessages is returned when a bubble is created without messages.
	ErrNoMessages = errors.New("bubble needs at least one message")
)

// CardID identifies one hover card.
type CardID string

// HoverCard tracks which card, if any, the pointer is over.
type HoverCard struct {
	ids []CardID

	mu     sync.Mutex
	active CardID
}

// NewHoverCard creates a HoverCard over a fixed set of card ids.
func NewHoverCard(ids ...CardID) *HoverCard {
	return &HoverCard{ids: slices.Clone(ids)}
}

// Cards returns the fixed set of card ids in order.
func (h *HoverCard) Cards() []CardID {
	return slices.Clone(h.ids)
}

// Enter marks id as the active card.
func (h *HoverCard) Enter(id CardID) error {
	if !slices.Contains(h.ids, id) {
		return fmt.Errorf("%w: %q", ErrUnknownCard, id)
	}
	h.mu.Lock()
	h.active = id
	h.mu.Unlock()
	return nil
}

// Leave clears the active card.
func (h *HoverCard) Leave() {
	h.mu.Lock()
	h.active = ""
	h.mu.Unlock()
}

// Active returns the active card.
func (h *HoverCard) Active() (CardID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active, h.active != ""
}

// Bubble is a chat bubble that shows the next message, round-robin, every
// time it is opened.
type Bubble struct {
	messages []string

	mu    sync.Mutex
	open  bool
	index int
}

// NewBubble creates a closed bubble positioned at the first message.
func NewBubble(messages []string) (*Bubble, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	return &Bubble{messages: slices.Clone(messages)}, nil
}

// Toggle opens a closed bubble, advancing to the next message, or closes an
// open one. It returns whether the bubble is now open.
func (b *Bubble) Toggle() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		b.index = (b.index + 1) % len(b.messages)
	}
	b.open = !b.open
	return b.open
}

// Open reports whether the bubble is open.
func (b *Bubble) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Index returns the current message index.
func (b *Bubble) Index() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index
}

// Message returns the message at the current index.
func (b *Bubble) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.messages[b.index]
}

// Len returns the number of messages.
func (b *Bubble) Len() int {
	return len(b.messages)
}
