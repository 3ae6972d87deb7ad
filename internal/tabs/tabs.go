// Package tabs implements single-selection navigation across a fixed set of
// content panels. Exactly one panel is mounted at a time.
package tabs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/delarsify/sanjeevani/internal/session"
)

var (
	// ErrUnknownTab is returned when a tab outside the fixed set is selected.
	ErrUnknownTab = errors.New("unknown tab")
	errClosed     = errors.New("tabs: area closed")
)

// Tab identifies one content panel.
type Tab int

const (
	Chat Tab = iota
	Community
)

// Default is the tab shown when an Area is created.
const Default = Chat

var tabNames = [...]string{
	Chat:      "chat",
	Community: "community",
}

// All returns every tab in display order.
func All() []Tab {
	return []Tab{Chat, Community}
}

// Valid reports whether t belongs to the fixed set.
func (t Tab) Valid() bool {
	return t >= 0 && int(t) < len(tabNames)
}

func (t Tab) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tab(%d)", int(t))
	}
	return tabNames[t]
}

// Label is the human-readable tab caption.
func (t Tab) Label() string {
	switch t {
	case Chat:
		return "Chat"
	case Community:
		return "Community"
	default:
		return t.String()
	}
}

// ParseTab converts a tab name into a Tab.
func ParseTab(s string) (Tab, error) {
	for i, name := range tabNames {
		if name == s {
			return Tab(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

// Panel is a mounted content panel.
type Panel interface {
	// Unmount releases everything the panel holds. The panel is not used
	// afterwards.
	Unmount()
}

// MountFunc creates a panel for the given identity.
type MountFunc func(identity session.Session) (Panel, error)

// Mounts holds one constructor per tab.
type Mounts struct {
	Chat      MountFunc
	Community MountFunc
}

func (m Mounts) validate() error {
	if m.Chat == nil || m.Community == nil {
		return errors.New("tabs: every tab needs a mount function")
	}
	return nil
}

func (m Mounts) mount(t Tab, identity session.Session) (Panel, error) {
	switch t {
	case Chat:
		return m.Chat(identity)
	case Community:
		return m.Community(identity)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTab, t)
}

// Area holds the active tab and its mounted panel.
type Area struct {
	mounts Mounts

	mu       sync.Mutex
	identity session.Session
	active   Tab
	panel    Panel
	closed   bool
}

// NewArea mounts the default tab's panel for identity.
func NewArea(identity session.Session, mounts Mounts) (*Area, error) {
	if err := mounts.validate(); err != nil {
		return nil, err
	}
	panel, err := mounts.mount(Default, identity)
	if err != nil {
		return nil, fmt.Errorf("mounting %s panel: %w", Default, err)
	}
	return &Area{
		identity: identity,
		mounts:   mounts,
		active:   Default,
		panel:    panel,
	}, nil
}

// Select makes t the active tab. Selecting the active tab changes nothing.
// The new panel is built before the old one is unmounted, so a panel that
// fails to mount leaves the previous one in place. The old panel is
// unmounted before Select returns; callers never observe two panels.
func (a *Area) Select(t Tab) (bool, error) {
	if !t.Valid() {
		return false, fmt.Errorf("%w: %s", ErrUnknownTab, t)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return false, errClosed
	}
	if t == a.active {
		return false, nil
	}

	next, err := a.mounts.mount(t, a.identity)
	if err != nil {
		return false, fmt.Errorf("mounting %s panel: %w", t, err)
	}

	a.panel.Unmount()
	a.panel = next
	a.active = t
	return true, nil
}

// Active returns the active tab.
func (a *Area) Active() Tab {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Panel returns the mounted panel, or nil once the area is closed.
func (a *Area) Panel() Panel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.panel
}

// Identity returns the identity the next panel will be mounted with.
func (a *Area) Identity() session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity
}

// SetIdentity replaces the identity panels are mounted with. If the member's
// user id, email or display name changed, the active panel is remounted with
// the new identity and SetIdentity reports true. A failed remount keeps the
// old panel but still records the new identity for later mounts.
func (a *Area) SetIdentity(identity session.Session) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return false, errClosed
	}
	prev := a.identity
	a.identity = identity
	if sameMember(prev, identity) {
		return false, nil
	}

	next, err := a.mounts.mount(a.active, identity)
	if err != nil {
		return false, fmt.Errorf("remounting %s panel: %w", a.active, err)
	}
	a.panel.Unmount()
	a.panel = next
	return true, nil
}

func sameMember(a, b session.Session) bool {
	return a.UserID == b.UserID && a.Email == b.Email && a.DisplayName == b.DisplayName
}

// Close unmounts the active panel.
func (a *Area) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	if a.panel != nil {
		a.panel.Unmount()
		a.panel = nil
	}
}
