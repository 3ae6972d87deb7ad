package notifications

import (
	"time"

	"github.com/delarsify/sanjeevani/internal/session"
)

// Toast is a persisted user-visible notification.
type Toast struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Severity  session.Severity `json:"severity"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Delivered bool             `json:"delivered"`
	CreatedAt time.Time        `json:"created_at"`

	// Key scopes live delivery to one view. It is not stored.
	Key string `json:"-"`
}

// FromSession converts a toast raised by a session gate.
func FromSession(t session.Toast) Toast {
	sev := t.Severity
	if sev == "" {
		sev = session.SeverityInfo
	}
	return Toast{
		UserID:   t.UserID,
		Key:      t.Key,
		Severity: sev,
		Title:    t.Title,
		Message:  t.Message,
	}
}

// Sink receives toasts for one live connection.
type Sink interface {
	Deliver(t Toast) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Toast) error

func (f SinkFunc) Deliver(t Toast) error { return f(t) }
