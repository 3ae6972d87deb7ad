package audit

import "time"

// Action describes what was done.
type Action string

const (
	ActionSignedIn       Action = "signed_in"
	ActionSignedOut      Action = "signed_out"
	ActionSessionExpired Action = "session_expired"
	ActionPostCreated    Action = "post_created"
	ActionPostDeleted    Action = "post_deleted"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	Summary   string    `json:"summary"`
	Detail    string    `json:"detail,omitempty"`
}
