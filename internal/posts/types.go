// Package posts implements the community feed: member posts stored in
// SQLite, rendered from Markdown and fanned out live to mounted panels.
package posts

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a post does not exist.
	ErrNotFound = errors.New("post not found")
	// ErrNotOwner is returned when a member deletes someone else's post.
	ErrNotOwner = errors.New("post belongs to another member")
	// ErrEmptyPost is returned for posts without content.
	ErrEmptyPost = errors.New("post is empty")
	// ErrPostTooLong is returned for posts above MaxPostLength.
	ErrPostTooLong = errors.New("post is too long")
)

// MaxPostLength bounds a post body, in bytes.
const MaxPostLength = 5000

// Post is a single community post. Body is Markdown.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// EventKind names a change to the feed.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventDeleted EventKind = "deleted"
)

// Event is a single feed change.
type Event struct {
	Kind EventKind
	Post Post
}
