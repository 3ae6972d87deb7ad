package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/delarsify/sanjeevani/internal/db"
	"github.com/delarsify/sanjeevani/internal/llm"
)

// Store manages persistence of conversations and their messages.
type Store struct {
	db *db.DB
}

// NewStore creates a new chat store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateConversation starts a new conversation for userID.
func (s *Store) CreateConversation(ctx context.Context, userID string) (*Conversation, error) {
	now := time.Now().UTC().Truncate(time.Second)
	c := &Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, now.Format(time.DateTime), now.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return c, nil
}

// LatestConversation returns the most recently active conversation of
// userID, or nil if there is none.
func (s *Store) LatestConversation(ctx context.Context, userID string) (*Conversation, error) {
	var (
		c                Conversation
		created, updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM chat_sessions
		 WHERE user_id = ? ORDER BY updated_at DESC, rowid DESC LIMIT 1`, userID,
	).Scan(&c.ID, &c.UserID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest conversation: %w", err)
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return &c, nil
}

// AddMessage appends a message to a conversation and bumps its activity
// time.
func (s *Store) AddMessage(ctx context.Context, conversationID string, role llm.Role, content string) (*Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE session_id = ?`, conversationID,
	).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("getting next sequence: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	m := &Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Seq:            seq,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, seq, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.Seq, string(m.Role), m.Content, now.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = ? WHERE id = ?`, now.Format(time.DateTime), conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}
	return m, nil
}

// Messages returns the last limit messages of a conversation in order. A
// non-positive limit returns all of them.
func (s *Store) Messages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	query := `SELECT id, session_id, seq, role, content, created_at FROM chat_messages
		 WHERE session_id = ? ORDER BY seq DESC`
	args := []any{conversationID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var (
			m       Message
			role    string
			created string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Seq, &role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = llm.Role(role)
		m.CreatedAt = parseTime(created)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// CountConversations returns the number of conversations userID has.
func (s *Store) CountConversations(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_sessions WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting conversations: %w", err)
	}
	return n, nil
}

func parseTime(ts string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}
