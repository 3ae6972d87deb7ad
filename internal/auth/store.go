package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/delarsify/sanjeevani/internal/db"
)

// Provider names how a user signed in.
type Provider string

const (
	ProviderEmail  Provider = "email"
	ProviderGoogle Provider = "google"
)

// User is a registered member.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Provider    Provider  `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionRecord is a stored session joined with its user.
type SessionRecord struct {
	TokenHash   string
	UserID      string
	Email       string
	DisplayName string
	ExpiresAt   time.Time
}

// Store persists users and their sessions. Session tokens are never stored,
// only their hashes.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// UpsertUser creates the user for email, or updates the display name of an
// existing one when name is non-empty.
func (s *Store) UpsertUser(ctx context.Context, email, name string, provider Provider) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, provider) VALUES (?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE users.display_name END`,
		uuid.New().String(), email, name, string(provider),
	)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}
	return s.userByEmail(ctx, email)
}

func (s *Store) userByEmail(ctx context.Context, email string) (*User, error) {
	var (
		u        User
		provider string
		created  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, provider, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &provider, &created)
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", email, err)
	}
	u.Provider = Provider(provider)
	u.CreatedAt = parseTime(created)
	return &u, nil
}

// UpdateDisplayName changes a user's display name.
func (s *Store) UpdateDisplayName(ctx context.Context, userID, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET display_name = ? WHERE id = ?`, name, userID)
	if err != nil {
		return fmt.Errorf("updating display name: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating display name: user %s not found", userID)
	}
	return nil
}

// CreateSession stores a session for userID under tokenHash.
func (s *Store) CreateSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_sessions (token_hash, user_id, expires_at) VALUES (?, ?, ?)`,
		tokenHash, userID, expiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// LookupSession returns the session stored under tokenHash, or nil if there
// is none. Expired sessions are returned as well; callers check ExpiresAt.
func (s *Store) LookupSession(ctx context.Context, tokenHash string) (*SessionRecord, error) {
	var (
		rec     SessionRecord
		expires int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT s.token_hash, u.id, u.email, u.display_name, s.expires_at
		FROM auth_sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = ?`, tokenHash,
	).Scan(&rec.TokenHash, &rec.UserID, &rec.Email, &rec.DisplayName, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	rec.ExpiresAt = time.Unix(expires, 0)
	return &rec, nil
}

// ExtendSession moves the expiry of a session.
func (s *Store) ExtendSession(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE auth_sessions SET expires_at = ? WHERE token_hash = ?`,
		expiresAt.Unix(), tokenHash,
	)
	if err != nil {
		return fmt.Errorf("extending session: %w", err)
	}
	return nil
}

// DeleteSession removes a session. It reports whether one existed.
func (s *Store) DeleteSession(ctx context.Context, tokenHash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return false, fmt.Errorf("deleting session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting session: %w", err)
	}
	return n > 0, nil
}

// ExpiredSessions returns sessions that expired at or before now.
func (s *Store) ExpiredSessions(ctx context.Context, now time.Time) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.token_hash, u.id, u.email, u.display_name, s.expires_at
		FROM auth_sessions s JOIN users u ON u.id = s.user_id
		WHERE s.expires_at <= ?
		ORDER BY s.expires_at`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("listing expired sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			rec     SessionRecord
			expires int64
		)
		if err := rows.Scan(&rec.TokenHash, &rec.UserID, &rec.Email, &rec.DisplayName, &expires); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		rec.ExpiresAt = time.Unix(expires, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SessionHashesForUser returns the token hashes of every session userID holds.
func (s *Store) SessionHashesForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token_hash FROM auth_sessions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions for user: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scanning session hash: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
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
