package notifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/delarsify/sanjeevani/internal/db"
	"github.com/delarsify/sanjeevani/internal/session"
)

// ErrNotFound is returned when a toast does not exist for the caller.
var ErrNotFound = errors.New("notification not found")

// ListFilter controls which toasts are returned by List.
type ListFilter struct {
	UserID    string
	Severity  session.Severity
	Delivered *bool
	Since     time.Time
	Limit     int
	Offset    int
}

// Store persists toasts.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a toast and returns it with its ID and creation time set.
func (s *Store) Create(ctx context.Context, t Toast) (Toast, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	delivered := 0
	if t.Delivered {
		delivered = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, severity, title, message, delivered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Severity), t.Title, t.Message, delivered,
		t.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return Toast{}, fmt.Errorf("inserting notification: %w", err)
	}
	return t, nil
}

// GetByID retrieves a single toast.
func (s *Store) GetByID(ctx context.Context, id string) (*Toast, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, severity, title, message, delivered, created_at
		FROM notifications WHERE id = ?`, id)

	t, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	return t, nil
}

// List returns toasts matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Toast, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if filter.Delivered != nil {
		v := 0
		if *filter.Delivered {
			v = 1
		}
		clauses = append(clauses, "delivered = ?")
		args = append(args, v)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := "SELECT id, user_id, severity, title, message, delivered, created_at FROM notifications"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var result []Toast
	for rows.Next() {
		t, err := scanInto(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

// MarkDelivered sets delivered=1 for the given toast. A non-empty userID
// restricts the update to that user's toasts.
func (s *Store) MarkDelivered(ctx context.Context, id, userID string) error {
	query := "UPDATE notifications SET delivered = 1 WHERE id = ?"
	args := []any{id}
	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("marking notification delivered: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Pending returns the undelivered toasts of a user.
func (s *Store) Pending(ctx context.Context, userID string) ([]Toast, error) {
	delivered := false
	return s.List(ctx, ListFilter{UserID: userID, Delivered: &delivered})
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Toast, error) {
	var (
		t         Toast
		severity  string
		delivered int
		ts        string
	)

	if err := sc.Scan(&t.ID, &t.UserID, &severity, &t.Title, &t.Message, &delivered, &ts); err != nil {
		return nil, err
	}

	t.Severity = session.Severity(severity)
	t.Delivered = delivered != 0

	if parsed, err := time.Parse(time.DateTime, ts); err == nil {
		t.CreatedAt = parsed
	} else if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
		t.CreatedAt = parsed
	}
	return &t, nil
}
