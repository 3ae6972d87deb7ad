package posts

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

// ListFilter controls which posts are returned by List.
type ListFilter struct {
	UserID string
	Limit  int
	Offset int
}

// Store provides CRUD operations for posts.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a post. If p.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, p Post) (*Post, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, author, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Author, p.Body, p.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}
	return &p, nil
}

// GetByID retrieves a single post.
func (s *Store) GetByID(ctx context.Context, id string) (*Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, author, body, created_at FROM posts WHERE id = ?`, id)

	p, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}
	return p, nil
}

// List returns posts matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Post, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}

	query := "SELECT id, user_id, author, body, created_at FROM posts"
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
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var result []Post
	for rows.Next() {
		p, err := scanInto(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// Delete removes a post owned by userID and returns it.
func (s *Store) Delete(ctx context.Context, id, userID string) (*Post, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotOwner
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("deleting post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return p, nil
}

// Count returns the total number of posts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return n, nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Post, error) {
	var (
		p  Post
		ts string
	)
	if err := sc.Scan(&p.ID, &p.UserID, &p.Author, &p.Body, &ts); err != nil {
		return nil, err
	}
	for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, ts); err == nil {
			p.CreatedAt = t
			break
		}
	}
	return &p, nil
}
