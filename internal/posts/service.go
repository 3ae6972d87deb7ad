package posts

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/delarsify/sanjeevani/internal/audit"
	"github.com/delarsify/sanjeevani/internal/session"
)

// Service applies post changes on behalf of a member, records them in the
// audit trail and publishes them to the feed.
type Service struct {
	store *Store
	feed  *Feed
	audit *audit.Store
	log   *logrus.Entry
}

// NewService creates a Service. auditStore may be nil.
func NewService(store *Store, feed *Feed, auditStore *audit.Store) *Service {
	return &Service{
		store: store,
		feed:  feed,
		audit: auditStore,
		log:   logrus.WithField("component", "posts"),
	}
}

// Feed returns the live feed.
func (s *Service) Feed() *Feed { return s.feed }

// List returns posts, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Post, error) {
	return s.store.List(ctx, filter)
}

// Get returns a single post.
func (s *Service) Get(ctx context.Context, id string) (*Post, error) {
	return s.store.GetByID(ctx, id)
}

// Create publishes a new post by author.
func (s *Service) Create(ctx context.Context, author session.Session, body string) (*Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyPost
	}
	if len(body) > MaxPostLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrPostTooLong, len(body))
	}

	p, err := s.store.Create(ctx, Post{
		UserID: author.UserID,
		Author: author.Name(),
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, author.UserID, audit.ActionPostCreated, "Created a community post", p.ID)
	s.log.WithFields(logrus.Fields{"user_id": author.UserID, "post_id": p.ID}).Info("post created")
	s.feed.Publish(Event{Kind: EventCreated, Post: *p})
	return p, nil
}

// Delete removes a post owned by member.
func (s *Service) Delete(ctx context.Context, member session.Session, id string) error {
	p, err := s.store.Delete(ctx, id, member.UserID)
	if err != nil {
		return err
	}

	s.record(ctx, member.UserID, audit.ActionPostDeleted, "Deleted a community post", p.ID)
	s.log.WithFields(logrus.Fields{"user_id": member.UserID, "post_id": p.ID}).Info("post deleted")
	s.feed.Publish(Event{Kind: EventDeleted, Post: *p})
	return nil
}

func (s *Service) record(ctx context.Context, actorID string, action audit.Action, summary, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, audit.Entry{
		ActorID: actorID,
		Action:  action,
		Summary: summary,
		Detail:  detail,
	}); err != nil {
		s.log.WithError(err).WithField("action", action).Warn("writing audit entry failed")
	}
}
