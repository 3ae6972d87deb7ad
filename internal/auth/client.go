package auth

import (
	"context"

	"github.com/delarsify/sanjeevani/internal/session"
)

// client binds a Service to one session token.
type client struct {
	svc   *Service
	token string
}

func (c *client) CurrentSession(ctx context.Context) (*session.Session, error) {
	return c.svc.CurrentSession(ctx, c.token)
}

func (c *client) SubscribeSessionChanges(handler func(session.Event)) session.Subscription {
	return c.svc.Subscribe(c.token, handler)
}

func (c *client) SignOut(ctx context.Context) error {
	return c.svc.SignOut(ctx, c.token)
}
