package posts

import (
	"context"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/delarsify/sanjeevani/internal/session"
)

// PageSize is how many posts a panel shows.
const PageSize = 50

// Panel is the community tab for one signed-in member. While mounted it
// follows the live feed.
type Panel struct {
	identity session.Session
	svc      *Service
	renderer *Renderer
	onChange func()
	log      *logrus.Entry

	mu     sync.Mutex
	posts  []Post
	closed bool
	cancel func()
}

// NewPanel mounts the community panel for identity. onChange, if non-nil, is
// called after a feed event changes the visible posts.
func NewPanel(ctx context.Context, identity session.Session, svc *Service, renderer *Renderer, onChange func()) (*Panel, error) {
	p := &Panel{
		identity: identity,
		svc:      svc,
		renderer: renderer,
		onChange: onChange,
		log:      logrus.WithFields(logrus.Fields{"component": "posts.panel", "user_id": identity.UserID}),
	}

	// Subscribe before loading so no post falls between the two.
	p.cancel = svc.Feed().Subscribe(p.apply)

	list, err := svc.List(ctx, ListFilter{Limit: PageSize})
	if err != nil {
		p.cancel()
		return nil, err
	}

	p.mu.Lock()
	for _, post := range list {
		if !slices.ContainsFunc(p.posts, func(q Post) bool { return q.ID == post.ID }) {
			p.posts = append(p.posts, post)
		}
	}
	p.mu.Unlock()
	return p, nil
}

// Identity returns the identity the panel was mounted with.
func (p *Panel) Identity() session.Session {
	return p.identity
}

// Posts returns the visible posts, newest first.
func (p *Panel) Posts() []Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.posts)
}

func (p *Panel) apply(ev Event) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	idx := slices.IndexFunc(p.posts, func(q Post) bool { return q.ID == ev.Post.ID })
	changed := false
	switch ev.Kind {
	case EventCreated:
		if idx < 0 {
			p.posts = slices.Insert(p.posts, 0, ev.Post)
			if len(p.posts) > PageSize {
				p.posts = p.posts[:PageSize]
			}
			changed = true
		}
	case EventDeleted:
		if idx >= 0 {
			p.posts = slices.Delete(p.posts, idx, idx+1)
			changed = true
		}
	}
	p.mu.Unlock()

	if changed && p.onChange != nil {
		p.onChange()
	}
}

// Create publishes a post as the panel's member.
func (p *Panel) Create(ctx context.Context, body string) (*Post, error) {
	return p.svc.Create(ctx, p.identity, body)
}

// Delete removes one of the member's posts.
func (p *Panel) Delete(ctx context.Context, id string) error {
	return p.svc.Delete(ctx, p.identity, id)
}

// Render returns the panel markup.
func (p *Panel) Render() g.Node {
	list := p.Posts()

	return h.Section(h.ID("community-panel"), h.Class("panel panel-community"),
		h.Header(
			h.H2(g.Text("Community")),
			h.P(h.Class("muted"), g.Text("Share what keeps you well. Be kind.")),
		),
		h.Form(h.Class("composer"), h.Data("event", "post_create"),
			h.Textarea(h.Name("body"), h.Placeholder("Write a post (Markdown supported)"), h.Required()),
			h.Button(h.Type("submit"), g.Text("Post")),
		),
		g.If(len(list) == 0, h.P(h.Class("empty"), g.Text("No posts yet. Start the conversation!"))),
		h.Ul(h.Class("posts"),
			g.Map(list, p.renderPost),
		),
	)
}

func (p *Panel) renderPost(post Post) g.Node {
	body, err := p.renderer.Render(post.Body)
	if err != nil {
		p.log.WithError(err).WithField("post_id", post.ID).Warn("rendering post failed")
		body = ""
	}
	return h.Li(h.Class("post"), h.ID("post-"+post.ID),
		h.Div(h.Class("post-meta"),
			h.Strong(g.Text(post.Author)),
			h.Span(h.Class("muted"), g.Text(post.CreatedAt.Format("2 Jan 2006 15:04"))),
		),
		h.Div(h.Class("post-body"), g.Raw(body)),
		g.If(post.UserID == p.identity.UserID,
			h.Button(h.Type("button"), h.Class("link"),
				h.Data("event", "post_delete"), h.Data("id", post.ID),
				g.Text("Delete"),
			),
		),
	)
}

// Unmount stops following the feed.
func (p *Panel) Unmount() {
	p.mu.Lock()
	p.closed = true
	p.posts = nil
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
