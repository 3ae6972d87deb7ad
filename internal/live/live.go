// Package live serves the websocket-driven views: the community view, which
// puts the chat and posts panels behind a session gate, and the marketing
// widgets.
package live

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/delarsify/sanjeevani/internal/chat"
	"github.com/delarsify/sanjeevani/internal/notifications"
	"github.com/delarsify/sanjeevani/internal/pages"
	"github.com/delarsify/sanjeevani/internal/posts"
	"github.com/delarsify/sanjeevani/internal/session"
	"github.com/delarsify/sanjeevani/internal/widgets"
)

// DefaultEventTimeout bounds the handling of a single browser event.
const DefaultEventTimeout = 90 * time.Second

// ClientSource hands out auth clients bound to the credentials of a request.
type ClientSource interface {
	Client(r *http.Request) session.AuthClient
}

// Config holds the collaborators of the live views.
type Config struct {
	Clients   ClientSource
	Hub       *notifications.Hub
	Notifier  session.Notifier
	Chat      *chat.Store
	Assistant *chat.Assistant
	Posts     *posts.Service
	Renderer  *posts.Renderer

	MascotMessages  []string
	SignInRoute     string
	AllowAllOrigins bool
	EventTimeout    time.Duration
}

// Live serves the community page and both websocket views.
type Live struct {
	cfg      Config
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// New creates a Live.
func New(cfg Config) (*Live, error) {
	if cfg.Clients == nil || cfg.Hub == nil || cfg.Chat == nil || cfg.Posts == nil {
		return nil, errors.New("live: missing collaborator")
	}
	if _, err := widgets.NewBubble(cfg.MascotMessages); err != nil {
		return nil, err
	}
	if cfg.SignInRoute == "" {
		cfg.SignInRoute = session.DefaultSignInRoute
	}
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = DefaultEventTimeout
	}
	if cfg.Assistant == nil {
		cfg.Assistant = chat.NewAssistant(nil, "")
	}
	if cfg.Renderer == nil {
		cfg.Renderer = posts.NewRenderer()
	}

	l := &Live{cfg: cfg, log: logrus.WithField("component", "live")}
	if cfg.AllowAllOrigins {
		l.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return l, nil
}

// RegisterRoutes mounts the live routes onto the given router.
func (l *Live) RegisterRoutes(r chi.Router) {
	r.Get("/community", l.handleCommunityPage)
	r.Get(pages.CommunityLive, l.handleCommunity)
	r.Get(pages.WidgetsLive, l.handleWidgets)
}

// redirectRecorder is the Navigator of a gate that lives for one HTTP request.
type redirectRecorder struct {
	route string
}

func (n *redirectRecorder) Redirect(route string) {
	if n.route == "" {
		n.route = route
	}
}

// handleCommunityPage resolves the session once before serving the shell, so
// signed-out visitors never see it.
func (l *Live) handleCommunityPage(w http.ResponseWriter, r *http.Request) {
	nav := &redirectRecorder{}
	gate := session.New(l.cfg.Clients.Client(r), nav, nil,
		session.WithSignInRoute(l.cfg.SignInRoute),
		session.WithLogger(l.log),
	)
	defer gate.Close()

	if err := gate.Mount(r.Context()); err != nil {
		l.log.WithError(err).Debug("community page: resolving session failed")
	}
	if !gate.Authenticated() {
		route := nav.route
		if route == "" {
			route = l.cfg.SignInRoute
		}
		http.Redirect(w, r, route, http.StatusSeeOther)
		return
	}
	pages.RenderCommunity(w)
}

func (l *Live) handleWidgets(w http.ResponseWriter, r *http.Request) {
	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.log.WithError(err).Warn("widgets: websocket upgrade failed")
		return
	}
	c := newConn(ws, l.log.WithField("view", "widgets"))
	defer c.close()

	cards := widgets.NewHoverCard(pages.CardIDs()...)
	bubble, err := widgets.NewBubble(l.cfg.MascotMessages)
	if err != nil {
		c.send(errorFrame(err.Error()))
		return
	}

	for {
		ev, err := c.read()
		if err != nil {
			return
		}

		switch ev.Type {
		case "hover_enter":
			if err := cards.Enter(widgets.CardID(ev.Card)); err != nil {
				c.send(errorFrame(err.Error()))
				continue
			}
		case "hover_leave":
			cards.Leave()
		case "bubble_toggle":
			bubble.Toggle()
		default:
			c.send(errorFrame("unknown event: " + ev.Type))
			continue
		}

		active, _ := cards.Active()
		mascot := pages.MascotStateOf(bubble)
		if c.send(frame{Type: "state", Card: active, Mascot: &mascot}) != nil {
			return
		}
	}
}
