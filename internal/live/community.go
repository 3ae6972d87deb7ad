package live

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/delarsify/sanjeevani/internal/chat"
	"github.com/delarsify/sanjeevani/internal/notifications"
	"github.com/delarsify/sanjeevani/internal/posts"
	"github.com/delarsify/sanjeevani/internal/session"
	"github.com/delarsify/sanjeevani/internal/tabs"
)

// renderable is a panel that can draw itself.
type renderable interface {
	Render() g.Node
}

// communityView is one mounted community page. It lives exactly as long as
// its websocket connection.
type communityView struct {
	cfg  *Config
	conn *conn
	log  *logrus.Entry
	ctx  context.Context
	// key scopes the gate's toasts to this view's hub sink.
	key string

	cancel     context.CancelFunc
	gate       *session.Gate
	unregister func()

	mu         sync.Mutex
	area       *tabs.Area
	redirected bool

	// renderMu keeps render frames in the order their HTML was built.
	renderMu sync.Mutex
}

func (l *Live) handleCommunity(w http.ResponseWriter, r *http.Request) {
	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.log.WithError(err).Warn("community: websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	log := l.log.WithField("view", "community")
	v := &communityView{
		cfg:    &l.cfg,
		conn:   newConn(ws, log),
		log:    log,
		ctx:    ctx,
		key:    uuid.NewString(),
		cancel: cancel,
	}
	v.gate = session.New(l.cfg.Clients.Client(r), v, l.cfg.Notifier,
		session.WithSignInRoute(l.cfg.SignInRoute),
		session.WithLogger(log),
		session.WithListener(v.sessionChanged),
		session.WithToastKey(v.key),
	)
	defer v.teardown()

	v.run()
}

func (v *communityView) run() {
	if err := v.gate.Mount(v.ctx); err != nil {
		v.log.WithError(err).Debug("mounting session gate failed")
	}
	identity, ok := v.gate.Session()
	if !ok {
		return
	}
	v.unregister = v.cfg.Hub.RegisterKey(identity.UserID, v.key, notifications.SinkFunc(v.deliver))

	area, err := tabs.NewArea(identity, v.mounts())
	if err != nil {
		v.log.WithError(err).Error("mounting tab area failed")
		v.conn.send(errorFrame("Could not load the community page. Please reload."))
		return
	}
	v.mu.Lock()
	v.area = area
	v.mu.Unlock()
	// Catch a change that landed while the area was being built.
	if current, ok := v.gate.Session(); ok {
		v.refreshIdentity(area, current)
	}
	v.render()

	events := v.conn.events(v.ctx)
	for {
		select {
		case <-v.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			v.handle(ev)
		}
	}
}

func (v *communityView) mounts() tabs.Mounts {
	return tabs.Mounts{
		Chat: func(identity session.Session) (tabs.Panel, error) {
			p, err := chat.NewPanel(v.ctx, identity, v.cfg.Chat, v.cfg.Assistant)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Community: func(identity session.Session) (tabs.Panel, error) {
			p, err := posts.NewPanel(v.ctx, identity, v.cfg.Posts, v.cfg.Renderer, v.render)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	}
}

// Redirect sends the browser elsewhere and ends the view. The connection
// stays writable until teardown so a trailing toast still arrives.
func (v *communityView) Redirect(route string) {
	v.mu.Lock()
	if v.redirected {
		v.mu.Unlock()
		return
	}
	v.redirected = true
	v.mu.Unlock()

	v.conn.send(frame{Type: "redirect", To: route})
	v.cancel()
}

func (v *communityView) deliver(t notifications.Toast) error {
	return v.conn.send(frame{
		Type:     "toast",
		Severity: t.Severity,
		Title:    t.Title,
		Message:  t.Message,
	})
}

func (v *communityView) sessionChanged(st session.State, sess *session.Session) {
	if st != session.StateAuthenticated || sess == nil {
		return
	}
	if area := v.currentArea(); area != nil {
		v.refreshIdentity(area, *sess)
	}
	v.render()
}

// refreshIdentity hands the gate's latest identity to the tab area, which
// remounts the active panel when the member's details changed.
func (v *communityView) refreshIdentity(area *tabs.Area, identity session.Session) {
	if _, err := area.SetIdentity(identity); err != nil {
		v.log.WithError(err).WithField("user_id", identity.UserID).Warn("remounting panel with updated identity failed")
	}
}

func (v *communityView) currentArea() *tabs.Area {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.area
}

// render sends the tab bar and the active panel. Nothing is sent unless the
// gate holds a session.
func (v *communityView) render() {
	v.renderMu.Lock()
	defer v.renderMu.Unlock()

	if !v.gate.Authenticated() {
		return
	}
	area := v.currentArea()
	if area == nil {
		return
	}
	panel, ok := area.Panel().(renderable)
	if !ok {
		return
	}

	var b strings.Builder
	node := h.Section(h.ID("tab-area"), h.Class("tab-area"),
		tabBar(area.Active()),
		panel.Render(),
	)
	if err := node.Render(&b); err != nil {
		v.log.WithError(err).Error("rendering tab area failed")
		return
	}
	v.conn.send(frame{Type: "render", Target: "tab-area", HTML: b.String()})
}

func tabBar(active tabs.Tab) g.Node {
	return h.Nav(h.Class("tab-bar"), h.Role("tablist"),
		g.Map(tabs.All(), func(t tabs.Tab) g.Node {
			selected := "false"
			if t == active {
				selected = "true"
			}
			return h.Button(h.Type("button"), h.Role("tab"),
				g.Attr("aria-selected", selected),
				h.Data("event", "select_tab"), h.Data("tab", t.String()),
				g.Text(t.Label()),
			)
		}),
	)
}

func (v *communityView) handle(ev event) {
	area := v.currentArea()
	if area == nil {
		return
	}
	log := v.log.WithFields(logrus.Fields{
		"event":   ev.Type,
		"user_id": area.Identity().UserID,
	})

	switch ev.Type {
	case "select_tab":
		t, err := tabs.ParseTab(ev.Tab)
		if err != nil {
			v.fail(err.Error())
			return
		}
		changed, err := area.Select(t)
		if err != nil {
			log.WithError(err).Warn("switching tab failed")
			v.fail("Could not open that tab.")
			return
		}
		if changed {
			v.render()
		}

	case "chat_send":
		p, ok := area.Panel().(*chat.Panel)
		if !ok {
			v.fail("Open the chat tab to send a message.")
			return
		}
		ctx, cancel := context.WithTimeout(v.ctx, v.cfg.EventTimeout)
		defer cancel()

		_, err := p.Send(ctx, ev.Text)
		switch {
		case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
			v.fail(err.Error())
			return
		case errors.Is(err, chat.ErrAssistantUnavailable):
			v.fail("The assistant is offline right now. Your message was saved.")
		case err != nil:
			log.WithError(err).Warn("chat send failed")
			v.fail("The assistant could not answer. Please try again.")
		}
		v.render()

	case "post_create":
		p, ok := area.Panel().(*posts.Panel)
		if !ok {
			v.fail("Open the community tab to post.")
			return
		}
		ctx, cancel := context.WithTimeout(v.ctx, v.cfg.EventTimeout)
		defer cancel()

		if _, err := p.Create(ctx, ev.Body); err != nil {
			if !errors.Is(err, posts.ErrEmptyPost) && !errors.Is(err, posts.ErrPostTooLong) {
				log.WithError(err).Warn("creating post failed")
			}
			v.fail(err.Error())
		}

	case "post_delete":
		p, ok := area.Panel().(*posts.Panel)
		if !ok {
			v.fail("Open the community tab to delete a post.")
			return
		}
		ctx, cancel := context.WithTimeout(v.ctx, v.cfg.EventTimeout)
		defer cancel()

		if err := p.Delete(ctx, ev.ID); err != nil {
			if !errors.Is(err, posts.ErrNotFound) && !errors.Is(err, posts.ErrNotOwner) {
				log.WithError(err).Warn("deleting post failed")
			}
			v.fail(err.Error())
		}

	case "sign_out":
		// The SIGNED_OUT notification cancels the view context before the
		// gate raises its toast.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(v.ctx), v.cfg.EventTimeout)
		defer cancel()

		if err := v.gate.SignOut(ctx); err != nil {
			log.WithError(err).Warn("sign-out failed")
		}

	default:
		v.fail("unknown event: " + ev.Type)
	}
}

func (v *communityView) fail(msg string) {
	v.conn.send(errorFrame(msg))
}

// teardown runs on every exit path: the area is unmounted before the gate
// releases its subscription.
func (v *communityView) teardown() {
	v.cancel()
	if area := v.currentArea(); area != nil {
		area.Close()
	}
	v.gate.Close()
	if v.unregister != nil {
		v.unregister()
	}
	v.conn.close()
	v.log.Debug("community view torn down")
}
