package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/delarsify/sanjeevani/internal/llm"
	"github.com/delarsify/sanjeevani/internal/session"
)

// ErrMessageTooLong is returned for messages above MaxMessageLength.
var ErrMessageTooLong = errors.New("message is too long")

// Panel is the chat tab for one signed-in member. It is bound to the
// member's latest conversation; a new one is created on the first send.
type Panel struct {
	identity  session.Session
	store     *Store
	assistant *Assistant
	log       *logrus.Entry

	mu       sync.Mutex
	conv     *Conversation
	messages []Message
	closed   bool
}

// NewPanel mounts the chat panel for identity and loads its latest
// conversation.
func NewPanel(ctx context.Context, identity session.Session, store *Store, assistant *Assistant) (*Panel, error) {
	p := &Panel{
		identity:  identity,
		store:     store,
		assistant: assistant,
		log:       logrus.WithFields(logrus.Fields{"component": "chat", "user_id": identity.UserID}),
	}

	conv, err := store.LatestConversation(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		msgs, err := store.Messages(ctx, conv.ID, 0)
		if err != nil {
			return nil, err
		}
		p.conv = conv
		p.messages = msgs
	}
	return p, nil
}

// Identity returns the identity the panel was mounted with.
func (p *Panel) Identity() session.Session {
	return p.identity
}

// Messages returns a copy of the conversation so far.
func (p *Panel) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.messages)
}

// Send stores text as the member's message and returns the assistant's
// reply. The member's message is kept even when the reply fails.
func (p *Panel) Send(ctx context.Context, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if len(text) > MaxMessageLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLong, len(text))
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPanelClosed
	}
	conv := p.conv
	p.mu.Unlock()

	if conv == nil {
		var err error
		if conv, err = p.store.CreateConversation(ctx, p.identity.UserID); err != nil {
			return nil, err
		}
	}

	userMsg, err := p.store.AddMessage(ctx, conv.ID, llm.RoleUser, text)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.conv = conv
	p.messages = append(p.messages, *userMsg)
	history := slices.Clone(p.messages)
	p.mu.Unlock()

	reply, err := p.assistant.Reply(ctx, p.identity.UserID, history)
	if err != nil {
		if !errors.Is(err, ErrAssistantUnavailable) {
			p.log.WithError(err).Warn("assistant reply failed")
		}
		return nil, err
	}

	replyMsg, err := p.store.AddMessage(ctx, conv.ID, llm.RoleAssistant, reply)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if !p.closed {
		p.messages = append(p.messages, *replyMsg)
	}
	p.mu.Unlock()
	return replyMsg, nil
}

// Render returns the panel markup.
func (p *Panel) Render() g.Node {
	msgs := p.Messages()

	return h.Section(h.ID("chat-panel"), h.Class("panel panel-chat"),
		h.Header(
			h.H2(g.Text("Chat with SANJEEVANI")),
			h.P(h.Class("muted"), g.Textf("Signed in as %s", p.identity.Name())),
		),
		g.If(!p.assistant.Available(),
			h.P(h.Class("notice"), g.Text("The assistant is offline right now. Your messages are saved.")),
		),
		g.If(len(msgs) == 0,
			h.P(h.Class("empty"), g.Text("Ask anything about staying well. The assistant is not a doctor.")),
		),
		h.Ol(h.Class("messages"),
			g.Map(msgs, renderMessage),
		),
		h.Form(h.Class("composer"), h.Data("event", "chat_send"),
			h.Textarea(h.Name("text"), h.Placeholder("Type your message"), h.Required(),
				g.Attr("maxlength", strconv.Itoa(MaxMessageLength))),
			h.Button(h.Type("submit"), g.Text("Send")),
		),
	)
}

func renderMessage(m Message) g.Node {
	return h.Li(h.Class("message message-"+string(m.Role)), h.Data("seq", strconv.Itoa(m.Seq)),
		h.Span(h.Class("author"), g.Text(roleLabel(m.Role))),
		h.P(g.Text(m.Content)),
	)
}

func roleLabel(r llm.Role) string {
	if r == llm.RoleAssistant {
		return "SANJEEVANI"
	}
	return "You"
}

// Unmount drops the panel's in-memory conversation.
func (p *Panel) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.messages = nil
	p.conv = nil
}
