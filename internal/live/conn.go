package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/delarsify/sanjeevani/internal/pages"
	"github.com/delarsify/sanjeevani/internal/session"
	"github.com/delarsify/sanjeevani/internal/widgets"
)

const writeTimeout = 10 * time.Second

var errConnClosed = errors.New("live connection closed")

// event is a message sent by the browser.
type event struct {
	Type string `json:"type"`
	Tab  string `json:"tab,omitempty"`
	Text string `json:"text,omitempty"`
	Body string `json:"body,omitempty"`
	ID   string `json:"id,omitempty"`
	Card string `json:"card,omitempty"`
}

// frame is a message sent to the browser.
type frame struct {
	Type     string             `json:"type"`
	To       string             `json:"to,omitempty"`
	Target   string             `json:"target,omitempty"`
	HTML     string             `json:"html,omitempty"`
	Severity session.Severity   `json:"severity,omitempty"`
	Title    string             `json:"title,omitempty"`
	Message  string             `json:"message,omitempty"`
	Card     widgets.CardID     `json:"card,omitempty"`
	Mascot   *pages.MascotState `json:"mascot,omitempty"`
}

func errorFrame(msg string) frame {
	return frame{Type: "error", Message: msg}
}

// conn serializes writes to one websocket.
type conn struct {
	ws  *websocket.Conn
	log *logrus.Entry

	mu     sync.Mutex
	closed bool
}

func newConn(ws *websocket.Conn, log *logrus.Entry) *conn {
	return &conn{ws: ws, log: log}
}

func (c *conn) send(f frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(f); err != nil {
		c.log.WithError(err).WithField("frame", f.Type).Debug("websocket write failed")
		return err
	}
	return nil
}

func (c *conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.ws.Close()
}

// read returns the next event. Malformed messages are answered with an error
// frame and skipped.
func (c *conn) read() (event, error) {
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Debug("websocket read failed")
			}
			return event{}, err
		}
		var ev event
		if err := json.Unmarshal(msg, &ev); err != nil {
			c.send(errorFrame("invalid message format"))
			continue
		}
		return ev, nil
	}
}

// events reads in the background until the connection fails or ctx ends.
func (c *conn) events(ctx context.Context) <-chan event {
	ch := make(chan event)
	go func() {
		defer close(ch)
		for {
			ev, err := c.read()
			if err != nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
