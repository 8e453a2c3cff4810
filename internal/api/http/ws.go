package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSendBuffer = 64
)

// ClientMessage is what the quiz page sends over the socket.
type ClientMessage struct {
	Type     string `json:"type"`
	Question int    `json:"question,omitempty"`
	Option   int    `json:"option,omitempty"`
}

// ServerMessage is a session event or a reply to a client message.
type ServerMessage struct {
	Type     string          `json:"type"`
	TimeLeft int             `json:"timeLeft,omitempty"`
	Result   *session.Result `json:"result,omitempty"`
	Session  *session.View   `json:"session,omitempty"`
	Message  string          `json:"message,omitempty"`
}

func newUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || allowed["*"] || allowed[o]
		},
	}
}

// GET /sessions/{sessionID}/ws
//
// The socket carries timer ticks and the result to the page, and the
// page's actions back. A close other than a normal closure is the page
// going away and submits as a page unload.
func SessionSocketHandler(mgr *session.Manager, origins []string, log *logger.Logger) http.HandlerFunc {
	upgrader := newUpgrader(origins)
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := ownSession(mgr, r)
		if err != nil {
			writeErr(w, err)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "session_id", s.ID(), "error", err)
			return
		}
		c := &socket{conn: conn, s: s, log: log.With("session_id", s.ID()), send: make(chan ServerMessage, wsSendBuffer), done: make(chan struct{})}
		unsubscribe := s.Subscribe(c.forward)
		go c.writeLoop()
		c.readLoop(r.Context())
		unsubscribe()
		close(c.done)
	}
}

type socket struct {
	conn *websocket.Conn
	s    *session.Session
	log  *logger.Logger
	send chan ServerMessage
	done chan struct{}
}

// forward runs on the emitting goroutine and must not block; a client that
// falls behind loses ticks.
func (c *socket) forward(ev session.Event) {
	msg := ServerMessage{Type: string(ev.Type), TimeLeft: ev.TimeLeft, Result: ev.Result}
	select {
	case c.send <- msg:
	default:
		c.log.Debug("websocket send buffer full; dropping event", "type", msg.Type)
	}
}

func (c *socket) reply(msg ServerMessage) {
	select {
	case c.send <- msg:
	case <-c.done:
	}
}

func (c *socket) writeLoop() {
	ping := time.NewTicker(wsPingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func (c *socket) readLoop(ctx context.Context) {
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.log.Debug("websocket closed by client")
				return
			}
			c.log.Info("websocket lost; treating as page unload", "error", err)
			c.s.PageUnloading(ctx)
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(ServerMessage{Type: "error", Message: "invalid message"})
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *socket) handle(ctx context.Context, msg ClientMessage) {
	var err error
	switch msg.Type {
	case "answer":
		err = c.s.SelectAnswer(msg.Question, msg.Option)
	case "clear":
		err = c.s.ClearAnswer(msg.Question)
	case "next":
		_, err = c.s.Next()
	case "previous":
		_, err = c.s.Previous()
	case "goto":
		_, err = c.s.GoTo(msg.Question)
	case "pause":
		c.s.Pause()
	case "resume":
		c.s.Resume()
	case "toggle":
		c.s.Toggle()
	case "fullscreen_enter":
		c.s.FullscreenEntered()
	case "programmatic_exit":
		c.s.SuppressFullscreenExit()
	case "fullscreen_exit":
		// the result, if any, arrives as a "result" event
		c.s.FullscreenExited(ctx)
		return
	case "route_change":
		c.s.RouteChanged(ctx)
		return
	case "submit":
		c.s.SubmitByUser(ctx)
		return
	default:
		c.reply(ServerMessage{Type: "error", Message: "unknown message type"})
		return
	}
	if err != nil {
		c.reply(ServerMessage{Type: "error", Message: err.Error()})
		return
	}
	v := c.s.Snapshot()
	c.reply(ServerMessage{Type: "state", Session: &v})
}
