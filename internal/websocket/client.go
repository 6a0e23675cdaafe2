package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/vrsandeep/mango-tracker/internal/browse"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var errHubClosed = errors.New("websocket hub is closed")

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// command is a message sent by the browser. Which fields are used depends
// on Type.
type command struct {
	Type    string   `json:"type"`
	Term    string   `json:"term"`
	Values  []string `json:"values"`
	Visible bool     `json:"visible"`
}

// Client is a middleman between one websocket connection and the browse
// session that serves it.
type Client struct {
	hub     *Hub
	conn    *gws.Conn
	session *browse.Session

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// ServeBrowse upgrades the request and runs a browse session over the
// connection. Every state change of the session is pushed as a "state"
// message.
func ServeBrowse(hub *Hub, w http.ResponseWriter, r *http.Request, fetcher browse.Fetcher, opts browse.Options) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	opts.OnChange = func(snap browse.Snapshot) {
		client.Send("state", snap)
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return nil, errHubClosed
	}
	client.session = browse.NewSession(fetcher, opts)

	client.Send("state", client.session.Snapshot())
	go client.writePump()
	go client.readPump()
	return client, nil
}

// Send queues a typed message for this client only. A client that cannot
// keep up is disconnected.
func (c *Client) Send(msgType string, data any) {
	payload, err := encode(msgType, data)
	if err != nil {
		log.Errorf("websocket: marshal %s: %v", msgType, err)
		return
	}
	if !c.enqueue(payload) {
		c.closeSend()
	}
}

// enqueue reports false when the send buffer is full. Sending to a closed
// client is a silent no-op.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// dispatch applies one client command to the session.
func (c *Client) dispatch(cmd command) {
	switch cmd.Type {
	case "search":
		c.session.SetSearchTerm(cmd.Term)
	case "genres":
		c.session.SetGenres(cmd.Values)
	case "sort":
		c.session.SetSortFacets(cmd.Values)
	case "sentinel":
		c.session.SetSentinelVisible(cmd.Visible)
	case "retry":
		c.session.Retry()
	default:
		c.Send("error", "unknown command: "+cmd.Type)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.session.Close()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if gws.IsUnexpectedCloseError(err, gws.CloseGoingAway, gws.CloseAbnormalClosure) {
				log.WithField("session", c.session.ID).Warnf("websocket read: %v", err)
			}
			return
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.Send("error", "malformed command")
			continue
		}
		c.dispatch(cmd)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(gws.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(gws.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(gws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
