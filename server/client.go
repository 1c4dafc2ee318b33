package server

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/synacor/namesmith/page"
)

const (
	readLimit = 2048 // 2KiB

	// Write timeout
	writeWait = 10 * time.Second

	// Ensure a pong is received every 30 seconds
	pongWait = 30 * time.Second

	// Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 64
)

// WsConn is an interface which implements a subset of the available methods in *websocket.Conn
type WsConn interface {
	Close() error
	ReadJSON(v interface{}) error
	RemoteAddr() net.Addr
	SetPongHandler(func(appDate string) error)
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
}

// Client is the browser side of a page visit, connected via websocket
type Client struct {
	Page   *page.Page
	send   chan interface{}
	Conn   WsConn
	closed bool
	mu     sync.Mutex
}

// NewClient instantiates a new client object.
func NewClient(conn WsConn) *Client {
	return &Client{
		send: make(chan interface{}, sendBuffer),
		Conn: conn,
	}
}

// Send will send an object to the client. Messages are dropped when the
// client stops reading or the channel is closed.
func (c *Client) Send(o interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- o:
	default:
		log.WithFields(log.Fields{"client": c.RemoteAddr()}).Warn("send buffer full, dropping message")
	}
}

// CloseChannel will close the send channel
func (c *Client) CloseChannel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// RemoteAddr returns the remote address (IP + port) of the client
func (c *Client) RemoteAddr() string {
	if c.Conn == nil || c.Conn.RemoteAddr() == nil {
		return ""
	}
	return c.Conn.RemoteAddr().String()
}

// WritePump writes messages to the client.
// This method should be called in a separate goroutine.
func (c *Client) WritePump(s *Server) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(msg); err != nil {
				log.WithFields(log.Fields{"client": c.RemoteAddr()}).Errorf("could not write JSON: %v", err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// ReadPump reads messages sent from the client.
func (c *Client) ReadPump(s *Server) {
	defer func() {
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var r WsRequest
		if err := c.Conn.ReadJSON(&r); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithFields(log.Fields{"client": c.RemoteAddr()}).Errorf("could not read JSON: %v", err)
			}
			break
		}

		s.HandleWsRequest(c, &r)
	}
}
