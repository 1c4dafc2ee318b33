package server

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synacor/namesmith/page"
)

func TestSendAndClose(t *testing.T) {
	c := NewClient(newWsConn())
	c.Send("Test")
	a := <-c.send
	assert.Equal(t, "Test", a.(string))

	c.CloseChannel()
	assert.NotPanics(t, func() {
		c.Send(true)
		c.CloseChannel()
	})

	_, ok := <-c.send
	assert.False(t, ok)
}

func TestSendDropsWhenFull(t *testing.T) {
	c := NewClient(newWsConn())
	for i := 0; i < sendBuffer+5; i++ {
		c.Send(i)
	}
	assert.Equal(t, sendBuffer, len(c.send))
}

func TestRemoteAddr(t *testing.T) {
	conn := newWsConn()
	conn.addr = &addr{"1.2.3.4"}

	c := NewClient(conn)
	assert.Equal(t, "1.2.3.4", c.RemoteAddr())

	assert.Equal(t, "", NewClient(nil).RemoteAddr())
}

func TestWritePump(t *testing.T) {
	conn := newWsConn()
	c := NewClient(conn)

	go func() {
		c.Send("Test")
		c.CloseChannel()
	}()

	c.WritePump(nil)

	assert.Equal(t, 2, len(conn.writeDeadline))
	assert.True(t, conn.writeDeadline[1].After(conn.writeDeadline[0]) || conn.writeDeadline[1].Equal(conn.writeDeadline[0]))
	assert.True(t, conn.writeDeadline[1].After(time.Now()))
	assert.Equal(t, "Test", conn.writeJSON.(string))
	assert.Equal(t, 1, conn.closeInvoked)
}

func TestReadPump(t *testing.T) {
	s := newTestServer(t)
	g, err := s.catalog.Find("fantasy", "dwarf")
	require.NoError(t, err)

	conn := newWsConn()
	conn.reads = []WsRequest{
		{Action: WsRequestActionGenerate, Generator: "fantasy/dwarf", Variant: "female", Count: 3},
		{Action: WsRequestActionDescribeIndex, Generator: "fantasy/dwarf", Index: 0},
	}

	c := NewClient(conn)
	c.Page = page.New(g, c)
	c.Page.Load(testContext(), s.loader)
	<-c.send

	c.ReadPump(s)

	assert.Equal(t, 1, conn.closeInvoked)
	require.Equal(t, 2, len(c.send))
	<-c.send
	assert.NotNil(t, <-c.send)
}

type wsConn struct {
	addr             *addr
	closeInvoked     int
	reads            []WsRequest
	writeDeadline    []time.Time
	writeMessageType int
	writeMessageData []byte
	writeJSON        interface{}
}

func newWsConn() *wsConn {
	return &wsConn{
		addr:          &addr{"127.0.0.1:5000"},
		writeDeadline: make([]time.Time, 0),
	}
}

type addr struct{ ip string }

func (a *addr) Network() string {
	return ""
}

func (a *addr) String() string {
	return a.ip
}

func (c *wsConn) Close() error { c.closeInvoked++; return nil }
func (c *wsConn) ReadJSON(v interface{}) error {
	if len(c.reads) == 0 {
		return errors.New("EOF")
	}
	*v.(*WsRequest) = c.reads[0]
	c.reads = c.reads[1:]
	return nil
}
func (c *wsConn) RemoteAddr() net.Addr                      { return c.addr }
func (c *wsConn) SetPongHandler(func(appDate string) error) {}
func (c *wsConn) SetReadDeadline(t time.Time) error         { return nil }
func (c *wsConn) SetReadLimit(limit int64)                  {}
func (c *wsConn) SetWriteDeadline(t time.Time) error {
	c.writeDeadline = append(c.writeDeadline, t)
	return nil
}
func (c *wsConn) WriteJSON(v interface{}) error { c.writeJSON = v; return nil }
func (c *wsConn) WriteMessage(messageType int, data []byte) error {
	c.writeMessageType = messageType
	c.writeMessageData = data
	return nil
}
