package bridge

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client is one connected inspector. Outbound frames go through a
// buffered channel drained by writePump so the recorder's notification
// path never blocks on the network.
type client struct {
	srv  *Server
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(s *Server, conn *websocket.Conn) *client {
	return &client{
		srv:  s,
		conn: conn,
		send: make(chan []byte, s.config.SendBuffer),
	}
}

// enqueue queues a frame for delivery. False means the client's buffer is
// full and the caller should drop the connection. Frames enqueued after
// close are silently discarded.
func (c *client) enqueue(msg []byte) bool {
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

func (c *client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.srv.removeClient(c)
	c.conn.Close()
}

// writePump drains the send channel onto the connection.
func (c *client) writePump() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(c.srv.config.WriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.close()
			return
		}
	}
}

// readLoop reads inspector commands until the connection dies.
func (c *client) readLoop() {
	defer c.close()

	for {
		c.conn.SetReadDeadline(time.Now().Add(c.srv.config.ReadTimeout))

		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.srv.logger.Error("bridge: read error", "error", err)
			}
			return
		}

		cmd, err := decodeCommand(msg)
		if err != nil {
			c.sendError(err)
			continue
		}
		c.handleCommand(cmd)
	}
}

func (c *client) handleCommand(cmd command) {
	switch cmd.Type {
	case cmdJump:
		if err := c.srv.rec.JumpTo(cmd.Seq); err != nil {
			c.sendError(err)
		}

	case cmdImport:
		if err := c.srv.rec.ImportState(cmd.State); err != nil {
			c.sendError(err)
		}

	case cmdExport:
		entries := c.srv.rec.History().Entries()
		frames := make([]entryFrame, len(entries))
		for i, e := range entries {
			frames[i] = entryFrame{Seq: e.Seq, Action: e.Action, State: e.State}
		}
		c.enqueue(encodeFrame(frame{Type: frameHistory, Entries: frames}))

	default:
		c.srv.logger.Warn("bridge: unknown command", "type", cmd.Type)
	}
}

func (c *client) sendError(err error) {
	c.enqueue(encodeFrame(frame{Type: frameError, Error: err.Error()}))
}
