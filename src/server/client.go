package server

import (
	"encoding/json"
	"sync"
	"time"

	datasource "crypto-advisor/src/data_source"
	"crypto-advisor/src/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait       = 2 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 4 * 1024
	sendBufferSize  = 8
	maxStreamAssets = 10
)

// -----------------------------------------------------------------------------
// Client is one websocket connection on the price stream.
// -----------------------------------------------------------------------------

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	send      chan models.MPriceStreamMessage
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	assets []string
}

// -----------------------------------------------------------------------------

func NewClient(hub *Hub, conn *websocket.Conn, userID string, assets []string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan models.MPriceStreamMessage, sendBufferSize),
		done:   make(chan struct{}),
		assets: append([]string(nil), assets...),
	}
}

// -----------------------------------------------------------------------------

func (c *Client) Assets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assets
}

func (c *Client) setAssets(assets []string) {
	c.mu.Lock()
	c.assets = assets
	c.mu.Unlock()
}

// trySend never blocks; it reports false when the buffer is full or the
// client is already closed.
func (c *Client) trySend(msg models.MPriceStreamMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// -----------------------------------------------------------------------------

// handleCommand applies one client message. Malformed input is ignored.
func (c *Client) handleCommand(raw []byte) {
	var cmd models.MStreamCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.hub.Logger.Debug("ignoring malformed stream command: %v", err)
		return
	}

	switch cmd.Command {
	case "subscribe":
		assets := datasource.NormalizeAssets(cmd.Assets)
		if len(assets) == 0 || len(assets) > maxStreamAssets {
			c.hub.Logger.Debug("ignoring subscribe with %d assets", len(assets))
			return
		}
		c.setAssets(assets)
		c.hub.RequestRefresh(c)
	case "refresh":
		c.hub.RequestRefresh(c)
	default:
		c.hub.Logger.Debug("unknown stream command %q", cmd.Command)
	}
}

// -----------------------------------------------------------------------------

// readPump watches the connection and applies client commands.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("websocket error: %v", err)
			}
			return
		}
		c.handleCommand(message)
	}
}

// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("write error: %v", err)
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
