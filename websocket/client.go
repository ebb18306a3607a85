package websocket

import (
	"net/http"
	"time"

	"a4blend/types"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

// WebSocket upgrader with CORS support
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are already filtered by the CORS middleware
		return true
	},
}

// MessageHandler receives every frame a client sends
type MessageHandler func(client *Client, msg types.Message)

// Client represents a WebSocket client connection
type Client struct {
	id      string
	hub     Hub
	conn    *websocket.Conn
	send    chan types.Message
	topic   string
	logger  *zap.Logger
	handler MessageHandler
}

// NewClient creates a new WebSocket client. handler may be nil for
// broadcast-only topics.
func NewClient(hub Hub, conn *websocket.Conn, topic string, logger *zap.Logger, handler MessageHandler) *Client {
	return &Client{
		id:      uuid.New().String(),
		hub:     hub,
		conn:    conn,
		send:    make(chan types.Message, 256),
		topic:   topic,
		logger:  logger,
		handler: handler,
	}
}

// ID returns the client's unique id
func (c *Client) ID() string {
	return c.id
}

// Send queues a message for this client only. It must only be called from
// hub callbacks, which run on the hub goroutine.
func (c *Client) Send(msg types.Message) {
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("WebSocket client send buffer full", zap.String("client", c.id))
	}
}

// StartPumps starts the read and write pumps for the client
func (c *Client) StartPumps() {
	go c.writePump()
	go c.readPump()
}

// readPump handles reading from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg types.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket error", zap.String("client", c.id), zap.Error(err))
			}
			break
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if c.handler != nil {
			c.handler(c, msg)
		}
	}
}

// writePump handles writing to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Warn("WebSocket write error", zap.String("client", c.id), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Upgrade upgrades an HTTP request to a WebSocket connection
func Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return upgrader.Upgrade(w, r, nil)
}
