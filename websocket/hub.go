package websocket

import (
	"encoding/json"
	"time"

	"a4blend/metrics"
	"a4blend/types"

	"go.uber.org/zap"
)

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	Broadcast(topic, msgType string, payload any)
	BroadcastProgress(msg types.ProgressMessage)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	// OnConnect is called from the hub loop for every newly registered client.
	OnConnect(topic string, fn func(client *Client))
}

// hub maintains the set of active clients and broadcasts messages to them
type hub struct {
	logger *zap.Logger

	// Registered clients mapped by topic
	clients map[string]map[*Client]bool

	broadcast  chan types.Message
	register   chan *Client
	unregister chan *Client

	onConnect map[string][]func(*Client)
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) Hub {
	return &hub{
		logger:     logger,
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		onConnect:  make(map[string][]func(*Client)),
	}
}

// OnConnect must be called before Run
func (h *hub) OnConnect(topic string, fn func(client *Client)) {
	h.onConnect[topic] = append(h.onConnect[topic], fn)
}

// Run starts the hub's main event loop. Only this goroutine touches clients.
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.topic] == nil {
				h.clients[client.topic] = make(map[*Client]bool)
			}
			h.clients[client.topic][client] = true
			metrics.WebSocketClients.WithLabelValues(client.topic).Set(float64(len(h.clients[client.topic])))
			h.logger.Info("WebSocket client connected", zap.String("topic", client.topic), zap.String("client", client.id))
			for _, fn := range h.onConnect[client.topic] {
				fn(client)
			}

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			for client := range h.clients[message.Topic] {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("WebSocket client too slow, dropping", zap.String("client", client.id))
					h.remove(client)
				}
			}
		}
	}
}

func (h *hub) remove(client *Client) {
	clients, ok := h.clients[client.topic]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.topic)
	}
	metrics.WebSocketClients.WithLabelValues(client.topic).Set(float64(len(clients)))
	h.logger.Info("WebSocket client disconnected", zap.String("topic", client.topic), zap.String("client", client.id))
}

// Broadcast sends payload to every client subscribed to topic
func (h *hub) Broadcast(topic, msgType string, payload any) {
	msg, err := NewMessage(topic, msgType, payload)
	if err != nil {
		h.logger.Error("WebSocket payload encoding failed", zap.String("type", msgType), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("WebSocket broadcast channel full, dropping message",
			zap.String("topic", topic), zap.String("type", msgType))
	}
}

// BroadcastProgress sends a build job progress message to job subscribers
func (h *hub) BroadcastProgress(msg types.ProgressMessage) {
	h.Broadcast(types.TopicJobs, msg.Type, msg)
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// NewMessage wraps payload in a timestamped envelope
func NewMessage(topic, msgType string, payload any) (types.Message, error) {
	msg := types.Message{
		Topic:     topic,
		Type:      msgType,
		Timestamp: time.Now(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return types.Message{}, err
		}
		msg.Payload = raw
	}
	return msg, nil
}
