package services

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

type WSMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	ClientID  string      `json:"client_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type wsClient struct {
	conn     *websocket.Conn
	clientID string
	send     chan WSMessage
}

// Hub fans recorded detections out to connected dashboard clients. A slow
// client loses messages instead of blocking the recorder.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient

	upgrader websocket.Upgrader
	logger   *zap.Logger
	metrics  *Metrics
}

func NewHub(logger *zap.Logger, metrics *Metrics) *Hub {
	return &Hub{
		clients: make(map[string]*wsClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Serve upgrades the request and runs the client's pumps until it
// disconnects. Authentication happens before this is called.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, clientID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	if clientID == "" {
		clientID = "client-" + time.Now().Format("20060102150405.000000000")
	}

	client := &wsClient{
		conn:     conn,
		clientID: clientID,
		send:     make(chan WSMessage, sendBuffer),
	}

	h.mu.Lock()
	if old, ok := h.clients[clientID]; ok {
		close(old.send)
	}
	h.clients[clientID] = client
	h.mu.Unlock()
	h.metrics.IncrementWebSocketConnections()
	h.logger.Info("websocket client connected", zap.String("client_id", clientID))

	go h.writePump(client)

	client.send <- WSMessage{
		Type:      "WELCOME",
		ClientID:  clientID,
		Timestamp: time.Now().Unix(),
		Payload:   map[string]interface{}{"message": "Connected to detection feed"},
	}

	h.readPump(client)
}

// BroadcastDetection pushes one recorded detection to every client.
// Never blocks: full send buffers drop the message.
func (h *Hub) BroadcastDetection(payload interface{}) {
	msg := WSMessage{
		Type:      "DETECTION",
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.send <- msg:
			h.metrics.IncrementWebSocketMessages()
		default:
			h.metrics.IncrementWebSocketErrors()
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client. Called on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for clientID, client := range h.clients {
		close(client.send)
		client.conn.Close()
		h.logger.Info("closed websocket connection", zap.String("client_id", clientID))
	}
	h.clients = make(map[string]*wsClient)
}

func (h *Hub) remove(client *wsClient) {
	h.mu.Lock()
	if current, ok := h.clients[client.clientID]; ok && current == client {
		delete(h.clients, client.clientID)
		close(client.send)
	}
	h.mu.Unlock()
	h.metrics.DecrementWebSocketConnections()
}

func (h *Hub) readPump(client *wsClient) {
	defer func() {
		h.remove(client)
		client.conn.Close()
		h.logger.Info("websocket client disconnected", zap.String("client_id", client.clientID))
	}()

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg WSMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error",
					zap.String("client_id", client.clientID), zap.Error(err))
				h.metrics.IncrementWebSocketErrors()
			}
			return
		}

		switch msg.Type {
		case "PING":
			select {
			case client.send <- WSMessage{
				Type:      "PONG",
				ClientID:  client.clientID,
				Timestamp: time.Now().Unix(),
			}:
			default:
			}
		default:
			h.logger.Debug("unknown websocket message type",
				zap.String("type", msg.Type), zap.String("client_id", client.clientID))
		}
	}
}

func (h *Hub) writePump(client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
