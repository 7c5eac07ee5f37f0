package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/VaibhavRohilla/plinko/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the CORS middleware layer
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Physics runs at the reference tick; spectators only need render
	// cadence, so every frameDivisor-th snapshot is broadcast.
	frameDivisor = 3
)

// Client is one connected board spectator.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of connected spectators of the single board.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	frameCount int
}

// BoardHub is the single hub for the board stream.
var BoardHub *Hub

func init() {
	BoardHub = NewHub()
	go BoardHub.run()
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] spectator connected (%d total)", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] spectator disconnected (%d total)", n)
		}
	}
}

// Broadcast sends a message to every connected spectator. Slow clients are
// skipped rather than blocking the simulation callback.
func (h *Hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	h.broadcastRaw(data)
}

func (h *Hub) broadcastRaw(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// buffer full, drop the message for this client
		}
	}
}

// AttachEngine registers the frame callback that streams snapshots to
// spectators. Called once at startup.
func AttachEngine(e *game.Engine) {
	e.OnFrame(func(snap game.FrameSnapshot) {
		BoardHub.frameCount++
		if BoardHub.frameCount%frameDivisor != 0 {
			return
		}
		BoardHub.Broadcast(map[string]interface{}{
			"type":  "frame",
			"board": snap.Config,
			"balls": snap.Balls,
			"glow":  snap.Glow,
			"press": snap.Press,
		})
	})
}

// HandleWebSocket upgrades a spectator connection and streams board frames
// and resolve events until the peer goes away.
func HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{conn: conn, send: make(chan []byte, 256)}
	BoardHub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection. Spectators send nothing meaningful; the
// read loop exists to process pongs and detect disconnects.
func (c *Client) readPump() {
	defer func() {
		BoardHub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
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
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
