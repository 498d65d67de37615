package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"promptvault/broker"
)

type WebSocketServiceInterface interface {
	Start()
	Stop()
	HandleConnection(w http.ResponseWriter, r *http.Request)
}

// ServerMessage is the envelope pushed to connected UI clients.
type ServerMessage struct {
	Type    string      `json:"type"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WebSocketService fans bus events out to every connected UI client so the
// editing surface can react to mutations it did not initiate.
type WebSocketService struct {
	bus        *broker.Bus
	upgrader   websocket.Upgrader
	register   chan *wsClient
	unregister chan *wsClient
	stopChan   chan struct{}
	stopOnce   sync.Once
	clients    map[*wsClient]bool
}

func NewWebSocketService(bus *broker.Bus) *WebSocketService {
	return &WebSocketService{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// local backend, the shell connects from its own origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		stopChan:   make(chan struct{}),
		clients:    make(map[*wsClient]bool),
	}
}

// Start runs the hub loop in a goroutine.
func (ws *WebSocketService) Start() {
	events, cancel := ws.bus.Subscribe()
	go ws.run(events, cancel)
}

// Stop shuts the hub down and disconnects every client.
func (ws *WebSocketService) Stop() {
	ws.stopOnce.Do(func() { close(ws.stopChan) })
}

func (ws *WebSocketService) run(events <-chan broker.Event, cancel func()) {
	defer cancel()
	for {
		select {
		case client := <-ws.register:
			ws.clients[client] = true
		case client := <-ws.unregister:
			if _, ok := ws.clients[client]; ok {
				delete(ws.clients, client)
				close(client.send)
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			ws.broadcast(event)
		case <-ws.stopChan:
			for client := range ws.clients {
				delete(ws.clients, client)
				close(client.send)
			}
			return
		}
	}
}

func (ws *WebSocketService) broadcast(event broker.Event) {
	message, err := json.Marshal(ServerMessage{
		Type:    "event",
		Event:   string(event.Type),
		Payload: event.Payload,
	})
	if err != nil {
		log.Printf("Warning: could not encode event %s: %v", event.Type, err)
		return
	}
	for client := range ws.clients {
		select {
		case client.send <- message:
		default:
			// slow client, drop it rather than block the hub
			delete(ws.clients, client)
			close(client.send)
		}
	}
}

// HandleConnection upgrades an HTTP request and attaches the client to the
// hub until it disconnects.
func (ws *WebSocketService) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Warning: websocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 64)}
	select {
	case ws.register <- client:
	case <-ws.stopChan:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(ws)
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump discards inbound frames; the UI only listens. Its job is to
// notice the disconnect and unregister the client.
func (c *wsClient) readPump(ws *WebSocketService) {
	defer func() {
		select {
		case ws.unregister <- c:
		case <-ws.stopChan:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
