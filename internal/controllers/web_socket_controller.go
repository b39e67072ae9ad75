package controllers

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sabohub/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientQueueLen = 32
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is enforced by the CORS layer and the token
	},
}

// LocationMessage is what monitoring clients receive for every saved ping.
type LocationMessage struct {
	Type     string              `json:"type"`
	Location models.LocationPing `json:"location"`
}

type hubEvent struct {
	companyID uuid.UUID
	msg       LocationMessage
}

type hubClient struct {
	conn *websocket.Conn
	send chan LocationMessage
}

// LocationHub fans saved pings out to the managers watching the same company.
type LocationHub struct {
	clients   map[uuid.UUID]map[*hubClient]bool
	broadcast chan hubEvent
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

// NewLocationHub creates a hub and starts its broadcast loop.
func NewLocationHub() *LocationHub {
	hub := &LocationHub{
		clients:   make(map[uuid.UUID]map[*hubClient]bool),
		broadcast: make(chan hubEvent, 100),
		done:      make(chan struct{}),
	}
	go hub.run()
	return hub
}

func (h *LocationHub) run() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[ev.companyID] {
				select {
				case client.send <- ev.msg:
				default:
					logrus.WithField("company_id", ev.companyID).Warn("Monitoring client too slow, dropping location update")
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishLocation queues ping for the company's monitors. It never blocks.
func (h *LocationHub) PublishLocation(companyID uuid.UUID, ping models.LocationPing) {
	select {
	case h.broadcast <- hubEvent{companyID: companyID, msg: LocationMessage{Type: "location", Location: ping}}:
	default:
		logrus.Warn("Location broadcast channel full, dropping message")
	}
}

// Close stops the broadcast loop and disconnects every client.
func (h *LocationHub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for companyID, clients := range h.clients {
			for client := range clients {
				close(client.send)
			}
			delete(h.clients, companyID)
		}
	})
}

func (h *LocationHub) register(companyID uuid.UUID, conn *websocket.Conn) *hubClient {
	client := &hubClient{conn: conn, send: make(chan LocationMessage, clientQueueLen)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[companyID]; !ok {
		h.clients[companyID] = make(map[*hubClient]bool)
	}
	h.clients[companyID][client] = true
	logrus.WithFields(logrus.Fields{
		"company_id": companyID,
		"conn_ptr":   fmt.Sprintf("%p", conn),
	}).Info("Client registered with LocationHub")
	return client
}

func (h *LocationHub) unregister(companyID uuid.UUID, client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[companyID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, companyID)
	}
	logrus.WithFields(logrus.Fields{
		"company_id": companyID,
		"conn_ptr":   fmt.Sprintf("%p", client.conn),
	}).Info("Client unregistered from LocationHub")
}

// Subscribers reports how many monitors are connected for companyID.
func (h *LocationHub) Subscribers(companyID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[companyID])
}

// HandleLocationWebSocket upgrades a manager's request into a live feed of
// the company's rep locations. Clients only listen; anything they send is
// ignored.
func (h *LocationHub) HandleLocationWebSocket(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	client := h.register(actor.CompanyID, conn)
	go writePump(client)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).WithField("user_id", actor.UserID).Warn("Monitoring WebSocket closed unexpectedly")
			}
			break
		}
	}
	h.unregister(actor.CompanyID, client)
}

// writePump is the only writer of client.conn.
func writePump(client *hubClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteJSON(msg); err != nil {
				logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", client.conn)).Warn("Failed to send location update")
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
