package live

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/velvethour/venue-app/utils"
)

// Event types pushed to staff dashboards.
const (
	EventThreadUpdate      = "thread_update"
	EventReservationUpdate = "reservation_update"
	EventFloorUpdate       = "floor_update"
	EventSecurityAlert     = "security_alert"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds every connected staff dashboard and its role. Delivery is best
// effort: a failed write drops the client.
type Hub struct {
	clients map[*websocket.Conn]string
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// Broadcast sends a message to every connected client.
func Broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling broadcast: %v", err)
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for conn := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(hub.clients, conn)
			conn.Close()
		}
	}
}

// BroadcastToRoles sends a message only to clients whose role is in the set.
func BroadcastToRoles(msg Message, roles []string) {
	payload, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling broadcast: %v", err)
		return
	}
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for conn, role := range hub.clients {
		if !allowed[role] {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(hub.clients, conn)
			conn.Close()
		}
	}
}
