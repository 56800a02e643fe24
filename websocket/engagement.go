package websocket

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ecotrack/models"
	"ecotrack/utils"
)

var upgrader = websocket.Upgrader{
	// In production, adjust the CheckOrigin function to allow only trusted origins.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EngagementClient is one websocket connection of a user
type EngagementClient struct {
	Conn    *websocket.Conn
	UserID  string
	writeMu sync.Mutex
}

// SafeWriteJSON safely writes JSON data to the client's WebSocket connection
func (ec *EngagementClient) SafeWriteJSON(v interface{}) error {
	ec.writeMu.Lock()
	defer ec.writeMu.Unlock()
	return ec.Conn.WriteJSON(v)
}

// Hub relays engagement events to the connections of the user they concern.
type Hub struct {
	mu      sync.RWMutex
	clients map[*EngagementClient]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*EngagementClient]bool)}
}

// Register adds a client to the hub
func (h *Hub) Register(client *EngagementClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	utils.LogDebug("Engagement client registered for %s. Total clients: %d", client.UserID, len(h.clients))
}

// Unregister removes a client and closes its connection
func (h *Hub) Unregister(client *EngagementClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	client.Conn.Close()
	utils.LogDebug("Engagement client unregistered for %s. Total clients: %d", client.UserID, len(h.clients))
}

// Deliver sends an event to every connection of its user.
func (h *Hub) Deliver(event models.GamificationEvent) {
	h.mu.RLock()
	var failed []*EngagementClient
	for client := range h.clients {
		if client.UserID != event.UserID {
			continue
		}
		if err := client.SafeWriteJSON(event); err != nil {
			utils.LogWarn("Error delivering %s to %s: %v", event.Type, client.UserID, err)
			failed = append(failed, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range failed {
		h.Unregister(client)
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// tokenFrom reads the bearer token from the Authorization header, falling
// back to the token query parameter browsers must use for websockets.
func tokenFrom(c *gin.Context) string {
	if authz := c.GetHeader("Authorization"); authz != "" {
		parts := strings.Split(authz, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Query("token")
}

// Handler upgrades an authenticated request and streams the caller's events.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFrom(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}
		claims, err := utils.ParseJWTToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			utils.LogWarn("WebSocket upgrade error: %v", err)
			return
		}

		client := &EngagementClient{Conn: conn, UserID: claims.UserID}
		h.Register(client)
		defer h.Unregister(client)

		client.SafeWriteJSON(gin.H{
			"type":    "connected",
			"message": "Connected to engagement updates",
			"userId":  claims.UserID,
		})

		// Keep the connection open until the client leaves; incoming
		// messages are ignored.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					utils.LogWarn("Engagement WebSocket error: %v", err)
				}
				return
			}
		}
	}
}
