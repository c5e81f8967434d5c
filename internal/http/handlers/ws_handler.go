package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/digitalme/backend/internal/auth"
	"github.com/digitalme/backend/internal/config"
	"github.com/digitalme/backend/internal/events"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HolderResolver finds the holder whose wallet owns a DID.
type HolderResolver interface {
	HolderByDID(ctx context.Context, d string) (uuid.UUID, error)
}

// WSHub fans chain events out to websocket clients. Events carrying a
// holder_id go to that holder only, events carrying an owner_did go to the
// owning holder and the operator, everything else is broadcast.
type WSHub struct {
	cfg         *config.Config
	subscriber  events.Subscriber
	holders     HolderResolver
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
}

func NewWSHub(cfg *config.Config, subscriber events.Subscriber, holders HolderResolver, log *zap.Logger) *WSHub {
	return &WSHub{
		cfg:         cfg,
		subscriber:  subscriber,
		holders:     holders,
		log:         log,
		connections: make(map[uuid.UUID][]*websocket.Conn),
	}
}

func (h *WSHub) Start(ctx context.Context) {
	if err := h.subscriber.Subscribe(ctx, events.StreamChain, h.dispatch); err != nil {
		h.log.Error("failed to subscribe to chain events", zap.Error(err))
	}
}

func (h *WSHub) dispatch(event events.Event) {
	if raw, ok := event.Payload["holder_id"].(string); ok {
		if holderID, err := uuid.Parse(raw); err == nil {
			h.SendToHolder(holderID, event)
			return
		}
	}
	if owner, ok := event.Payload["owner_did"].(string); ok && h.holders != nil {
		holderID, err := h.holders.HolderByDID(context.Background(), owner)
		if err == nil {
			h.SendToHolder(holderID, event)
			h.SendToHolder(auth.OperatorID, event)
			return
		}
		h.log.Debug("event owner not held here", zap.String("owner_did", owner), zap.Error(err))
	}
	h.broadcast(event)
}

func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conns := range h.connections {
		for _, conn := range conns {
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
	}
}

func (h *WSHub) SendToHolder(holderID uuid.UUID, event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[holderID] {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.cfg.JWTSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	holderID := claims.HolderID

	h.mu.Lock()
	h.connections[holderID] = append(h.connections[holderID], conn)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		conns := h.connections[holderID]
		for i, c := range conns {
			if c == conn {
				h.connections[holderID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.connections[holderID]) == 0 {
			delete(h.connections, holderID)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}
