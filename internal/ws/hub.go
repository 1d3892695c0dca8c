package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// Channel names. Inventory updates fan out to both the product channel and
// the product/warehouse channel; low-stock alerts to the warehouse channel
// and the global one.
func ProductChannel(productID string) string {
	return fmt.Sprintf("inventory:%s", productID)
}

func ProductWarehouseChannel(productID, warehouseID string) string {
	return fmt.Sprintf("inventory:%s:%s", productID, warehouseID)
}

func LowStockChannel(warehouseID string) string {
	return fmt.Sprintf("low-stock:%s", warehouseID)
}

const LowStockAllChannel = "low-stock:all"

// Hub tracks connected clients and their channel subscriptions and fans
// messages out to them. Delivery is best-effort, at-most-once: a slow
// client's buffer overflowing drops the message, never blocks the caller.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *zap.Logger
}

// NewHub creates a new fan-out hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  util.GetLogger(),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast sends payload to every client subscribed to any of the channels
func (h *Hub) Broadcast(event string, payload interface{}, channels ...string) {
	msg, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  payload,
	})
	if err != nil {
		h.logger.Error("Failed to marshal broadcast payload", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.subscribedToAny(channels) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("Client buffer full, dropping message")
		}
	}
}

// EmitInventoryUpdate pushes a record change to its product and
// product/warehouse channels
func (h *Hub) EmitInventoryUpdate(rec *models.InventoryRecord) {
	h.Broadcast("inventory:update", rec,
		ProductChannel(rec.ProductID),
		ProductWarehouseChannel(rec.ProductID, rec.WarehouseID))
}

// EmitLowStockAlert pushes an alert to its warehouse channel and the
// global low-stock channel
func (h *Hub) EmitLowStockAlert(alert *models.LowStockAlert) {
	h.Broadcast("low-stock:alert", alert,
		LowStockChannel(alert.WarehouseID),
		LowStockAllChannel)
}
