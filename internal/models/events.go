package models

import "time"

// Event types carried on the inventory-events topic and pushed to
// websocket subscribers.
const (
	EventTypeInventoryUpdated   = "INVENTORY_UPDATED"
	EventTypeLowStockAlert      = "LOW_STOCK_ALERT"
	EventTypeReservationExpired = "RESERVATION_EXPIRED"
	EventTypeTransferCompleted  = "TRANSFER_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// InventoryUpdatedEvent published after any stock mutation
type InventoryUpdatedEvent struct {
	BaseEvent
	Record InventoryRecord `json:"record"`
}

// LowStockAlertEvent published when a new active alert is raised
type LowStockAlertEvent struct {
	BaseEvent
	Alert LowStockAlert `json:"alert"`
}

// ReservationExpiredEvent published for each reservation expired by the sweep
type ReservationExpiredEvent struct {
	BaseEvent
	ReservationID string `json:"reservation_id"`
	ProductID     string `json:"product_id"`
	WarehouseID   string `json:"warehouse_id"`
	Quantity      int    `json:"quantity"`
}

// TransferCompletedEvent published when a transfer reaches completed
type TransferCompletedEvent struct {
	BaseEvent
	Transfer Transfer `json:"transfer"`
}
