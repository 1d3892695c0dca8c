package models

import "time"

// InventoryRecord tracks stock for one product in one warehouse.
// AvailableQuantity is a generated column (quantity - reserved_quantity).
type InventoryRecord struct {
	ID                string    `db:"id" json:"id"`
	ProductID         string    `db:"product_id" json:"product_id"`
	WarehouseID       string    `db:"warehouse_id" json:"warehouse_id"`
	Quantity          int       `db:"quantity" json:"quantity"`
	ReservedQuantity  int       `db:"reserved_quantity" json:"reserved_quantity"`
	AvailableQuantity int       `db:"available_quantity" json:"available_quantity"`
	Barcode           *string   `db:"barcode" json:"barcode,omitempty"`
	Location          *string   `db:"location" json:"location,omitempty"`
	ReorderPoint      int       `db:"reorder_point" json:"reorder_point"`
	MaxStock          *int      `db:"max_stock" json:"max_stock,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// InventoryPatch is a partial update of an inventory record. Nil fields are
// left untouched; the store writes only the columns that are present.
type InventoryPatch struct {
	Quantity     *int    `json:"quantity,omitempty"`
	Barcode      *string `json:"barcode,omitempty"`
	Location     *string `json:"location,omitempty"`
	ReorderPoint *int    `json:"reorder_point,omitempty"`
	MaxStock     *int    `json:"max_stock,omitempty"`
}

// Empty reports whether the patch carries no fields.
func (p *InventoryPatch) Empty() bool {
	return p.Quantity == nil && p.Barcode == nil && p.Location == nil &&
		p.ReorderPoint == nil && p.MaxStock == nil
}

// History change types
const (
	ChangeTypeSale        = "sale"
	ChangeTypeRestock     = "restock"
	ChangeTypeTransferIn  = "transfer_in"
	ChangeTypeTransferOut = "transfer_out"
	ChangeTypeAdjustment  = "adjustment"
	ChangeTypeReservation = "reservation"
	ChangeTypeRelease     = "release"
)

// HistoryEntry is one append-only ledger row. Quantity is the on-hand
// snapshot after the change; QuantityChange is signed.
type HistoryEntry struct {
	ID             string    `db:"id" json:"id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	WarehouseID    string    `db:"warehouse_id" json:"warehouse_id"`
	Quantity       int       `db:"quantity" json:"quantity"`
	ChangeType     string    `db:"change_type" json:"change_type"`
	QuantityChange int       `db:"quantity_change" json:"quantity_change"`
	ReferenceID    *string   `db:"reference_id" json:"reference_id,omitempty"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Reservation statuses. Confirmed, released and expired are terminal.
const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusReleased  = "released"
	ReservationStatusExpired   = "expired"
)

// Reservation is a time-bounded hold of stock pending order confirmation.
type Reservation struct {
	ID          string    `db:"id" json:"id"`
	ProductID   string    `db:"product_id" json:"product_id"`
	WarehouseID string    `db:"warehouse_id" json:"warehouse_id"`
	Quantity    int       `db:"quantity" json:"quantity"`
	OrderID     *string   `db:"order_id" json:"order_id,omitempty"`
	SessionID   *string   `db:"session_id" json:"session_id,omitempty"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Transfer statuses. Completed and cancelled are terminal.
const (
	TransferStatusPending   = "pending"
	TransferStatusInTransit = "in_transit"
	TransferStatusCompleted = "completed"
	TransferStatusCancelled = "cancelled"
)

// Transfer moves stock between two warehouse-scoped records.
type Transfer struct {
	ID              string     `db:"id" json:"id"`
	ProductID       string     `db:"product_id" json:"product_id"`
	FromWarehouseID string     `db:"from_warehouse_id" json:"from_warehouse_id"`
	ToWarehouseID   string     `db:"to_warehouse_id" json:"to_warehouse_id"`
	Quantity        int        `db:"quantity" json:"quantity"`
	Status          string     `db:"status" json:"status"`
	RequestedBy     *string    `db:"requested_by" json:"requested_by,omitempty"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Low-stock alert statuses
const (
	AlertStatusActive       = "active"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusResolved     = "resolved"
)

// LowStockAlert flags available quantity at or below the reorder point.
// At most one active alert exists per (product, warehouse).
type LowStockAlert struct {
	ID              string    `db:"id" json:"id"`
	ProductID       string    `db:"product_id" json:"product_id"`
	WarehouseID     string    `db:"warehouse_id" json:"warehouse_id"`
	CurrentQuantity int       `db:"current_quantity" json:"current_quantity"`
	ReorderPoint    int       `db:"reorder_point" json:"reorder_point"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Forecast is a derived read-model row; it is never persisted.
type Forecast struct {
	ProductID                string  `json:"product_id"`
	WarehouseID              string  `json:"warehouse_id"`
	ForecastedQuantity       float64 `json:"forecasted_quantity"`
	DaysUntilStockout        int     `json:"days_until_stockout"`
	RecommendedOrderQuantity int     `json:"recommended_order_quantity"`
	Confidence               float64 `json:"confidence"`
}
