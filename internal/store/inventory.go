package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"inventory-service/internal/errs"
	"inventory-service/internal/models"

	"github.com/lib/pq"
)

// GetRecord retrieves the inventory record for a product/warehouse pair
func (s *Store) GetRecord(ctx context.Context, productID, warehouseID string) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := s.db.GetContext(ctx, &rec,
		"SELECT * FROM inventory WHERE product_id = $1 AND warehouse_id = $2",
		productID, warehouseID)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("inventory not found for product %s in warehouse %s", productID, warehouseID)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecordsByProduct retrieves inventory records across all warehouses
func (s *Store) GetRecordsByProduct(ctx context.Context, productID string) ([]models.InventoryRecord, error) {
	var recs []models.InventoryRecord
	err := s.db.SelectContext(ctx, &recs,
		"SELECT * FROM inventory WHERE product_id = $1 ORDER BY warehouse_id", productID)
	return recs, err
}

// GetRecordByBarcode retrieves an inventory record by barcode
func (s *Store) GetRecordByBarcode(ctx context.Context, barcode string) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := s.db.GetContext(ctx, &rec,
		"SELECT * FROM inventory WHERE barcode = $1 LIMIT 1", barcode)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("inventory not found for barcode %s", barcode)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateRecord inserts a new inventory record. The (product, warehouse)
// pair is unique; a duplicate insert fails with Conflict.
func (s *Store) CreateRecord(ctx context.Context, rec *models.InventoryRecord) error {
	query := `
		INSERT INTO inventory (id, product_id, warehouse_id, quantity, barcode, location, reorder_point, max_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *`

	err := s.db.GetContext(ctx, rec, query,
		rec.ID, rec.ProductID, rec.WarehouseID, rec.Quantity,
		rec.Barcode, rec.Location, rec.ReorderPoint, rec.MaxStock)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return errs.Conflict("inventory already exists for product %s in warehouse %s", rec.ProductID, rec.WarehouseID)
	}
	return err
}

// UpdateRecord applies a partial update, writing only the provided columns.
// Values are always bound as parameters; only column names are assembled.
func (s *Store) UpdateRecord(ctx context.Context, productID, warehouseID string, patch *models.InventoryPatch) (*models.InventoryRecord, error) {
	if patch.Empty() {
		return s.GetRecord(ctx, productID, warehouseID)
	}

	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	idx := 1

	addSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if patch.Quantity != nil {
		addSet("quantity", *patch.Quantity)
	}
	if patch.Barcode != nil {
		addSet("barcode", *patch.Barcode)
	}
	if patch.Location != nil {
		addSet("location", *patch.Location)
	}
	if patch.ReorderPoint != nil {
		addSet("reorder_point", *patch.ReorderPoint)
	}
	if patch.MaxStock != nil {
		addSet("max_stock", *patch.MaxStock)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, productID, warehouseID)
	query := fmt.Sprintf(
		"UPDATE inventory SET %s WHERE product_id = $%d AND warehouse_id = $%d RETURNING *",
		strings.Join(sets, ", "), idx, idx+1)

	var rec models.InventoryRecord
	err := s.db.GetContext(ctx, &rec, query, args...)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("inventory not found for product %s in warehouse %s", productID, warehouseID)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ReserveStock atomically increments reserved_quantity if enough headroom
// exists. The WHERE guard on the same statement is the only concurrency
// control for reservations.
func (s *Store) ReserveStock(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := s.db.GetContext(ctx, &rec, `
		UPDATE inventory
		SET reserved_quantity = reserved_quantity + $1, updated_at = NOW()
		WHERE product_id = $2 AND warehouse_id = $3
		  AND quantity - reserved_quantity >= $1
		RETURNING *`,
		quantity, productID, warehouseID)
	if err == sql.ErrNoRows {
		return nil, errs.InsufficientStock("insufficient stock for product %s in warehouse %s: requested %d", productID, warehouseID, quantity)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ReleaseReserved decrements reserved_quantity, floored at zero. Tolerant
// of over-release from double-expiry races.
func (s *Store) ReleaseReserved(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := s.db.GetContext(ctx, &rec, `
		UPDATE inventory
		SET reserved_quantity = GREATEST(0, reserved_quantity - $1), updated_at = NOW()
		WHERE product_id = $2 AND warehouse_id = $3
		RETURNING *`,
		quantity, productID, warehouseID)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("inventory not found for product %s in warehouse %s", productID, warehouseID)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CommitReserved consumes a reservation: on-hand and reserved both drop by
// quantity in one conditional statement. Used when a transfer ships out.
func (s *Store) CommitReserved(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := s.db.GetContext(ctx, &rec, `
		UPDATE inventory
		SET quantity = quantity - $1,
		    reserved_quantity = GREATEST(0, reserved_quantity - $1),
		    updated_at = NOW()
		WHERE product_id = $2 AND warehouse_id = $3
		  AND quantity >= $1 AND reserved_quantity >= $1
		RETURNING *`,
		quantity, productID, warehouseID)
	if err == sql.ErrNoRows {
		return nil, errs.InsufficientStock("no committed reservation headroom for product %s in warehouse %s: requested %d", productID, warehouseID, quantity)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RestoreReserved reverses CommitReserved (compensation path).
func (s *Store) RestoreReserved(ctx context.Context, productID, warehouseID string, quantity int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity + $1, reserved_quantity = reserved_quantity + $1, updated_at = NOW()
		WHERE product_id = $2 AND warehouse_id = $3`,
		quantity, productID, warehouseID)
	return err
}

// AddQuantity atomically increments on-hand quantity
func (s *Store) AddQuantity(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	err := s.db.GetContext(ctx, &rec, `
		UPDATE inventory
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE product_id = $2 AND warehouse_id = $3
		RETURNING *`,
		quantity, productID, warehouseID)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("inventory not found for product %s in warehouse %s", productID, warehouseID)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// AppendHistory writes one immutable ledger row
func (s *Store) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_history (id, product_id, warehouse_id, quantity, change_type, quantity_change, reference_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.ProductID, entry.WarehouseID, entry.Quantity,
		entry.ChangeType, entry.QuantityChange, entry.ReferenceID, entry.Notes)
	return err
}

// GetHistory retrieves the most recent ledger rows for a pair
func (s *Store) GetHistory(ctx context.Context, productID, warehouseID string, limit int) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT * FROM inventory_history
		WHERE product_id = $1 AND warehouse_id = $2
		ORDER BY created_at DESC
		LIMIT $3`,
		productID, warehouseID, limit)
	return entries, err
}

// ListLowStock returns records at or below threshold, or their own reorder
// point when no threshold is given, ordered by available quantity.
func (s *Store) ListLowStock(ctx context.Context, threshold *int, warehouseID *string) ([]models.InventoryRecord, error) {
	query := "SELECT * FROM inventory WHERE available_quantity <= COALESCE($1, reorder_point)"
	args := []interface{}{threshold}

	if warehouseID != nil {
		query += " AND warehouse_id = $2"
		args = append(args, *warehouseID)
	}
	query += " ORDER BY available_quantity ASC"

	var recs []models.InventoryRecord
	err := s.db.SelectContext(ctx, &recs, query, args...)
	return recs, err
}

// StockedPair identifies one inventory record
type StockedPair struct {
	ProductID   string `db:"product_id"`
	WarehouseID string `db:"warehouse_id"`
}

// ListStockedPairs returns all (product, warehouse) pairs, optionally
// filtered by warehouse. Feeds ForecastAll.
func (s *Store) ListStockedPairs(ctx context.Context, warehouseID *string) ([]StockedPair, error) {
	query := "SELECT DISTINCT product_id, warehouse_id FROM inventory"
	args := []interface{}{}

	if warehouseID != nil {
		query += " WHERE warehouse_id = $1"
		args = append(args, *warehouseID)
	}

	var pairs []StockedPair
	err := s.db.SelectContext(ctx, &pairs, query, args...)
	return pairs, err
}

// SalesAggregate summarizes sale-type history rows since a cutoff
type SalesAggregate struct {
	SaleCount int `db:"sale_count"`
	TotalSold int `db:"total_sold"`
}

// GetSalesAggregate sums sale history for a pair within the lookback window
func (s *Store) GetSalesAggregate(ctx context.Context, productID, warehouseID string, since time.Time) (*SalesAggregate, error) {
	var agg SalesAggregate
	err := s.db.GetContext(ctx, &agg, `
		SELECT COUNT(*) AS sale_count,
		       COALESCE(SUM(ABS(quantity_change)), 0) AS total_sold
		FROM inventory_history
		WHERE product_id = $1 AND warehouse_id = $2
		  AND change_type = 'sale' AND created_at >= $3`,
		productID, warehouseID, since)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
