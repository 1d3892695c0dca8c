package store

import (
	"context"
	"database/sql"

	"inventory-service/internal/errs"
	"inventory-service/internal/models"
)

// CreateAlert inserts a new active alert, resolving any prior active alert
// for the same (product, warehouse) in the same transaction so at most one
// active alert exists per pair.
func (s *Store) CreateAlert(ctx context.Context, alert *models.LowStockAlert) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE low_stock_alerts
		SET status = $1, updated_at = NOW()
		WHERE product_id = $2 AND warehouse_id = $3 AND status = $4`,
		models.AlertStatusResolved, alert.ProductID, alert.WarehouseID, models.AlertStatusActive)
	if err != nil {
		return err
	}

	err = tx.GetContext(ctx, alert, `
		INSERT INTO low_stock_alerts (id, product_id, warehouse_id, current_quantity, reorder_point, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`,
		alert.ID, alert.ProductID, alert.WarehouseID,
		alert.CurrentQuantity, alert.ReorderPoint, alert.Status)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetActiveAlert returns the active alert for a pair, if any
func (s *Store) GetActiveAlert(ctx context.Context, productID, warehouseID string) (*models.LowStockAlert, error) {
	var alert models.LowStockAlert
	err := s.db.GetContext(ctx, &alert, `
		SELECT * FROM low_stock_alerts
		WHERE product_id = $1 AND warehouse_id = $2 AND status = $3`,
		productID, warehouseID, models.AlertStatusActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// ListActiveAlerts returns active alerts ordered by how low stock is
func (s *Store) ListActiveAlerts(ctx context.Context, warehouseID *string) ([]models.LowStockAlert, error) {
	query := "SELECT * FROM low_stock_alerts WHERE status = $1"
	args := []interface{}{models.AlertStatusActive}

	if warehouseID != nil {
		query += " AND warehouse_id = $2"
		args = append(args, *warehouseID)
	}
	query += " ORDER BY current_quantity ASC"

	var alerts []models.LowStockAlert
	err := s.db.SelectContext(ctx, &alerts, query, args...)
	return alerts, err
}

// UpdateAlertStatus moves an alert to acknowledged or resolved
func (s *Store) UpdateAlertStatus(ctx context.Context, id, status string) (*models.LowStockAlert, error) {
	var alert models.LowStockAlert
	err := s.db.GetContext(ctx, &alert,
		"UPDATE low_stock_alerts SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING *",
		status, id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("low stock alert not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}
