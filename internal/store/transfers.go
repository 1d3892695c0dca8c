package store

import (
	"context"
	"database/sql"

	"inventory-service/internal/errs"
	"inventory-service/internal/models"
)

// CreateTransfer inserts a new pending transfer
func (s *Store) CreateTransfer(ctx context.Context, tr *models.Transfer) error {
	query := `
		INSERT INTO transfers (id, product_id, from_warehouse_id, to_warehouse_id, quantity, status, requested_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *`

	return s.db.GetContext(ctx, tr, query,
		tr.ID, tr.ProductID, tr.FromWarehouseID, tr.ToWarehouseID,
		tr.Quantity, tr.Status, tr.RequestedBy, tr.Notes)
}

// GetTransfer retrieves a transfer by ID
func (s *Store) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	var tr models.Transfer
	err := s.db.GetContext(ctx, &tr, "SELECT * FROM transfers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("transfer not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

// UpdateTransferStatus updates transfer status, stamping completed_at when
// the transfer reaches completed.
func (s *Store) UpdateTransferStatus(ctx context.Context, id, status string) (*models.Transfer, error) {
	query := "UPDATE transfers SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING *"
	if status == models.TransferStatusCompleted {
		query = "UPDATE transfers SET status = $1, completed_at = NOW(), updated_at = NOW() WHERE id = $2 RETURNING *"
	}

	var tr models.Transfer
	err := s.db.GetContext(ctx, &tr, query, status, id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("transfer not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &tr, nil
}
