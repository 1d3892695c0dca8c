package store

import (
	"context"
	"database/sql"
	"time"

	"inventory-service/internal/errs"
	"inventory-service/internal/models"
)

// CreateReservation inserts a new pending reservation
func (s *Store) CreateReservation(ctx context.Context, res *models.Reservation) error {
	query := `
		INSERT INTO reservations (id, product_id, warehouse_id, quantity, order_id, session_id, expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *`

	return s.db.GetContext(ctx, res, query,
		res.ID, res.ProductID, res.WarehouseID, res.Quantity,
		res.OrderID, res.SessionID, res.ExpiresAt, res.Status)
}

// GetReservation retrieves a reservation by ID
func (s *Store) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation
	err := s.db.GetContext(ctx, &res, "SELECT * FROM reservations WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("reservation not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateReservationStatus updates reservation status
func (s *Store) UpdateReservationStatus(ctx context.Context, id, status string) (*models.Reservation, error) {
	var res models.Reservation
	err := s.db.GetContext(ctx, &res,
		"UPDATE reservations SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING *",
		status, id)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("reservation not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListExpiredPending returns pending reservations past their expiry
func (s *Store) ListExpiredPending(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	var res []models.Reservation
	err := s.db.SelectContext(ctx, &res,
		"SELECT * FROM reservations WHERE status = $1 AND expires_at < $2",
		models.ReservationStatusPending, now)
	return res, err
}

// ListReservationsByOrderID returns all reservations for an order
func (s *Store) ListReservationsByOrderID(ctx context.Context, orderID string) ([]models.Reservation, error) {
	var res []models.Reservation
	err := s.db.SelectContext(ctx, &res,
		"SELECT * FROM reservations WHERE order_id = $1", orderID)
	return res, err
}

// ListPendingBySessionID returns pending reservations for a session
func (s *Store) ListPendingBySessionID(ctx context.Context, sessionID string) ([]models.Reservation, error) {
	var res []models.Reservation
	err := s.db.SelectContext(ctx, &res,
		"SELECT * FROM reservations WHERE session_id = $1 AND status = $2",
		sessionID, models.ReservationStatusPending)
	return res, err
}
