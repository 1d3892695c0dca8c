package service

import (
	"context"
	"time"

	"inventory-service/internal/errs"
	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationStore is the persistence surface for reservations
type ReservationStore interface {
	CreateReservation(ctx context.Context, res *models.Reservation) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id, status string) (*models.Reservation, error)
	ListExpiredPending(ctx context.Context, now time.Time) ([]models.Reservation, error)
	ListReservationsByOrderID(ctx context.Context, orderID string) ([]models.Reservation, error)
	ListPendingBySessionID(ctx context.Context, sessionID string) ([]models.Reservation, error)
}

var _ ReservationStore = (*store.Store)(nil)

// ReservationService manages time-bounded stock holds. All stock movement
// goes through InventoryService so the ledger and alerts stay consistent.
type ReservationService struct {
	store      ReservationStore
	inventory  *InventoryService
	publisher  EventPublisher
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewReservationService creates a new reservation service
func NewReservationService(store ReservationStore, inventory *InventoryService, publisher EventPublisher, defaultTTL time.Duration) *ReservationService {
	return &ReservationService{
		store:      store,
		inventory:  inventory,
		publisher:  publisher,
		defaultTTL: defaultTTL,
		logger:     util.GetLogger(),
	}
}

// ReserveRequest creates a hold on stock
type ReserveRequest struct {
	ProductID   string  `json:"product_id" binding:"required"`
	WarehouseID string  `json:"warehouse_id" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,min=1"`
	OrderID     *string `json:"order_id,omitempty"`
	SessionID   *string `json:"session_id,omitempty"`
	ExpiresIn   *int    `json:"expires_in,omitempty"` // seconds
}

// Create reserves stock and records a pending reservation. The store-side
// conditional update is the first and only side effect before the
// reservation row is written, so a failed guard leaves nothing behind.
func (s *ReservationService) Create(ctx context.Context, req *ReserveRequest) (*models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.Create")
	defer span.End()

	if req.Quantity <= 0 {
		return nil, errs.Validation("quantity must be positive")
	}

	ttl := s.defaultTTL
	if req.ExpiresIn != nil && *req.ExpiresIn > 0 {
		ttl = time.Duration(*req.ExpiresIn) * time.Second
	}

	reservationID := uuid.New().String()

	if _, err := s.inventory.ReserveStock(ctx, req.ProductID, req.WarehouseID, req.Quantity, &reservationID); err != nil {
		util.ReservationsFailedTotal.WithLabelValues(string(errs.KindOf(err))).Inc()
		return nil, err
	}

	res := &models.Reservation{
		ID:          reservationID,
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		OrderID:     req.OrderID,
		SessionID:   req.SessionID,
		ExpiresAt:   time.Now().Add(ttl),
		Status:      models.ReservationStatusPending,
	}

	if err := s.store.CreateReservation(ctx, res); err != nil {
		// Stock is held with no tracking row. Undo best-effort; a failure
		// here leaves drift that the ledger makes visible.
		s.logger.Error("Reservation row write failed after stock was reserved",
			zap.String("reservation_id", reservationID),
			zap.Error(err))
		if _, relErr := s.inventory.ReleaseReserved(ctx, req.ProductID, req.WarehouseID, req.Quantity, &reservationID); relErr != nil {
			s.logger.Error("Failed to undo orphaned stock reservation",
				zap.String("reservation_id", reservationID),
				zap.Error(relErr))
		}
		return nil, err
	}

	util.ReservationsCreatedTotal.Inc()
	s.logger.Info("Stock reservation created",
		zap.String("reservation_id", res.ID),
		zap.String("product_id", res.ProductID),
		zap.Int("quantity", res.Quantity))

	return res, nil
}

// Confirm finalizes intent on a pending reservation. Stock counters are
// untouched; the fulfillment flow owns the eventual quantity decrement.
func (s *ReservationService) Confirm(ctx context.Context, id string) (*models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.Confirm")
	defer span.End()

	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	if res.Status != models.ReservationStatusPending {
		return nil, errs.Validation("reservation %s is %s, not pending", id, res.Status)
	}

	updated, err := s.store.UpdateReservationStatus(ctx, id, models.ReservationStatusConfirmed)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation confirmed", zap.String("reservation_id", id))
	return updated, nil
}

// Release returns held stock. Idempotent: releasing an already-released
// reservation is a no-op.
func (s *ReservationService) Release(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "ReservationService.Release")
	defer span.End()

	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}

	if res.Status == models.ReservationStatusReleased {
		return nil
	}

	if err := s.releaseStock(ctx, res); err != nil {
		return err
	}

	if _, err := s.store.UpdateReservationStatus(ctx, id, models.ReservationStatusReleased); err != nil {
		return err
	}

	util.ReservationsReleasedTotal.Inc()
	s.logger.Info("Reservation released", zap.String("reservation_id", id))
	return nil
}

// ExpireSweep releases every pending reservation past its expiry and marks
// it expired. Individual failures are logged and skipped; the sweep always
// runs to the end and returns the count it expired.
func (s *ReservationService) ExpireSweep(ctx context.Context) (int, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.ExpireSweep")
	defer span.End()

	start := time.Now()
	defer func() {
		util.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	expired, err := s.store.ListExpiredPending(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range expired {
		res := &expired[i]

		if err := s.releaseStock(ctx, res); err != nil {
			s.logger.Error("Failed to release expired reservation",
				zap.String("reservation_id", res.ID),
				zap.Error(err))
			continue
		}

		if _, err := s.store.UpdateReservationStatus(ctx, res.ID, models.ReservationStatusExpired); err != nil {
			s.logger.Error("Failed to mark reservation expired",
				zap.String("reservation_id", res.ID),
				zap.Error(err))
			continue
		}

		count++
		util.ReservationsExpiredTotal.Inc()

		if s.publisher != nil {
			if err := s.publisher.PublishReservationExpired(ctx, res); err != nil {
				s.logger.Warn("Failed to publish ReservationExpired event", zap.Error(err))
			}
		}
	}

	if count > 0 {
		s.logger.Info("Expired reservations released", zap.Int("count", count))
	}
	return count, nil
}

// ReleaseByOrderID releases every reservation tied to an order
func (s *ReservationService) ReleaseByOrderID(ctx context.Context, orderID string) error {
	reservations, err := s.store.ListReservationsByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	for i := range reservations {
		if err := s.Release(ctx, reservations[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseBySessionID releases every pending reservation for a session
func (s *ReservationService) ReleaseBySessionID(ctx context.Context, sessionID string) error {
	reservations, err := s.store.ListPendingBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}

	for i := range reservations {
		if err := s.Release(ctx, reservations[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a reservation by ID
func (s *ReservationService) Get(ctx context.Context, id string) (*models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

func (s *ReservationService) releaseStock(ctx context.Context, res *models.Reservation) error {
	_, err := s.inventory.ReleaseReserved(ctx, res.ProductID, res.WarehouseID, res.Quantity, &res.ID)
	return err
}
