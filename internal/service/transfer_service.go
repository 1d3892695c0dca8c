package service

import (
	"context"

	"inventory-service/internal/errs"
	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransferStore is the persistence surface for transfers
type TransferStore interface {
	CreateTransfer(ctx context.Context, tr *models.Transfer) error
	GetTransfer(ctx context.Context, id string) (*models.Transfer, error)
	UpdateTransferStatus(ctx context.Context, id, status string) (*models.Transfer, error)
}

var _ TransferStore = (*store.Store)(nil)

// TransferService drives the pending -> in_transit -> completed state
// machine, with cancellation from either non-terminal state. The source
// reservation taken at start is the guard against overselling while the
// stock is on the move.
type TransferService struct {
	store     TransferStore
	inventory *InventoryService
	publisher EventPublisher
	logger    *zap.Logger
}

// NewTransferService creates a new transfer service
func NewTransferService(store TransferStore, inventory *InventoryService, publisher EventPublisher) *TransferService {
	return &TransferService{
		store:     store,
		inventory: inventory,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// TransferRequest moves stock between two warehouses
type TransferRequest struct {
	ProductID       string  `json:"product_id" binding:"required"`
	FromWarehouseID string  `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   string  `json:"to_warehouse_id" binding:"required"`
	Quantity        int     `json:"quantity" binding:"required,min=1"`
	RequestedBy     *string `json:"requested_by,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

// Create validates and records a pending transfer. The availability check
// here is advisory only; Start re-checks atomically when it reserves.
func (s *TransferService) Create(ctx context.Context, req *TransferRequest) (*models.Transfer, error) {
	ctx, span := util.StartSpan(ctx, "TransferService.Create")
	defer span.End()

	if req.FromWarehouseID == req.ToWarehouseID {
		return nil, errs.Validation("source and destination warehouses cannot be the same")
	}
	if req.Quantity <= 0 {
		return nil, errs.Validation("quantity must be positive")
	}

	source, err := s.inventory.Get(ctx, req.ProductID, &req.FromWarehouseID)
	if err != nil {
		return nil, err
	}
	if len(source) == 0 || source[0].AvailableQuantity < req.Quantity {
		return nil, errs.InsufficientStock("insufficient stock in source warehouse %s for transfer", req.FromWarehouseID)
	}

	tr := &models.Transfer{
		ID:              uuid.New().String(),
		ProductID:       req.ProductID,
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		Quantity:        req.Quantity,
		Status:          models.TransferStatusPending,
		RequestedBy:     req.RequestedBy,
		Notes:           req.Notes,
	}

	if err := s.store.CreateTransfer(ctx, tr); err != nil {
		return nil, err
	}

	util.TransfersCreatedTotal.Inc()
	s.logger.Info("Transfer created",
		zap.String("transfer_id", tr.ID),
		zap.String("product_id", tr.ProductID),
		zap.Int("quantity", tr.Quantity))

	return tr, nil
}

// Start reserves the quantity at the source and moves the transfer to
// in_transit. The conditional reserve closes the race left open by the
// advisory check in Create.
func (s *TransferService) Start(ctx context.Context, id string) (*models.Transfer, error) {
	ctx, span := util.StartSpan(ctx, "TransferService.Start")
	defer span.End()

	tr, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	if tr.Status != models.TransferStatusPending {
		return nil, errs.Validation("transfer %s is %s, not pending", id, tr.Status)
	}

	if _, err := s.inventory.ReserveStock(ctx, tr.ProductID, tr.FromWarehouseID, tr.Quantity, &tr.ID); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateTransferStatus(ctx, id, models.TransferStatusInTransit)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transfer started", zap.String("transfer_id", id))
	return updated, nil
}

// Complete ships the reserved quantity out of the source and lands it at
// the destination, creating the destination record if needed. A failed
// destination write triggers a best-effort source restore and rethrows.
func (s *TransferService) Complete(ctx context.Context, id string) (*models.Transfer, error) {
	ctx, span := util.StartSpan(ctx, "TransferService.Complete")
	defer span.End()

	tr, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	if tr.Status != models.TransferStatusInTransit {
		return nil, errs.Validation("transfer %s is %s, not in transit", id, tr.Status)
	}

	if _, err := s.inventory.TransferOut(ctx, tr.ProductID, tr.FromWarehouseID, tr.Quantity, &tr.ID); err != nil {
		return nil, err
	}

	if _, err := s.inventory.TransferIn(ctx, tr.ProductID, tr.ToWarehouseID, tr.Quantity, &tr.ID); err != nil {
		// Put the stock back at the source so the transfer can be retried
		// or cancelled. Not transactional: a crash here leaves drift.
		if restoreErr := s.inventory.RestoreTransferStock(ctx, tr.ProductID, tr.FromWarehouseID, tr.Quantity); restoreErr != nil {
			s.logger.Error("Failed to restore source stock after destination failure",
				zap.String("transfer_id", id),
				zap.Error(restoreErr))
		}
		return nil, err
	}

	updated, err := s.store.UpdateTransferStatus(ctx, id, models.TransferStatusCompleted)
	if err != nil {
		return nil, err
	}

	util.TransfersCompletedTotal.Inc()
	s.logger.Info("Transfer completed", zap.String("transfer_id", id))

	if s.publisher != nil {
		if err := s.publisher.PublishTransferCompleted(ctx, updated); err != nil {
			s.logger.Warn("Failed to publish TransferCompleted event", zap.Error(err))
		}
	}

	return updated, nil
}

// Cancel stops a transfer that has not completed, releasing the source
// hold if the stock was already reserved.
func (s *TransferService) Cancel(ctx context.Context, id string) (*models.Transfer, error) {
	ctx, span := util.StartSpan(ctx, "TransferService.Cancel")
	defer span.End()

	tr, err := s.store.GetTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	switch tr.Status {
	case models.TransferStatusCompleted:
		return nil, errs.Validation("cannot cancel a completed transfer")
	case models.TransferStatusCancelled:
		return nil, errs.Validation("transfer %s is already cancelled", id)
	}

	if tr.Status == models.TransferStatusInTransit {
		if _, err := s.inventory.ReleaseReserved(ctx, tr.ProductID, tr.FromWarehouseID, tr.Quantity, &tr.ID); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdateTransferStatus(ctx, id, models.TransferStatusCancelled)
	if err != nil {
		return nil, err
	}

	util.TransfersCancelledTotal.Inc()
	s.logger.Info("Transfer cancelled", zap.String("transfer_id", id))
	return updated, nil
}

// Get retrieves a transfer by ID
func (s *TransferService) Get(ctx context.Context, id string) (*models.Transfer, error) {
	return s.store.GetTransfer(ctx, id)
}
