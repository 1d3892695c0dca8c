package service

import (
	"context"
	"fmt"
	"time"

	"inventory-service/internal/errs"
	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryStore is the persistence surface the inventory service needs.
// *store.Store satisfies it; tests substitute fakes.
type InventoryStore interface {
	GetRecord(ctx context.Context, productID, warehouseID string) (*models.InventoryRecord, error)
	GetRecordsByProduct(ctx context.Context, productID string) ([]models.InventoryRecord, error)
	GetRecordByBarcode(ctx context.Context, barcode string) (*models.InventoryRecord, error)
	CreateRecord(ctx context.Context, rec *models.InventoryRecord) error
	UpdateRecord(ctx context.Context, productID, warehouseID string, patch *models.InventoryPatch) (*models.InventoryRecord, error)
	ReserveStock(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error)
	ReleaseReserved(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error)
	CommitReserved(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error)
	RestoreReserved(ctx context.Context, productID, warehouseID string, quantity int) error
	AddQuantity(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error)
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	GetHistory(ctx context.Context, productID, warehouseID string, limit int) ([]models.HistoryEntry, error)
	ListLowStock(ctx context.Context, threshold *int, warehouseID *string) ([]models.InventoryRecord, error)
	CreateAlert(ctx context.Context, alert *models.LowStockAlert) error
	GetActiveAlert(ctx context.Context, productID, warehouseID string) (*models.LowStockAlert, error)
	ListActiveAlerts(ctx context.Context, warehouseID *string) ([]models.LowStockAlert, error)
	UpdateAlertStatus(ctx context.Context, id, status string) (*models.LowStockAlert, error)
}

// RecordCache is the advisory read-through cache surface
type RecordCache interface {
	GetRecord(ctx context.Context, productID, warehouseID string) (*models.InventoryRecord, error)
	SetRecord(ctx context.Context, rec *models.InventoryRecord) error
	InvalidateRecord(ctx context.Context, productID, warehouseID string) error
}

// EventPublisher publishes domain events to the broker, best-effort
type EventPublisher interface {
	PublishInventoryUpdated(ctx context.Context, rec *models.InventoryRecord) error
	PublishLowStockAlert(ctx context.Context, alert *models.LowStockAlert) error
	PublishReservationExpired(ctx context.Context, res *models.Reservation) error
	PublishTransferCompleted(ctx context.Context, tr *models.Transfer) error
}

// Notifier pushes changes to realtime subscribers, best-effort
type Notifier interface {
	EmitInventoryUpdate(rec *models.InventoryRecord)
	EmitLowStockAlert(alert *models.LowStockAlert)
}

// InventoryService owns stock counters, the history ledger and low-stock
// alerting. Reservation and transfer managers mutate stock through it so
// every change flows through the same history/alert/notify pipeline.
type InventoryService struct {
	store               InventoryStore
	cache               RecordCache
	publisher           EventPublisher
	notifier            Notifier
	defaultReorderPoint int
	logger              *zap.Logger
}

// NewInventoryService creates a new inventory service. Cache, publisher and
// notifier may be nil; the service degrades to storage-only behavior.
// defaultReorderPoint applies to records created without an explicit one.
func NewInventoryService(store InventoryStore, cache RecordCache, publisher EventPublisher, notifier Notifier, defaultReorderPoint int) *InventoryService {
	return &InventoryService{
		store:               store,
		cache:               cache,
		publisher:           publisher,
		notifier:            notifier,
		defaultReorderPoint: defaultReorderPoint,
		logger:              util.GetLogger(),
	}
}

var _ InventoryStore = (*store.Store)(nil)

// CreateInventoryRequest creates the first stock entry for a pair
type CreateInventoryRequest struct {
	ProductID    string  `json:"product_id" binding:"required"`
	WarehouseID  string  `json:"warehouse_id" binding:"required"`
	Quantity     int     `json:"quantity" binding:"min=0"`
	Barcode      *string `json:"barcode,omitempty"`
	Location     *string `json:"location,omitempty"`
	ReorderPoint *int    `json:"reorder_point,omitempty" binding:"omitempty,min=0"`
	MaxStock     *int    `json:"max_stock,omitempty"`
}

// Get returns the record for a pair, or all warehouse records for the
// product when warehouseID is nil.
func (s *InventoryService) Get(ctx context.Context, productID string, warehouseID *string) ([]models.InventoryRecord, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.Get")
	defer span.End()

	if warehouseID == nil {
		return s.store.GetRecordsByProduct(ctx, productID)
	}

	if s.cache != nil {
		if rec, err := s.cache.GetRecord(ctx, productID, *warehouseID); err == nil && rec != nil {
			util.CacheHitsTotal.Inc()
			return []models.InventoryRecord{*rec}, nil
		}
		util.CacheMissesTotal.Inc()
	}

	rec, err := s.store.GetRecord(ctx, productID, *warehouseID)
	if err != nil {
		return nil, err
	}

	s.updateCache(ctx, rec)
	return []models.InventoryRecord{*rec}, nil
}

// GetByBarcode returns the record carrying the given barcode
func (s *InventoryService) GetByBarcode(ctx context.Context, barcode string) (*models.InventoryRecord, error) {
	return s.store.GetRecordByBarcode(ctx, barcode)
}

// Create creates the inventory record for a product/warehouse pair
func (s *InventoryService) Create(ctx context.Context, req *CreateInventoryRequest) (*models.InventoryRecord, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.Create")
	defer span.End()

	if req.Quantity < 0 {
		return nil, errs.Validation("quantity must not be negative")
	}

	reorderPoint := s.defaultReorderPoint
	if req.ReorderPoint != nil {
		reorderPoint = *req.ReorderPoint
	}

	rec := &models.InventoryRecord{
		ID:           uuid.New().String(),
		ProductID:    req.ProductID,
		WarehouseID:  req.WarehouseID,
		Quantity:     req.Quantity,
		Barcode:      req.Barcode,
		Location:     req.Location,
		ReorderPoint: reorderPoint,
		MaxStock:     req.MaxStock,
	}

	if err := s.store.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}

	s.appendHistory(ctx, rec, models.ChangeTypeRestock, req.Quantity, nil, "Initial inventory creation")
	s.checkLowStock(ctx, rec.ProductID, rec.WarehouseID)
	s.afterMutation(ctx, rec)

	s.logger.Info("Inventory record created",
		zap.String("product_id", rec.ProductID),
		zap.String("warehouse_id", rec.WarehouseID),
		zap.Int("quantity", rec.Quantity))

	return rec, nil
}

// Update applies an administrative partial update. An absolute quantity
// change is ledgered as an adjustment; reserved_quantity is never touched
// on this path.
func (s *InventoryService) Update(ctx context.Context, productID, warehouseID string, patch *models.InventoryPatch) (*models.InventoryRecord, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.Update")
	defer span.End()

	existing, err := s.store.GetRecord(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.UpdateRecord(ctx, productID, warehouseID, patch)
	if err != nil {
		return nil, err
	}

	if patch.Quantity != nil && *patch.Quantity != existing.Quantity {
		s.appendHistory(ctx, rec, models.ChangeTypeAdjustment, *patch.Quantity-existing.Quantity, nil, "Manual inventory adjustment")
	}

	s.checkLowStock(ctx, productID, warehouseID)
	s.afterMutation(ctx, rec)

	return rec, nil
}

// ReserveStock places a hold via the store's conditional update, the only
// concurrency guard in the system. refID ties the ledger row back to a
// reservation or transfer.
func (s *InventoryService) ReserveStock(ctx context.Context, productID, warehouseID string, quantity int, refID *string) (*models.InventoryRecord, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.ReserveStock")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ReserveLatency.Observe(time.Since(start).Seconds())
	}()

	if quantity <= 0 {
		return nil, errs.Validation("quantity must be positive")
	}

	rec, err := s.store.ReserveStock(ctx, productID, warehouseID, quantity)
	if err != nil {
		return nil, err
	}

	s.appendHistory(ctx, rec, models.ChangeTypeReservation, -quantity, refID,
		fmt.Sprintf("Stock reserved: %d units", quantity))
	s.checkLowStock(ctx, productID, warehouseID)
	s.afterMutation(ctx, rec)

	return rec, nil
}

// ReleaseReserved returns held stock to the available pool
func (s *InventoryService) ReleaseReserved(ctx context.Context, productID, warehouseID string, quantity int, refID *string) (*models.InventoryRecord, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.ReleaseReserved")
	defer span.End()

	rec, err := s.store.ReleaseReserved(ctx, productID, warehouseID, quantity)
	if err != nil {
		return nil, err
	}

	s.appendHistory(ctx, rec, models.ChangeTypeRelease, quantity, refID,
		fmt.Sprintf("Reservation released: %d units", quantity))
	s.afterMutation(ctx, rec)

	return rec, nil
}

// TransferOut ships reserved stock out of the source warehouse: on-hand
// and reserved both drop in one conditional statement.
func (s *InventoryService) TransferOut(ctx context.Context, productID, warehouseID string, quantity int, refID *string) (*models.InventoryRecord, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.TransferOut")
	defer span.End()

	rec, err := s.store.CommitReserved(ctx, productID, warehouseID, quantity)
	if err != nil {
		return nil, err
	}

	s.appendHistory(ctx, rec, models.ChangeTypeTransferOut, -quantity, refID,
		fmt.Sprintf("Transfer out: %d units", quantity))
	s.checkLowStock(ctx, productID, warehouseID)
	s.afterMutation(ctx, rec)

	return rec, nil
}

// TransferIn lands transferred stock at the destination, creating the
// destination record on first arrival.
func (s *InventoryService) TransferIn(ctx context.Context, productID, warehouseID string, quantity int, refID *string) (*models.InventoryRecord, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.TransferIn")
	defer span.End()

	rec, err := s.store.AddQuantity(ctx, productID, warehouseID, quantity)
	if errs.IsKind(err, errs.KindNotFound) {
		rec = &models.InventoryRecord{
			ID:           uuid.New().String(),
			ProductID:    productID,
			WarehouseID:  warehouseID,
			Quantity:     quantity,
			ReorderPoint: s.defaultReorderPoint,
		}
		err = s.store.CreateRecord(ctx, rec)
	}
	if err != nil {
		return nil, err
	}

	s.appendHistory(ctx, rec, models.ChangeTypeTransferIn, quantity, refID,
		fmt.Sprintf("Transfer in: %d units", quantity))
	s.afterMutation(ctx, rec)

	return rec, nil
}

// RestoreTransferStock reverses a TransferOut when the destination write
// fails. Best-effort compensation, not transactional.
func (s *InventoryService) RestoreTransferStock(ctx context.Context, productID, warehouseID string, quantity int) error {
	return s.store.RestoreReserved(ctx, productID, warehouseID, quantity)
}

// ListLowStock returns records at or below the threshold (their own
// reorder point when threshold is nil)
func (s *InventoryService) ListLowStock(ctx context.Context, threshold *int, warehouseID *string) ([]models.InventoryRecord, error) {
	return s.store.ListLowStock(ctx, threshold, warehouseID)
}

// History returns the most recent ledger entries for a pair
func (s *InventoryService) History(ctx context.Context, productID, warehouseID string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.GetHistory(ctx, productID, warehouseID, limit)
}

// ListActiveAlerts returns unresolved alerts, lowest stock first
func (s *InventoryService) ListActiveAlerts(ctx context.Context, warehouseID *string) ([]models.LowStockAlert, error) {
	return s.store.ListActiveAlerts(ctx, warehouseID)
}

// SetAlertStatus acknowledges or resolves an alert. Alerts never
// auto-resolve on stock recovery; this is the manual path.
func (s *InventoryService) SetAlertStatus(ctx context.Context, id, status string) (*models.LowStockAlert, error) {
	switch status {
	case models.AlertStatusActive, models.AlertStatusAcknowledged, models.AlertStatusResolved:
	default:
		return nil, errs.Validation("invalid alert status: %s", status)
	}
	return s.store.UpdateAlertStatus(ctx, id, status)
}

// checkLowStock runs after every mutation that can reduce availability.
// Debounced: an existing active alert for the pair suppresses a new one.
func (s *InventoryService) checkLowStock(ctx context.Context, productID, warehouseID string) {
	rec, err := s.store.GetRecord(ctx, productID, warehouseID)
	if err != nil {
		s.logger.Warn("Low stock check failed to load record",
			zap.String("product_id", productID), zap.Error(err))
		return
	}

	if rec.AvailableQuantity > rec.ReorderPoint {
		return
	}

	existing, err := s.store.GetActiveAlert(ctx, productID, warehouseID)
	if err != nil {
		s.logger.Warn("Low stock check failed to load alerts", zap.Error(err))
		return
	}
	if existing != nil {
		return
	}

	alert := &models.LowStockAlert{
		ID:              uuid.New().String(),
		ProductID:       productID,
		WarehouseID:     warehouseID,
		CurrentQuantity: rec.AvailableQuantity,
		ReorderPoint:    rec.ReorderPoint,
		Status:          models.AlertStatusActive,
	}

	if err := s.store.CreateAlert(ctx, alert); err != nil {
		s.logger.Error("Failed to create low stock alert",
			zap.String("product_id", productID), zap.Error(err))
		return
	}

	util.LowStockAlertsTotal.Inc()
	s.logger.Warn("Low stock alert raised",
		zap.String("product_id", productID),
		zap.String("warehouse_id", warehouseID),
		zap.Int("available", rec.AvailableQuantity),
		zap.Int("reorder_point", rec.ReorderPoint))

	if s.notifier != nil {
		s.notifier.EmitLowStockAlert(alert)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishLowStockAlert(ctx, alert); err != nil {
			s.logger.Warn("Failed to publish LowStockAlert event", zap.Error(err))
		} else {
			util.EventsPublishedTotal.WithLabelValues(models.EventTypeLowStockAlert).Inc()
		}
	}
}

// appendHistory writes a ledger row; failures are logged, never propagated,
// so the already-applied stock mutation stands.
func (s *InventoryService) appendHistory(ctx context.Context, rec *models.InventoryRecord, changeType string, quantityChange int, refID *string, notes string) {
	entry := &models.HistoryEntry{
		ID:             uuid.New().String(),
		ProductID:      rec.ProductID,
		WarehouseID:    rec.WarehouseID,
		Quantity:       rec.Quantity,
		ChangeType:     changeType,
		QuantityChange: quantityChange,
		ReferenceID:    refID,
		Notes:          &notes,
	}
	if err := s.store.AppendHistory(ctx, entry); err != nil {
		s.logger.Error("Failed to append history entry",
			zap.String("product_id", rec.ProductID),
			zap.String("change_type", changeType),
			zap.Error(err))
	}
}

// afterMutation refreshes the cache and notifies subscribers. Neither step
// can fail the mutation.
func (s *InventoryService) afterMutation(ctx context.Context, rec *models.InventoryRecord) {
	s.updateCache(ctx, rec)

	if s.notifier != nil {
		s.notifier.EmitInventoryUpdate(rec)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishInventoryUpdated(ctx, rec); err != nil {
			s.logger.Warn("Failed to publish InventoryUpdated event", zap.Error(err))
		} else {
			util.EventsPublishedTotal.WithLabelValues(models.EventTypeInventoryUpdated).Inc()
		}
	}
}

func (s *InventoryService) updateCache(ctx context.Context, rec *models.InventoryRecord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetRecord(ctx, rec); err != nil {
		s.logger.Warn("Failed to update inventory cache",
			zap.String("product_id", rec.ProductID),
			zap.Error(err))
	}
}
