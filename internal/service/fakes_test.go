package service

import (
	"context"
	"sort"
	"time"

	"inventory-service/internal/errs"
	"inventory-service/internal/models"
	"inventory-service/internal/store"
)

func pairKey(productID, warehouseID string) string {
	return productID + "|" + warehouseID
}

// fakeStore is an in-memory stand-in for *store.Store. The injectable
// error fields simulate storage failures on specific operations.
type fakeStore struct {
	records      map[string]*models.InventoryRecord
	history      []models.HistoryEntry
	reservations map[string]*models.Reservation
	transfers    map[string]*models.Transfer
	alerts       map[string]*models.LowStockAlert
	sales        map[string]store.SalesAggregate

	createReservationErr error
	addQuantityErr       error
	createRecordErr      error
}

var _ InventoryStore = (*fakeStore)(nil)
var _ ReservationStore = (*fakeStore)(nil)
var _ TransferStore = (*fakeStore)(nil)
var _ ForecastStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:      make(map[string]*models.InventoryRecord),
		reservations: make(map[string]*models.Reservation),
		transfers:    make(map[string]*models.Transfer),
		alerts:       make(map[string]*models.LowStockAlert),
		sales:        make(map[string]store.SalesAggregate),
	}
}

func (f *fakeStore) seed(productID, warehouseID string, quantity, reserved, reorderPoint int) *models.InventoryRecord {
	rec := &models.InventoryRecord{
		ID:               "rec-" + pairKey(productID, warehouseID),
		ProductID:        productID,
		WarehouseID:      warehouseID,
		Quantity:         quantity,
		ReservedQuantity: reserved,
		ReorderPoint:     reorderPoint,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	rec.AvailableQuantity = rec.Quantity - rec.ReservedQuantity
	f.records[pairKey(productID, warehouseID)] = rec
	return rec
}

func (f *fakeStore) get(productID, warehouseID string) (*models.InventoryRecord, error) {
	rec, ok := f.records[pairKey(productID, warehouseID)]
	if !ok {
		return nil, errs.NotFound("inventory not found for product %s in warehouse %s", productID, warehouseID)
	}
	return rec, nil
}

func snapshot(rec *models.InventoryRecord) *models.InventoryRecord {
	out := *rec
	out.AvailableQuantity = out.Quantity - out.ReservedQuantity
	return &out
}

func (f *fakeStore) GetRecord(ctx context.Context, productID, warehouseID string) (*models.InventoryRecord, error) {
	rec, err := f.get(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return snapshot(rec), nil
}

func (f *fakeStore) GetRecordsByProduct(ctx context.Context, productID string) ([]models.InventoryRecord, error) {
	var out []models.InventoryRecord
	for _, rec := range f.records {
		if rec.ProductID == productID {
			out = append(out, *snapshot(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

func (f *fakeStore) GetRecordByBarcode(ctx context.Context, barcode string) (*models.InventoryRecord, error) {
	for _, rec := range f.records {
		if rec.Barcode != nil && *rec.Barcode == barcode {
			return snapshot(rec), nil
		}
	}
	return nil, errs.NotFound("inventory not found for barcode %s", barcode)
}

func (f *fakeStore) CreateRecord(ctx context.Context, rec *models.InventoryRecord) error {
	if f.createRecordErr != nil {
		return f.createRecordErr
	}
	key := pairKey(rec.ProductID, rec.WarehouseID)
	if _, exists := f.records[key]; exists {
		return errs.Conflict("inventory record already exists for product %s in warehouse %s", rec.ProductID, rec.WarehouseID)
	}
	stored := *rec
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()
	stored.AvailableQuantity = stored.Quantity - stored.ReservedQuantity
	f.records[key] = &stored
	*rec = *snapshot(&stored)
	return nil
}

func (f *fakeStore) UpdateRecord(ctx context.Context, productID, warehouseID string, patch *models.InventoryPatch) (*models.InventoryRecord, error) {
	rec, err := f.get(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if patch.Quantity != nil {
		rec.Quantity = *patch.Quantity
	}
	if patch.Barcode != nil {
		rec.Barcode = patch.Barcode
	}
	if patch.Location != nil {
		rec.Location = patch.Location
	}
	if patch.ReorderPoint != nil {
		rec.ReorderPoint = *patch.ReorderPoint
	}
	if patch.MaxStock != nil {
		rec.MaxStock = patch.MaxStock
	}
	rec.UpdatedAt = time.Now()
	return snapshot(rec), nil
}

func (f *fakeStore) ReserveStock(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error) {
	rec, err := f.get(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if rec.Quantity-rec.ReservedQuantity < quantity {
		return nil, errs.InsufficientStock("insufficient stock for product %s in warehouse %s", productID, warehouseID)
	}
	rec.ReservedQuantity += quantity
	return snapshot(rec), nil
}

func (f *fakeStore) ReleaseReserved(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error) {
	rec, err := f.get(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	rec.ReservedQuantity -= quantity
	if rec.ReservedQuantity < 0 {
		rec.ReservedQuantity = 0
	}
	return snapshot(rec), nil
}

func (f *fakeStore) CommitReserved(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error) {
	rec, err := f.get(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	if rec.Quantity < quantity || rec.ReservedQuantity < quantity {
		return nil, errs.InsufficientStock("cannot commit %d units for product %s in warehouse %s", quantity, productID, warehouseID)
	}
	rec.Quantity -= quantity
	rec.ReservedQuantity -= quantity
	return snapshot(rec), nil
}

func (f *fakeStore) RestoreReserved(ctx context.Context, productID, warehouseID string, quantity int) error {
	rec, err := f.get(productID, warehouseID)
	if err != nil {
		return err
	}
	rec.Quantity += quantity
	rec.ReservedQuantity += quantity
	return nil
}

func (f *fakeStore) AddQuantity(ctx context.Context, productID, warehouseID string, quantity int) (*models.InventoryRecord, error) {
	if f.addQuantityErr != nil {
		return nil, f.addQuantityErr
	}
	rec, err := f.get(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	rec.Quantity += quantity
	return snapshot(rec), nil
}

func (f *fakeStore) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	stored := *entry
	stored.CreatedAt = time.Now()
	f.history = append(f.history, stored)
	return nil
}

func (f *fakeStore) GetHistory(ctx context.Context, productID, warehouseID string, limit int) ([]models.HistoryEntry, error) {
	var out []models.HistoryEntry
	for i := len(f.history) - 1; i >= 0 && len(out) < limit; i-- {
		if f.history[i].ProductID == productID && f.history[i].WarehouseID == warehouseID {
			out = append(out, f.history[i])
		}
	}
	return out, nil
}

func (f *fakeStore) ListLowStock(ctx context.Context, threshold *int, warehouseID *string) ([]models.InventoryRecord, error) {
	var out []models.InventoryRecord
	for _, rec := range f.records {
		if warehouseID != nil && rec.WarehouseID != *warehouseID {
			continue
		}
		limit := rec.ReorderPoint
		if threshold != nil {
			limit = *threshold
		}
		if rec.Quantity-rec.ReservedQuantity <= limit {
			out = append(out, *snapshot(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AvailableQuantity < out[j].AvailableQuantity })
	return out, nil
}

func (f *fakeStore) CreateAlert(ctx context.Context, alert *models.LowStockAlert) error {
	for _, existing := range f.alerts {
		if existing.ProductID == alert.ProductID && existing.WarehouseID == alert.WarehouseID &&
			existing.Status == models.AlertStatusActive {
			existing.Status = models.AlertStatusResolved
		}
	}
	stored := *alert
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()
	f.alerts[stored.ID] = &stored
	return nil
}

func (f *fakeStore) GetActiveAlert(ctx context.Context, productID, warehouseID string) (*models.LowStockAlert, error) {
	for _, alert := range f.alerts {
		if alert.ProductID == productID && alert.WarehouseID == warehouseID &&
			alert.Status == models.AlertStatusActive {
			out := *alert
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListActiveAlerts(ctx context.Context, warehouseID *string) ([]models.LowStockAlert, error) {
	var out []models.LowStockAlert
	for _, alert := range f.alerts {
		if alert.Status != models.AlertStatusActive {
			continue
		}
		if warehouseID != nil && alert.WarehouseID != *warehouseID {
			continue
		}
		out = append(out, *alert)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrentQuantity < out[j].CurrentQuantity })
	return out, nil
}

func (f *fakeStore) UpdateAlertStatus(ctx context.Context, id, status string) (*models.LowStockAlert, error) {
	alert, ok := f.alerts[id]
	if !ok {
		return nil, errs.NotFound("alert %s not found", id)
	}
	alert.Status = status
	alert.UpdatedAt = time.Now()
	out := *alert
	return &out, nil
}

func (f *fakeStore) CreateReservation(ctx context.Context, res *models.Reservation) error {
	if f.createReservationErr != nil {
		return f.createReservationErr
	}
	stored := *res
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()
	f.reservations[stored.ID] = &stored
	return nil
}

func (f *fakeStore) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	res, ok := f.reservations[id]
	if !ok {
		return nil, errs.NotFound("reservation %s not found", id)
	}
	out := *res
	return &out, nil
}

func (f *fakeStore) UpdateReservationStatus(ctx context.Context, id, status string) (*models.Reservation, error) {
	res, ok := f.reservations[id]
	if !ok {
		return nil, errs.NotFound("reservation %s not found", id)
	}
	res.Status = status
	res.UpdatedAt = time.Now()
	out := *res
	return &out, nil
}

func (f *fakeStore) ListExpiredPending(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, res := range f.reservations {
		if res.Status == models.ReservationStatusPending && res.ExpiresAt.Before(now) {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (f *fakeStore) ListReservationsByOrderID(ctx context.Context, orderID string) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, res := range f.reservations {
		if res.OrderID != nil && *res.OrderID == orderID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPendingBySessionID(ctx context.Context, sessionID string) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, res := range f.reservations {
		if res.SessionID != nil && *res.SessionID == sessionID && res.Status == models.ReservationStatusPending {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateTransfer(ctx context.Context, tr *models.Transfer) error {
	stored := *tr
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()
	f.transfers[stored.ID] = &stored
	return nil
}

func (f *fakeStore) GetTransfer(ctx context.Context, id string) (*models.Transfer, error) {
	tr, ok := f.transfers[id]
	if !ok {
		return nil, errs.NotFound("transfer %s not found", id)
	}
	out := *tr
	return &out, nil
}

func (f *fakeStore) UpdateTransferStatus(ctx context.Context, id, status string) (*models.Transfer, error) {
	tr, ok := f.transfers[id]
	if !ok {
		return nil, errs.NotFound("transfer %s not found", id)
	}
	tr.Status = status
	tr.UpdatedAt = time.Now()
	if status == models.TransferStatusCompleted {
		now := time.Now()
		tr.CompletedAt = &now
	}
	out := *tr
	return &out, nil
}

func (f *fakeStore) GetSalesAggregate(ctx context.Context, productID, warehouseID string, since time.Time) (*store.SalesAggregate, error) {
	agg := f.sales[pairKey(productID, warehouseID)]
	return &agg, nil
}

func (f *fakeStore) ListStockedPairs(ctx context.Context, warehouseID *string) ([]store.StockedPair, error) {
	var out []store.StockedPair
	for _, rec := range f.records {
		if warehouseID != nil && rec.WarehouseID != *warehouseID {
			continue
		}
		out = append(out, store.StockedPair{ProductID: rec.ProductID, WarehouseID: rec.WarehouseID})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID+out[i].WarehouseID < out[j].ProductID+out[j].WarehouseID
	})
	return out, nil
}

func newTestInventoryService(fs *fakeStore) *InventoryService {
	return NewInventoryService(fs, nil, nil, nil, 10)
}
