package service

import (
	"context"
	"errors"
	"testing"

	"inventory-service/internal/errs"
	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransferService(fs *fakeStore) *TransferService {
	return NewTransferService(fs, newTestInventoryService(fs), nil)
}

func TestTransferCreateValidation(t *testing.T) {
	fs := newFakeStore()
	fs.seed("prod-1", "wh-1", 100, 0, 10)
	svc := newTestTransferService(fs)

	_, err := svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-1",
		Quantity:        10,
	})
	assert.True(t, errs.IsKind(err, errs.KindValidation))

	_, err = svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        0,
	})
	assert.True(t, errs.IsKind(err, errs.KindValidation))

	_, err = svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        101,
	})
	assert.True(t, errs.IsKind(err, errs.KindInsufficientStock))
}

func TestTransferStart(t *testing.T) {
	fs := newFakeStore()
	fs.seed("prod-1", "wh-1", 100, 0, 10)
	svc := newTestTransferService(fs)

	tr, err := svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        20,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusPending, tr.Status)

	// Pending transfers hold nothing yet.
	rec, err := fs.GetRecord(context.Background(), "prod-1", "wh-1")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ReservedQuantity)

	started, err := svc.Start(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusInTransit, started.Status)

	rec, err = fs.GetRecord(context.Background(), "prod-1", "wh-1")
	require.NoError(t, err)
	assert.Equal(t, 20, rec.ReservedQuantity)
	assert.Equal(t, 80, rec.AvailableQuantity)

	// Starting again trips the state-machine guard.
	_, err = svc.Start(context.Background(), tr.ID)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestTransferStartInsufficientStock(t *testing.T) {
	fs := newFakeStore()
	fs.seed("prod-1", "wh-1", 100, 0, 10)
	svc := newTestTransferService(fs)

	tr, err := svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        80,
	})
	require.NoError(t, err)

	// The stock is gone by the time the transfer starts.
	_, err = fs.ReserveStock(context.Background(), "prod-1", "wh-1", 30)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), tr.ID)
	assert.True(t, errs.IsKind(err, errs.KindInsufficientStock))

	got, err := svc.Get(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusPending, got.Status)
}

func TestTransferCompleteConservesTotalStock(t *testing.T) {
	fs := newFakeStore()
	fs.seed("prod-1", "wh-1", 100, 0, 10)
	svc := newTestTransferService(fs)

	tr, err := svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        20,
	})
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), tr.ID)
	require.NoError(t, err)

	completed, err := svc.Complete(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	source, err := fs.GetRecord(context.Background(), "prod-1", "wh-1")
	require.NoError(t, err)
	assert.Equal(t, 80, source.Quantity)
	assert.Equal(t, 0, source.ReservedQuantity)
	assert.Equal(t, 80, source.AvailableQuantity)

	// Destination record is created on first arrival.
	dest, err := fs.GetRecord(context.Background(), "prod-1", "wh-2")
	require.NoError(t, err)
	assert.Equal(t, 20, dest.Quantity)
	assert.Equal(t, 0, dest.ReservedQuantity)

	assert.Equal(t, 100, source.Quantity+dest.Quantity, "transfer must conserve total stock")
}

func TestTransferCompleteIntoExistingRecord(t *testing.T) {
	fs := newFakeStore()
	fs.seed("prod-1", "wh-1", 100, 0, 10)
	fs.seed("prod-1", "wh-2", 40, 0, 10)
	svc := newTestTransferService(fs)

	tr, err := svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        25,
	})
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), tr.ID)
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), tr.ID)
	require.NoError(t, err)

	dest, err := fs.GetRecord(context.Background(), "prod-1", "wh-2")
	require.NoError(t, err)
	assert.Equal(t, 65, dest.Quantity)
}

func TestTransferCompleteDestinationFailureRestoresSource(t *testing.T) {
	fs := newFakeStore()
	fs.seed("prod-1", "wh-1", 100, 0, 10)
	svc := newTestTransferService(fs)

	tr, err := svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        20,
	})
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), tr.ID)
	require.NoError(t, err)

	fs.createRecordErr = errors.New("connection reset")

	_, err = svc.Complete(context.Background(), tr.ID)
	require.Error(t, err)

	// Source holds the stock again so the transfer can retry or cancel.
	source, err := fs.GetRecord(context.Background(), "prod-1", "wh-1")
	require.NoError(t, err)
	assert.Equal(t, 100, source.Quantity)
	assert.Equal(t, 20, source.ReservedQuantity)

	got, err := svc.Get(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusInTransit, got.Status)

	// Retry succeeds once the destination recovers.
	fs.createRecordErr = nil
	_, err = svc.Complete(context.Background(), tr.ID)
	require.NoError(t, err)

	source, err = fs.GetRecord(context.Background(), "prod-1", "wh-1")
	require.NoError(t, err)
	dest, err := fs.GetRecord(context.Background(), "prod-1", "wh-2")
	require.NoError(t, err)
	assert.Equal(t, 100, source.Quantity+dest.Quantity)
}

func TestTransferCompleteRequiresInTransit(t *testing.T) {
	fs := newFakeStore()
	fs.seed("prod-1", "wh-1", 100, 0, 10)
	svc := newTestTransferService(fs)

	tr, err := svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        20,
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), tr.ID)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestTransferCancelPending(t *testing.T) {
	fs := newFakeStore()
	fs.seed("prod-1", "wh-1", 100, 0, 10)
	svc := newTestTransferService(fs)

	tr, err := svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        20,
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusCancelled, cancelled.Status)

	rec, err := fs.GetRecord(context.Background(), "prod-1", "wh-1")
	require.NoError(t, err)
	assert.Equal(t, 100, rec.Quantity)
	assert.Equal(t, 0, rec.ReservedQuantity)
}

func TestTransferCancelInTransitReleasesHold(t *testing.T) {
	fs := newFakeStore()
	fs.seed("prod-1", "wh-1", 100, 0, 10)
	svc := newTestTransferService(fs)

	tr, err := svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        20,
	})
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), tr.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), tr.ID)
	require.NoError(t, err)

	rec, err := fs.GetRecord(context.Background(), "prod-1", "wh-1")
	require.NoError(t, err)
	assert.Equal(t, 100, rec.Quantity)
	assert.Equal(t, 0, rec.ReservedQuantity)
	assert.Equal(t, 100, rec.AvailableQuantity)
}

func TestTransferCancelTerminalStates(t *testing.T) {
	fs := newFakeStore()
	fs.seed("prod-1", "wh-1", 100, 0, 10)
	svc := newTestTransferService(fs)

	tr, err := svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        20,
	})
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), tr.ID)
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), tr.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), tr.ID)
	assert.True(t, errs.IsKind(err, errs.KindValidation))

	tr2, err := svc.Create(context.Background(), &TransferRequest{
		ProductID:       "prod-1",
		FromWarehouseID: "wh-1",
		ToWarehouseID:   "wh-2",
		Quantity:        10,
	})
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), tr2.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), tr2.ID)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}
