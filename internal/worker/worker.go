package worker

import (
	"context"
	"time"

	"inventory-service/internal/broker"
	"inventory-service/internal/models"
	"inventory-service/internal/service"
	"inventory-service/internal/util"
	"inventory-service/internal/ws"

	"go.uber.org/zap"
)

// SweepWorker periodically expires stale reservations. One recurring
// ticker bounds resource usage regardless of reservation volume; a
// reservation can hold stock for up to one interval past its expiry.
type SweepWorker struct {
	reservations *service.ReservationService
	interval     time.Duration
	logger       *zap.Logger
}

// NewSweepWorker creates a new sweep worker
func NewSweepWorker(reservations *service.ReservationService, interval time.Duration) *SweepWorker {
	return &SweepWorker{
		reservations: reservations,
		interval:     interval,
		logger:       util.GetLogger(),
	}
}

// Start runs the sweep loop until the context is cancelled
func (w *SweepWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting reservation sweep worker",
		zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Sweep worker stopping")
			return ctx.Err()
		case <-ticker.C:
			count, err := w.reservations.ExpireSweep(ctx)
			if err != nil {
				w.logger.Error("Reservation sweep failed", zap.Error(err))
				continue
			}
			if count > 0 {
				w.logger.Info("Reservation sweep completed", zap.Int("expired", count))
			}
		}
	}
}

// NotifyWorker consumes inventory events from the broker and relays them
// to websocket subscribers. Strictly best-effort on both ends.
type NotifyWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotifyWorker creates a new notification relay worker
func NewNotifyWorker(consumer *broker.Consumer, hub *ws.Hub) *NotifyWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnInventoryUpdated(func(ctx context.Context, event *models.InventoryUpdatedEvent) error {
		hub.EmitInventoryUpdate(&event.Record)
		return nil
	})
	eventHandler.OnLowStockAlert(func(ctx context.Context, event *models.LowStockAlertEvent) error {
		hub.EmitLowStockAlert(&event.Alert)
		return nil
	})

	return &NotifyWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start starts the relay loop
func (w *NotifyWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification relay worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the underlying consumer
func (w *NotifyWorker) Stop() error {
	w.logger.Info("Stopping notification relay worker")
	return w.consumer.Close()
}
