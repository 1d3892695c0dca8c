package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-service/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes inventory domain events. Callers treat publish
// failures as non-fatal: a lost event degrades realtime views, never a
// stock mutation.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// PublishInventoryUpdated publishes an InventoryUpdated event keyed by the
// record's product/warehouse pair so updates for one record stay ordered.
func (ep *EventPublisher) PublishInventoryUpdated(ctx context.Context, rec *models.InventoryRecord) error {
	event := &models.InventoryUpdatedEvent{
		BaseEvent: newBaseEvent(models.EventTypeInventoryUpdated),
		Record:    *rec,
	}
	key := fmt.Sprintf("inventory-%s-%s", rec.ProductID, rec.WarehouseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishLowStockAlert publishes a LowStockAlert event
func (ep *EventPublisher) PublishLowStockAlert(ctx context.Context, alert *models.LowStockAlert) error {
	event := &models.LowStockAlertEvent{
		BaseEvent: newBaseEvent(models.EventTypeLowStockAlert),
		Alert:     *alert,
	}
	key := fmt.Sprintf("alert-%s-%s", alert.ProductID, alert.WarehouseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishReservationExpired publishes a ReservationExpired event
func (ep *EventPublisher) PublishReservationExpired(ctx context.Context, res *models.Reservation) error {
	event := &models.ReservationExpiredEvent{
		BaseEvent:     newBaseEvent(models.EventTypeReservationExpired),
		ReservationID: res.ID,
		ProductID:     res.ProductID,
		WarehouseID:   res.WarehouseID,
		Quantity:      res.Quantity,
	}
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("reservation-%s", res.ID), event)
}

// PublishTransferCompleted publishes a TransferCompleted event
func (ep *EventPublisher) PublishTransferCompleted(ctx context.Context, tr *models.Transfer) error {
	event := &models.TransferCompletedEvent{
		BaseEvent: newBaseEvent(models.EventTypeTransferCompleted),
		Transfer:  *tr,
	}
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("transfer-%s", tr.ID), event)
}

// EventHandler routes consumed events to registered callbacks
type EventHandler struct {
	onInventoryUpdated func(context.Context, *models.InventoryUpdatedEvent) error
	onLowStockAlert    func(context.Context, *models.LowStockAlertEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnInventoryUpdated registers a handler for InventoryUpdated events
func (eh *EventHandler) OnInventoryUpdated(handler func(context.Context, *models.InventoryUpdatedEvent) error) {
	eh.onInventoryUpdated = handler
}

// OnLowStockAlert registers a handler for LowStockAlert events
func (eh *EventHandler) OnLowStockAlert(handler func(context.Context, *models.LowStockAlertEvent) error) {
	eh.onLowStockAlert = handler
}

// HandleMessage routes messages to the appropriate handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeInventoryUpdated:
		if eh.onInventoryUpdated != nil {
			var event models.InventoryUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal InventoryUpdated event: %w", err)
			}
			return eh.onInventoryUpdated(ctx, &event)
		}

	case models.EventTypeLowStockAlert:
		if eh.onLowStockAlert != nil {
			var event models.LowStockAlertEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal LowStockAlert event: %w", err)
			}
			return eh.onLowStockAlert(ctx, &event)
		}
	}

	return nil
}
