package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"rxmatch-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPrescriptionCreated publishes a PrescriptionCreated event
func (ep *EventPublisher) PublishPrescriptionCreated(ctx context.Context, event *models.PrescriptionCreatedEvent) error {
	key := fmt.Sprintf("prescription-%d", event.PrescriptionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishMedicineMatched publishes a MedicineMatched event
func (ep *EventPublisher) PublishMedicineMatched(ctx context.Context, event *models.MedicineMatchedEvent) error {
	key := fmt.Sprintf("prescription-%d", event.PrescriptionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishMatchNotified publishes a MatchNotified event
func (ep *EventPublisher) PublishMatchNotified(ctx context.Context, event *models.MatchNotifiedEvent) error {
	key := fmt.Sprintf("prescription-%d", event.PrescriptionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onMedicineMatched func(context.Context, *models.MedicineMatchedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnMedicineMatched registers a handler for MedicineMatched events
func (eh *EventHandler) OnMedicineMatched(handler func(context.Context, *models.MedicineMatchedEvent) error) {
	eh.onMedicineMatched = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeMedicineMatched:
		if eh.onMedicineMatched != nil {
			var event models.MedicineMatchedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal MedicineMatched event: %w", err)
			}
			return eh.onMedicineMatched(ctx, &event)
		}

	case models.EventTypePrescriptionCreated, models.EventTypeMatchNotified:
		// Informational only, nothing subscribes in-process.

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
