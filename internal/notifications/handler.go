package notifications

import (
	"context"
	"fmt"

	"driveshare/pkg/kafka"
	"driveshare/pkg/logger"
)

// EventHandler consumes booking lifecycle events and routes them to the
// notification channels for each party. Delivery channels are logged
// stubs for now; the consumer loop, retries, and DLQ routing are real.
type EventHandler struct {
	log *logger.Logger
}

func NewEventHandler(log *logger.Logger) *EventHandler {
	return &EventHandler{log: log}
}

// Handle satisfies kafka.MessageHandler.
func (h *EventHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("failed to decode booking event: %w", err)
	}

	switch event.EventType {
	case EventBookingCreated:
		h.notifyOwner(event, "New booking request for your vehicle")
	case EventBookingUpdated:
		h.notifyOwner(event, "A pending booking for your vehicle was updated")
	case EventBookingApproved:
		h.notifyCustomer(event, "Your booking was approved")
	case EventBookingRejected:
		h.notifyCustomer(event, "Your booking was rejected")
	case EventBookingCancelled:
		h.notifyOwner(event, "A booking for your vehicle was cancelled")
	default:
		h.log.Warn("Unknown booking event type",
			"event_type", event.EventType,
			"booking_id", event.BookingID,
		)
	}

	return nil
}

func (h *EventHandler) notifyOwner(event BookingEvent, message string) {
	h.log.Info("Notifying owner",
		"owner_id", event.OwnerID,
		"booking_id", event.BookingID,
		"vehicle_id", event.VehicleID,
		"message", message,
	)
}

func (h *EventHandler) notifyCustomer(event BookingEvent, message string) {
	h.log.Info("Notifying customer",
		"customer_id", event.CustomerID,
		"booking_id", event.BookingID,
		"vehicle_id", event.VehicleID,
		"message", message,
	)
}
