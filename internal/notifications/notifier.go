package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"driveshare/pkg/kafka"
	"driveshare/pkg/logger"
	"driveshare/pkg/model"
)

// Event types carried on the booking events topic.
const (
	EventBookingCreated   = "booking.created"
	EventBookingUpdated   = "booking.updated"
	EventBookingApproved  = "booking.approved"
	EventBookingRejected  = "booking.rejected"
	EventBookingCancelled = "booking.cancelled"
)

const publishTimeout = 5 * time.Second

// BookingEvent is the payload published for every lifecycle change.
// Consumers fan it out to email, push, and owner dashboards.
type BookingEvent struct {
	EventType  string    `json:"event_type"`
	BookingID  string    `json:"booking_id"`
	VehicleID  string    `json:"vehicle_id"`
	CustomerID string    `json:"customer_id"`
	OwnerID    string    `json:"owner_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier publishes booking lifecycle events. Publishing is best
// effort: a reservation must never fail because the broker is down.
type Notifier interface {
	BookingChanged(ctx context.Context, eventType string, booking *model.Booking)
}

type kafkaNotifier struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, log *logger.Logger) Notifier {
	return &kafkaNotifier{producer: producer, log: log}
}

// BookingChanged publishes fire-and-forget on a detached context so the
// caller's request lifecycle does not gate delivery. Failures are
// logged and the producer's DLQ picks up what the broker rejected.
func (n *kafkaNotifier) BookingChanged(_ context.Context, eventType string, booking *model.Booking) {
	event := BookingEvent{
		EventType:  eventType,
		BookingID:  booking.ID,
		VehicleID:  booking.VehicleID,
		CustomerID: booking.CustomerID,
		OwnerID:    booking.OwnerID,
		StartDate:  booking.StartDate,
		EndDate:    booking.EndDate,
		Status:     string(booking.Status),
		OccurredAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		msg := kafka.NewMessage().
			WithKey(booking.ID).
			WithValue(event).
			WithEventID(uuid.NewString()).
			WithEventType(eventType).
			WithSource("bookings").
			Build()

		if err := n.producer.Publish(ctx, msg); err != nil {
			n.log.Error("Failed to publish booking event",
				"event_type", eventType,
				"booking_id", booking.ID,
				"error", err,
			)
		}
	}()
}

// NoopNotifier is used when Kafka is not configured.
type NoopNotifier struct{}

func (NoopNotifier) BookingChanged(context.Context, string, *model.Booking) {}
