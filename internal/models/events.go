package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeBookingCreated   = "BOOKING_CREATED"
	EventTypeBookingConfirmed = "BOOKING_CONFIRMED"
	EventTypePaymentInitiated = "PAYMENT_INITIATED"
	EventTypePaymentSuccess   = "PAYMENT_SUCCESS"
	EventTypePaymentFailed    = "PAYMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event id and the current time.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// BookingCreatedEvent published when a guest books a listing
type BookingCreatedEvent struct {
	BaseEvent
	BookingID  uuid.UUID       `json:"booking_id"`
	ListingID  uuid.UUID       `json:"listing_id"`
	UserID     uuid.UUID       `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// BookingConfirmedEvent published once a paid booking is confirmed
type BookingConfirmedEvent struct {
	BaseEvent
	BookingID uuid.UUID `json:"booking_id"`
	TxRef     string    `json:"tx_ref"`
}

// PaymentInitiatedEvent published after the provider accepts a transaction
type PaymentInitiatedEvent struct {
	BaseEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	BookingID uuid.UUID       `json:"booking_id"`
	TxRef     string          `json:"tx_ref"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentSuccessEvent published when verification reports success
type PaymentSuccessEvent struct {
	BaseEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	BookingID uuid.UUID       `json:"booking_id"`
	TxRef     string          `json:"tx_ref"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentFailedEvent published when verification reports failure
type PaymentFailedEvent struct {
	BaseEvent
	PaymentID uuid.UUID `json:"payment_id"`
	BookingID uuid.UUID `json:"booking_id"`
	TxRef     string    `json:"tx_ref"`
	Reason    string    `json:"reason"`
}
