package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the closed set of user roles that drive authorization.
type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleHost, RoleAdmin:
		return true
	}
	return false
}

// User represents an account on the platform
type User struct {
	ID           uuid.UUID `db:"user_id" json:"user_id"`
	Username     string    `db:"username" json:"username"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        string    `db:"email" json:"email"`
	PhoneNumber  *string   `db:"phone_number" json:"phone_number"`
	Role         Role      `db:"role" json:"role"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Listing represents a bookable property owned by a host
type Listing struct {
	ID            uuid.UUID       `db:"listing_id" json:"listing_id"`
	HostID        uuid.UUID       `db:"host_id" json:"host"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description"`
	Location      string          `db:"location" json:"location"`
	PricePerNight decimal.Decimal `db:"price_per_night" json:"price_per_night"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`

	Bookings []Booking `db:"-" json:"bookings,omitempty"`
}

// Booking represents a guest's reservation of a listing
type Booking struct {
	ID         uuid.UUID       `db:"booking_id" json:"booking_id"`
	ListingID  uuid.UUID       `db:"listing_id" json:"listing"`
	UserID     uuid.UUID       `db:"user_id" json:"user"`
	StartDate  Date            `db:"start_date" json:"start_date"`
	EndDate    Date            `db:"end_date" json:"end_date"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
	Status     BookingStatus   `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Review represents a user's rating of a listing
type Review struct {
	ID        uuid.UUID `db:"review_id" json:"review_id"`
	ListingID uuid.UUID `db:"listing_id" json:"listing"`
	UserID    uuid.UUID `db:"user_id" json:"user"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Payment tracks one charge attempt against a booking
type Payment struct {
	ID          uuid.UUID       `db:"payment_id" json:"payment_id"`
	TxRef       string          `db:"tx_ref" json:"tx_ref"`
	BookingID   uuid.UUID       `db:"booking_id" json:"booking"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      PaymentStatus   `db:"status" json:"status"`
	CheckoutURL string          `db:"checkout_url" json:"checkout_url,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

// Booking statuses
const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// PaymentStatus is the lifecycle state of a payment
type PaymentStatus string

// Payment statuses
const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// Review rating bounds and comment length
const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 250
)

// MaxAmount bounds every stored money value: NUMERIC(10, 2) holds
// magnitudes strictly below it.
var MaxAmount = decimal.New(1, 8)

// AmountInRange reports whether d fits a money column.
func AmountInRange(d decimal.Decimal) bool {
	return d.Abs().LessThan(MaxAmount)
}

// BookingTotal returns the price of staying from start to end at the given
// nightly rate. The result is rounded to cents.
func BookingTotal(pricePerNight decimal.Decimal, start, end Date) decimal.Decimal {
	nights := end.DaysSince(start)
	return pricePerNight.Mul(decimal.NewFromInt(int64(nights))).Round(2)
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
