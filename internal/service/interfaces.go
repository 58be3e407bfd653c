package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"travel-service/internal/chapa"
	"travel-service/internal/models"
)

// The store interfaces below are satisfied by *store.Store and by the
// in-memory store in internal/testutil.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type ListingStore interface {
	CreateListing(ctx context.Context, listing *models.Listing) error
	GetListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListings(ctx context.Context) ([]models.Listing, error)
	UpdateListing(ctx context.Context, listing *models.Listing) error
	DeleteListing(ctx context.Context, id uuid.UUID) error
}

type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetBookingTotalPrice(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	ListBookingsByGuest(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	ListBookingsByHost(ctx context.Context, hostID uuid.UUID) ([]models.Booking, error)
	ListBookingsByListing(ctx context.Context, listingID uuid.UUID) ([]models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (bool, error)
	DeleteBooking(ctx context.Context, id uuid.UUID) error
}

type ReviewStore interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListReviews(ctx context.Context, listingID *uuid.UUID) ([]models.Review, error)
	UpdateReview(ctx context.Context, review *models.Review) error
	DeleteReview(ctx context.Context, id uuid.UUID) error
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetPaymentByTxRef(ctx context.Context, txRef string) (*models.Payment, error)
	TransitionPayment(ctx context.Context, id uuid.UUID, to models.PaymentStatus) (bool, error)
}

type EventLedger interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// IdempotencyStore is backed by Redis in production
type IdempotencyStore interface {
	GetIdempotencyKey(ctx context.Context, key string) (string, bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value string, ttl time.Duration) error
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// RefreshTokenStore tracks live refresh tokens by their jti
type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, jti, userID string, ttl time.Duration) error
	RefreshTokenOwner(ctx context.Context, jti string) (string, bool, error)
	RevokeRefreshToken(ctx context.Context, jti string) error
}

// EventPublisher emits domain events; implemented by broker.EventPublisher
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, event *models.BookingCreatedEvent) error
	PublishBookingConfirmed(ctx context.Context, event *models.BookingConfirmedEvent) error
	PublishPaymentInitiated(ctx context.Context, event *models.PaymentInitiatedEvent) error
	PublishPaymentSuccess(ctx context.Context, event *models.PaymentSuccessEvent) error
	PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error
}

// PaymentGateway is the external payment provider; implemented by
// *chapa.Client
type PaymentGateway interface {
	Initialize(ctx context.Context, req chapa.InitializeRequest) (*chapa.Response, error)
	Verify(ctx context.Context, txRef string) (*chapa.Response, error)
}
