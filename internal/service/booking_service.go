package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"travel-service/internal/models"
	"travel-service/internal/policy"
	"travel-service/internal/store"
	"travel-service/internal/util"
)

// BookingService handles booking business logic
type BookingService struct {
	bookings       BookingStore
	eventPublisher EventPublisher
	policy         policy.BookingPolicy
	logger         *zap.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(bookings BookingStore, eventPublisher EventPublisher) *BookingService {
	return &BookingService{
		bookings:       bookings,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// BookingInput is the body of POST and PUT /bookings. total_price is not
// accepted; it is derived from the listing.
type BookingInput struct {
	Listing   *uuid.UUID           `json:"listing" binding:"required"`
	StartDate *models.Date         `json:"start_date" binding:"required"`
	EndDate   *models.Date         `json:"end_date" binding:"required"`
	Status    models.BookingStatus `json:"status" binding:"omitempty,oneof=pending cancelled"`
}

// BookingPatch is the body of PATCH /bookings/:id
type BookingPatch struct {
	Listing   *uuid.UUID            `json:"listing"`
	StartDate *models.Date          `json:"start_date"`
	EndDate   *models.Date          `json:"end_date"`
	Status    *models.BookingStatus `json:"status" binding:"omitempty,oneof=pending cancelled"`
}

// CreateBooking books a listing for the calling guest
func (s *BookingService) CreateBooking(ctx context.Context, id policy.Identity, in *BookingInput) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	if !id.Authenticated {
		return nil, ErrUnauthenticated
	}
	if !s.policy.HasPermission(id, http.MethodPost) {
		return nil, deny(id, "booking")
	}
	if err := validateDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ListingID: *in.Listing,
		UserID:    id.UserID,
		StartDate: *in.StartDate,
		EndDate:   *in.EndDate,
		Status:    in.Status,
	}
	if err := s.bookings.CreateBooking(ctx, booking); err != nil {
		return nil, bookingWriteError(err)
	}

	util.BookingsCreatedTotal.Inc()
	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("listing_id", booking.ListingID.String()),
		zap.String("total_price", booking.TotalPrice.StringFixed(2)))

	event := &models.BookingCreatedEvent{
		BaseEvent:  models.NewBaseEvent(models.EventTypeBookingCreated),
		BookingID:  booking.ID,
		ListingID:  booking.ListingID,
		UserID:     booking.UserID,
		TotalPrice: booking.TotalPrice,
	}
	if err := s.eventPublisher.PublishBookingCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookingCreated event", zap.Error(err))
	}

	return booking, nil
}

// ListBookings returns the bookings visible to the caller: a guest's own,
// or those on a host's listings.
func (s *BookingService) ListBookings(ctx context.Context, id policy.Identity) ([]models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.ListBookings")
	defer span.End()

	if !id.Authenticated {
		return nil, ErrUnauthenticated
	}

	var (
		bookings []models.Booking
		err      error
	)
	switch policy.BookingListScope(id) {
	case policy.ScopeGuest:
		bookings, err = s.bookings.ListBookingsByGuest(ctx, id.UserID)
	case policy.ScopeHost:
		bookings, err = s.bookings.ListBookingsByHost(ctx, id.UserID)
	}
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// GetBooking returns a booking to its guest
func (s *BookingService) GetBooking(ctx context.Context, id policy.Identity, bookingID uuid.UUID) (*models.Booking, error) {
	return s.authorized(ctx, id, http.MethodGet, bookingID)
}

// ReplaceBooking overwrites the writable fields of a booking
func (s *BookingService) ReplaceBooking(ctx context.Context, id policy.Identity, bookingID uuid.UUID, in *BookingInput) (*models.Booking, error) {
	patch := &BookingPatch{
		Listing:   in.Listing,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	}
	if in.Status != "" {
		patch.Status = &in.Status
	}
	return s.UpdateBooking(ctx, id, bookingID, patch)
}

// UpdateBooking applies the non-nil fields of patch. The total is
// recomputed by the store.
func (s *BookingService) UpdateBooking(ctx context.Context, id policy.Identity, bookingID uuid.UUID, patch *BookingPatch) (*models.Booking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.UpdateBooking")
	defer span.End()

	booking, err := s.authorized(ctx, id, http.MethodPatch, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == models.BookingStatusConfirmed {
		return s.cancelConfirmed(ctx, booking, patch)
	}

	if patch.Listing != nil {
		booking.ListingID = *patch.Listing
	}
	if patch.StartDate != nil {
		booking.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		booking.EndDate = *patch.EndDate
	}
	if patch.Status != nil {
		booking.Status = *patch.Status
	}
	if err := validateDates(&booking.StartDate, &booking.EndDate); err != nil {
		return nil, err
	}

	if err := s.bookings.UpdateBooking(ctx, booking); err != nil {
		return nil, bookingWriteError(err)
	}
	return booking, nil
}

// cancelConfirmed handles a patch against a paid booking. Its listing,
// dates and price are fixed; the only allowed change is cancellation.
func (s *BookingService) cancelConfirmed(ctx context.Context, booking *models.Booking, patch *BookingPatch) (*models.Booking, error) {
	const frozen = "cannot be changed once the booking is confirmed"

	v := &ValidationError{}
	if patch.Listing != nil && *patch.Listing != booking.ListingID {
		v.Add("listing", frozen)
	}
	if patch.StartDate != nil && !patch.StartDate.Equal(booking.StartDate) {
		v.Add("start_date", frozen)
	}
	if patch.EndDate != nil && !patch.EndDate.Equal(booking.EndDate) {
		v.Add("end_date", frozen)
	}
	if patch.Status != nil && *patch.Status != models.BookingStatusConfirmed && *patch.Status != models.BookingStatusCancelled {
		v.Add("status", "a confirmed booking can only be cancelled")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	if patch.Status == nil || *patch.Status != models.BookingStatusCancelled {
		return booking, nil
	}

	changed, err := s.bookings.UpdateBookingStatus(ctx, booking.ID,
		models.BookingStatusConfirmed, models.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("booking status changed concurrently: %w", ErrConflict)
	}
	booking.Status = models.BookingStatusCancelled

	s.logger.Info("Confirmed booking cancelled", zap.String("booking_id", booking.ID.String()))
	return booking, nil
}

func bookingWriteError(err error) error {
	if errors.Is(err, store.ErrOutOfRange) {
		return NewValidationError("end_date",
			fmt.Sprintf("ensure the total price of the stay is less than %s", models.MaxAmount))
	}
	return fromStore(err, "listing")
}

// DeleteBooking removes a booking and its payments
func (s *BookingService) DeleteBooking(ctx context.Context, id policy.Identity, bookingID uuid.UUID) error {
	ctx, span := util.StartSpan(ctx, "BookingService.DeleteBooking")
	defer span.End()

	if _, err := s.authorized(ctx, id, http.MethodDelete, bookingID); err != nil {
		return err
	}
	if err := s.bookings.DeleteBooking(ctx, bookingID); err != nil {
		return fromStore(err, "booking")
	}

	s.logger.Info("Booking deleted", zap.String("booking_id", bookingID.String()))
	return nil
}

func (s *BookingService) authorized(ctx context.Context, id policy.Identity, method string, bookingID uuid.UUID) (*models.Booking, error) {
	if !id.Authenticated {
		return nil, ErrUnauthenticated
	}
	if !s.policy.HasPermission(id, method) {
		return nil, deny(id, "booking")
	}
	booking, err := s.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fromStore(err, "booking")
	}
	if !s.policy.HasObjectPermission(id, method, booking) {
		return nil, deny(id, "booking")
	}
	return booking, nil
}

// validateDates only rejects missing dates. A stay ending on or before its
// start is accepted and priced at zero or less.
func validateDates(start, end *models.Date) error {
	v := &ValidationError{}
	if start == nil || start.IsZero() {
		v.Add("start_date", "this field is required")
	}
	if end == nil || end.IsZero() {
		v.Add("end_date", "this field is required")
	}
	return v.OrNil()
}
