package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"travel-service/internal/models"
)

// CreateBooking inserts a booking. TotalPrice is always recomputed from the
// listing's nightly price inside the transaction; any value on the
// argument is overwritten.
func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusPending
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	price, err := listingPriceForUpdate(ctx, tx, booking.ListingID)
	if err != nil {
		return err
	}
	if booking.TotalPrice, err = bookingTotal(price, booking); err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (booking_id, listing_id, user_id, start_date, end_date, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err = tx.GetContext(ctx, &booking.CreatedAt, query,
		booking.ID, booking.ListingID, booking.UserID, booking.StartDate,
		booking.EndDate, booking.TotalPrice, booking.Status)
	if err != nil {
		return translate(err, "booking")
	}

	return tx.Commit()
}

// UpdateBooking writes the mutable booking fields and recomputes TotalPrice
// against the (possibly changed) listing.
func (s *Store) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	price, err := listingPriceForUpdate(ctx, tx, booking.ListingID)
	if err != nil {
		return err
	}
	if booking.TotalPrice, err = bookingTotal(price, booking); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET listing_id = $1, start_date = $2, end_date = $3, total_price = $4, status = $5
		WHERE booking_id = $6`,
		booking.ListingID, booking.StartDate, booking.EndDate,
		booking.TotalPrice, booking.Status, booking.ID)
	if err != nil {
		return translate(err, "booking")
	}
	if err := requireAffected(res, "booking"); err != nil {
		return err
	}

	return tx.Commit()
}

func bookingTotal(price decimal.Decimal, booking *models.Booking) (decimal.Decimal, error) {
	total := models.BookingTotal(price, booking.StartDate, booking.EndDate)
	if !models.AmountInRange(total) {
		return decimal.Zero, fmt.Errorf("booking total %s: %w", total, ErrOutOfRange)
	}
	return total, nil
}

// listingPriceForUpdate reads the nightly price and holds the listing row
// so a concurrent price change cannot interleave with the booking write.
func listingPriceForUpdate(ctx context.Context, tx *sqlx.Tx, listingID uuid.UUID) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := tx.GetContext(ctx, &price,
		"SELECT price_per_night FROM listings WHERE listing_id = $1 FOR SHARE", listingID)
	if err != nil {
		return decimal.Zero, translate(err, fmt.Sprintf("listing %s", listingID))
	}
	return price, nil
}

// GetBookingByID retrieves a booking by ID
func (s *Store) GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.GetContext(ctx, &booking, "SELECT * FROM bookings WHERE booking_id = $1", id)
	if err != nil {
		return nil, translate(err, "booking")
	}
	return &booking, nil
}

// GetBookingTotalPrice returns only the total price of a booking
func (s *Store) GetBookingTotalPrice(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.GetContext(ctx, &total, "SELECT total_price FROM bookings WHERE booking_id = $1", id)
	if err != nil {
		return decimal.Zero, translate(err, "booking")
	}
	return total, nil
}

// ListBookingsByGuest retrieves the bookings made by a guest
func (s *Store) ListBookingsByGuest(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	bookings := []models.Booking{}
	err := s.db.SelectContext(ctx, &bookings,
		"SELECT * FROM bookings WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return bookings, err
}

// ListBookingsByHost retrieves the bookings on any listing owned by a host
func (s *Store) ListBookingsByHost(ctx context.Context, hostID uuid.UUID) ([]models.Booking, error) {
	bookings := []models.Booking{}
	err := s.db.SelectContext(ctx, &bookings, `
		SELECT b.* FROM bookings b
		JOIN listings l ON l.listing_id = b.listing_id
		WHERE l.host_id = $1
		ORDER BY b.created_at DESC`, hostID)
	return bookings, err
}

// ListBookingsByListing retrieves the bookings of a single listing
func (s *Store) ListBookingsByListing(ctx context.Context, listingID uuid.UUID) ([]models.Booking, error) {
	bookings := []models.Booking{}
	err := s.db.SelectContext(ctx, &bookings,
		"SELECT * FROM bookings WHERE listing_id = $1 ORDER BY start_date", listingID)
	return bookings, err
}

// UpdateBookingStatus moves a booking from one status to another. It
// reports false when the booking was not in the expected status.
func (s *Store) UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bookings SET status = $1 WHERE booking_id = $2 AND status = $3",
		to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteBooking removes a booking; its payments cascade
func (s *Store) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bookings WHERE booking_id = $1", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "booking")
}
