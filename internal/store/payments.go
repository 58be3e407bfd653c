package store

import (
	"context"

	"github.com/google/uuid"

	"travel-service/internal/models"
)

// CreatePayment creates a new payment record
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}

	query := `
		INSERT INTO payments (payment_id, tx_ref, booking_id, amount, status, checkout_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		payment.ID, payment.TxRef, payment.BookingID, payment.Amount,
		payment.Status, payment.CheckoutURL)
	return translate(row.Scan(&payment.CreatedAt, &payment.UpdatedAt), "payment")
}

// GetPaymentByID retrieves a payment by ID
func (s *Store) GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment, "SELECT * FROM payments WHERE payment_id = $1", id)
	if err != nil {
		return nil, translate(err, "payment")
	}
	return &payment, nil
}

// GetPaymentByTxRef retrieves a payment by its provider correlation id
func (s *Store) GetPaymentByTxRef(ctx context.Context, txRef string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment, "SELECT * FROM payments WHERE tx_ref = $1", txRef)
	if err != nil {
		return nil, translate(err, "payment")
	}
	return &payment, nil
}

// ListPaymentsByBooking retrieves every payment attempt of a booking
func (s *Store) ListPaymentsByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := s.db.SelectContext(ctx, &payments,
		"SELECT * FROM payments WHERE booking_id = $1 ORDER BY created_at DESC", bookingID)
	return payments, err
}

// TransitionPayment moves a pending payment to a terminal status. It
// reports false and leaves the row untouched when the payment is no
// longer pending.
func (s *Store) TransitionPayment(ctx context.Context, id uuid.UUID, to models.PaymentStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE payments SET status = $1, updated_at = NOW() WHERE payment_id = $2 AND status = $3",
		to, id, models.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
