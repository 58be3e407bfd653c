package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"travel-service/internal/models"
	"travel-service/internal/util"
)

// BookingConfirmer reacts to settled payments: a successful payment
// confirms its booking, a failed one leaves it pending so the guest can pay
// again.
type BookingConfirmer struct {
	bookings       BookingStore
	ledger         EventLedger
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewBookingConfirmer creates a new booking confirmer
func NewBookingConfirmer(bookings BookingStore, ledger EventLedger, eventPublisher EventPublisher) *BookingConfirmer {
	return &BookingConfirmer{
		bookings:       bookings,
		ledger:         ledger,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// HandlePaymentSuccess confirms the paid booking
func (bc *BookingConfirmer) HandlePaymentSuccess(ctx context.Context, event *models.PaymentSuccessEvent) error {
	ctx, span := util.StartSpan(ctx, "BookingConfirmer.HandlePaymentSuccess")
	defer span.End()

	processed, err := bc.ledger.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		bc.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	bc.logger.Info("Handling payment success",
		zap.String("booking_id", event.BookingID.String()),
		zap.String("tx_ref", event.TxRef))

	changed, err := bc.bookings.UpdateBookingStatus(ctx, event.BookingID,
		models.BookingStatusPending, models.BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}

	if changed {
		util.BookingsConfirmedTotal.Inc()
		confirmed := &models.BookingConfirmedEvent{
			BaseEvent: models.NewBaseEvent(models.EventTypeBookingConfirmed),
			BookingID: event.BookingID,
			TxRef:     event.TxRef,
		}
		if err := bc.eventPublisher.PublishBookingConfirmed(ctx, confirmed); err != nil {
			bc.logger.Error("Failed to publish BookingConfirmed event", zap.Error(err))
		}
		bc.logger.Info("Booking confirmed", zap.String("booking_id", event.BookingID.String()))
	} else {
		// Already confirmed or cancelled, or deleted since the payment.
		bc.logger.Info("Booking not pending, left as is", zap.String("booking_id", event.BookingID.String()))
	}

	return bc.markProcessed(ctx, event.BaseEvent)
}

// HandlePaymentFailed records the failure; the booking stays pending
func (bc *BookingConfirmer) HandlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	ctx, span := util.StartSpan(ctx, "BookingConfirmer.HandlePaymentFailed")
	defer span.End()

	processed, err := bc.ledger.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		bc.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	bc.logger.Warn("Payment failed, booking awaits another attempt",
		zap.String("booking_id", event.BookingID.String()),
		zap.String("tx_ref", event.TxRef),
		zap.String("reason", event.Reason))

	return bc.markProcessed(ctx, event.BaseEvent)
}

func (bc *BookingConfirmer) markProcessed(ctx context.Context, event models.BaseEvent) error {
	if err := bc.ledger.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		bc.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}
