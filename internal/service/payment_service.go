package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"travel-service/internal/chapa"
	"travel-service/internal/models"
	"travel-service/internal/policy"
	"travel-service/internal/util"
)

const (
	idempotencyKeyPrefix  = "payment:"
	idempotencyLockPrefix = "payment-initiate:"
	idempotencyLockTTL    = 60 * time.Second
)

// PaymentService opens and verifies transactions at the payment provider
type PaymentService struct {
	payments       PaymentStore
	bookings       BookingStore
	users          UserStore
	gateway        PaymentGateway
	idempotency    IdempotencyStore
	eventPublisher EventPublisher
	opts           PaymentOptions
	logger         *zap.Logger
}

// PaymentOptions carries the provider-facing settings
type PaymentOptions struct {
	Currency       string
	CallbackURL    string
	ReturnURL      string
	IdempotencyTTL time.Duration
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	payments PaymentStore,
	bookings BookingStore,
	users UserStore,
	gateway PaymentGateway,
	idempotency IdempotencyStore,
	eventPublisher EventPublisher,
	opts PaymentOptions,
) *PaymentService {
	if opts.Currency == "" {
		opts.Currency = "ETB"
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	return &PaymentService{
		payments:       payments,
		bookings:       bookings,
		users:          users,
		gateway:        gateway,
		idempotency:    idempotency,
		eventPublisher: eventPublisher,
		opts:           opts,
		logger:         util.GetLogger(),
	}
}

// InitiatePaymentRequest is the body of POST /payments/initiate
type InitiatePaymentRequest struct {
	Booking *uuid.UUID `json:"booking" binding:"required"`
}

// InitiateResult tells the handler whether the payment was created by this
// call or replayed from an earlier one with the same idempotency key.
type InitiateResult struct {
	Payment  *models.Payment
	Replayed bool
}

// Initiate opens a provider transaction for the booking's total price and
// records a pending payment for it.
func (s *PaymentService) Initiate(ctx context.Context, id policy.Identity, req *InitiatePaymentRequest, idempotencyKey string) (*InitiateResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Initiate")
	defer span.End()

	if !id.Authenticated {
		return nil, ErrUnauthenticated
	}
	if req == nil || req.Booking == nil || *req.Booking == uuid.Nil {
		return nil, NewValidationError("booking", "this field is required")
	}

	if idempotencyKey != "" {
		if existing, err := s.replay(ctx, idempotencyKey); err != nil || existing != nil {
			if err != nil {
				return nil, err
			}
			return &InitiateResult{Payment: existing, Replayed: true}, nil
		}

		lockKey := idempotencyLockPrefix + idempotencyKey
		acquired, err := s.idempotency.AcquireLock(ctx, lockKey, idempotencyLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire idempotency lock: %w", err)
		}
		if !acquired {
			return nil, fmt.Errorf("payment with this idempotency key is in progress: %w", ErrConflict)
		}
		defer func() {
			if err := s.idempotency.ReleaseLock(context.WithoutCancel(ctx), lockKey); err != nil {
				s.logger.Warn("Failed to release idempotency lock", zap.String("key", idempotencyKey), zap.Error(err))
			}
		}()

		// A request holding the lock may have finished between the first
		// lookup and our acquiring it.
		if existing, err := s.replay(ctx, idempotencyKey); err != nil || existing != nil {
			if err != nil {
				return nil, err
			}
			return &InitiateResult{Payment: existing, Replayed: true}, nil
		}
	}

	bookingID := *req.Booking
	amount, err := s.bookings.GetBookingTotalPrice(ctx, bookingID)
	if err != nil {
		util.PaymentInitiateFailedTotal.WithLabelValues("booking_not_found").Inc()
		return nil, fromStore(err, "booking")
	}

	txRef := uuid.New().String()
	initReq := chapa.InitializeRequest{
		Amount:      amount,
		Currency:    s.opts.Currency,
		TxRef:       txRef,
		CallbackURL: s.opts.CallbackURL,
		ReturnURL:   s.opts.ReturnURL,
	}
	if payer, err := s.users.GetUserByID(ctx, id.UserID); err == nil {
		initReq.Email = payer.Email
		initReq.FirstName = payer.FirstName
		initReq.LastName = payer.LastName
	} else {
		s.logger.Debug("Payer profile unavailable", zap.String("user_id", id.UserID.String()), zap.Error(err))
	}

	s.logger.Info("Initiating payment",
		zap.String("booking_id", bookingID.String()),
		zap.String("tx_ref", txRef),
		zap.String("amount", amount.StringFixed(2)))

	// The provider call outlives a disconnecting client; the gateway's own
	// timeout bounds it.
	resp, err := s.gateway.Initialize(context.WithoutCancel(ctx), initReq)
	if err != nil {
		return nil, s.providerError("initialize", err)
	}
	if resp.Status == chapa.StatusFailed {
		util.PaymentInitiateFailedTotal.WithLabelValues("provider_rejected").Inc()
		s.logger.Warn("Payment provider rejected transaction",
			zap.String("tx_ref", txRef),
			zap.Any("payload", resp.Payload))
		return nil, &ProviderFailure{Payload: resp.Payload}
	}

	payment := &models.Payment{
		TxRef:       txRef,
		BookingID:   bookingID,
		Amount:      amount,
		Status:      models.PaymentStatusPending,
		CheckoutURL: resp.Data.CheckoutURL,
	}
	if err := s.payments.CreatePayment(context.WithoutCancel(ctx), payment); err != nil {
		util.PaymentsOrphanedTotal.Inc()
		s.logger.Error("Provider transaction opened but payment not recorded",
			zap.String("tx_ref", txRef),
			zap.String("booking_id", bookingID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to record payment: %w", fromStore(err, "booking"))
	}

	util.PaymentsInitiatedTotal.Inc()
	s.logger.Info("Payment initiated",
		zap.String("payment_id", payment.ID.String()),
		zap.String("tx_ref", txRef))

	event := &models.PaymentInitiatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypePaymentInitiated),
		PaymentID: payment.ID,
		BookingID: payment.BookingID,
		TxRef:     payment.TxRef,
		Amount:    payment.Amount,
	}
	if err := s.eventPublisher.PublishPaymentInitiated(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentInitiated event", zap.Error(err))
	}

	if idempotencyKey != "" {
		if err := s.idempotency.SetIdempotencyKey(ctx, idempotencyKeyPrefix+idempotencyKey, payment.ID.String(), s.opts.IdempotencyTTL); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.String("key", idempotencyKey), zap.Error(err))
		}
	}

	return &InitiateResult{Payment: payment}, nil
}

// Verify asks the provider for the outcome of txRef and moves a pending
// payment to success or failed accordingly.
func (s *PaymentService) Verify(ctx context.Context, id policy.Identity, txRef string) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Verify")
	defer span.End()

	if !id.Authenticated {
		return nil, ErrUnauthenticated
	}

	payment, err := s.payments.GetPaymentByTxRef(ctx, txRef)
	if err != nil {
		return nil, fromStore(err, "payment")
	}

	resp, err := s.gateway.Verify(context.WithoutCancel(ctx), txRef)
	if err != nil {
		return nil, s.providerError("verify", err)
	}

	var target models.PaymentStatus
	switch resp.Data.Status {
	case chapa.StatusSuccess:
		target = models.PaymentStatusSuccess
	case chapa.StatusFailed, chapa.StatusCancelled:
		target = models.PaymentStatusFailed
	default:
		util.PaymentVerifyUnmatchedTotal.WithLabelValues(resp.Data.Status).Inc()
		s.logger.Warn("Provider status left payment unchanged",
			zap.String("tx_ref", txRef),
			zap.String("provider_status", resp.Data.Status),
			zap.String("status", string(payment.Status)))
		return payment, nil
	}

	if payment.Status.Terminal() {
		if payment.Status != target {
			s.logger.Warn("Provider status disagrees with settled payment",
				zap.String("tx_ref", txRef),
				zap.String("status", string(payment.Status)),
				zap.String("provider_status", resp.Data.Status))
		}
		return payment, nil
	}

	changed, err := s.payments.TransitionPayment(context.WithoutCancel(ctx), payment.ID, target)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	if !changed {
		// Another verification settled it first.
		current, err := s.payments.GetPaymentByID(ctx, payment.ID)
		if err != nil {
			return nil, fromStore(err, "payment")
		}
		return current, nil
	}
	payment.Status = target
	payment.UpdatedAt = time.Now()

	s.logger.Info("Payment settled",
		zap.String("tx_ref", txRef),
		zap.String("status", string(target)))

	if target == models.PaymentStatusSuccess {
		util.PaymentSuccessTotal.Inc()
		event := &models.PaymentSuccessEvent{
			BaseEvent: models.NewBaseEvent(models.EventTypePaymentSuccess),
			PaymentID: payment.ID,
			BookingID: payment.BookingID,
			TxRef:     payment.TxRef,
			Amount:    payment.Amount,
		}
		if err := s.eventPublisher.PublishPaymentSuccess(ctx, event); err != nil {
			s.logger.Error("Failed to publish PaymentSuccess event", zap.Error(err))
		}
	} else {
		util.PaymentFailedTotal.Inc()
		event := &models.PaymentFailedEvent{
			BaseEvent: models.NewBaseEvent(models.EventTypePaymentFailed),
			PaymentID: payment.ID,
			BookingID: payment.BookingID,
			TxRef:     payment.TxRef,
			Reason:    resp.Data.Status,
		}
		if err := s.eventPublisher.PublishPaymentFailed(ctx, event); err != nil {
			s.logger.Error("Failed to publish PaymentFailed event", zap.Error(err))
		}
	}

	return payment, nil
}

func (s *PaymentService) replay(ctx context.Context, key string) (*models.Payment, error) {
	paymentID, ok, err := s.idempotency.GetIdempotencyKey(ctx, idempotencyKeyPrefix+key)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if !ok {
		return nil, nil
	}

	pid, err := uuid.Parse(paymentID)
	if err != nil {
		s.logger.Warn("Discarding malformed idempotency record", zap.String("key", key))
		return nil, nil
	}
	payment, err := s.payments.GetPaymentByID(ctx, pid)
	if err != nil {
		if IsNotFound(fromStore(err, "payment")) {
			return nil, nil
		}
		return nil, err
	}

	s.logger.Info("Duplicate payment request detected",
		zap.String("idempotency_key", key),
		zap.String("payment_id", payment.ID.String()))
	return payment, nil
}

func (s *PaymentService) providerError(op string, err error) error {
	switch {
	case errors.Is(err, chapa.ErrUnavailable):
		util.PaymentInitiateFailedTotal.WithLabelValues(op + "_unavailable").Inc()
		return fmt.Errorf("%s: %w", op, ErrProviderUnavailable)
	case errors.Is(err, chapa.ErrBadResponse):
		util.PaymentInitiateFailedTotal.WithLabelValues(op + "_bad_response").Inc()
		return fmt.Errorf("%s: %w", op, ErrProviderProtocol)
	}
	return fmt.Errorf("%s: %w", op, err)
}
