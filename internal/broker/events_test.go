package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-service/internal/models"
)

type memWriter struct {
	messages []kafka.Message
	err      error
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestPublishKeysByBooking(t *testing.T) {
	w := &memWriter{}
	pub := NewEventPublisher(NewProducerWithWriter(w))
	bookingID := uuid.New()

	event := &models.PaymentSuccessEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypePaymentSuccess),
		PaymentID: uuid.New(),
		BookingID: bookingID,
		TxRef:     "tx-1",
		Amount:    decimal.RequireFromString("361.50"),
	}
	require.NoError(t, pub.PublishPaymentSuccess(context.Background(), event))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "booking-"+bookingID.String(), string(msg.Key))
	assert.Equal(t, models.EventTypePaymentSuccess, headerCarrier{msg: &msg}.Get("event_type"))

	var decoded models.PaymentSuccessEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.True(t, event.Amount.Equal(decoded.Amount))
}

func TestPublishWriteError(t *testing.T) {
	pub := NewEventPublisher(NewProducerWithWriter(&memWriter{err: errors.New("broker down")}))

	err := pub.PublishBookingCreated(context.Background(), &models.BookingCreatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeBookingCreated),
		BookingID: uuid.New(),
	})

	assert.ErrorContains(t, err, "broker down")
}

func TestHandleMessageDispatches(t *testing.T) {
	eh := NewEventHandler()
	var (
		succeeded *models.PaymentSuccessEvent
		failed    *models.PaymentFailedEvent
	)
	eh.OnPaymentSuccess(func(_ context.Context, e *models.PaymentSuccessEvent) error {
		succeeded = e
		return nil
	})
	eh.OnPaymentFailed(func(_ context.Context, e *models.PaymentFailedEvent) error {
		failed = e
		return nil
	})

	bookingID := uuid.New()
	success, err := json.Marshal(models.PaymentSuccessEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypePaymentSuccess),
		BookingID: bookingID,
		TxRef:     "tx-ok",
	})
	require.NoError(t, err)
	failure, err := json.Marshal(models.PaymentFailedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypePaymentFailed),
		BookingID: bookingID,
		Reason:    "cancelled",
	})
	require.NoError(t, err)
	other, err := json.Marshal(models.BookingCreatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeBookingCreated),
	})
	require.NoError(t, err)

	require.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: success}))
	require.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: failure}))
	require.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: other}))

	require.NotNil(t, succeeded)
	assert.Equal(t, "tx-ok", succeeded.TxRef)
	require.NotNil(t, failed)
	assert.Equal(t, "cancelled", failed.Reason)

	assert.ErrorIs(t, eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("{not json")}), ErrMalformedEvent)
}
