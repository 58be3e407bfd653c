package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-service/internal/models"
	"travel-service/internal/testutil"
)

func TestConfirmerConfirmsOnce(t *testing.T) {
	st := testutil.NewMemStore()
	host := st.AddUser("host", models.RoleHost)
	guest := st.AddUser("guest", models.RoleGuest)
	listing := addListing(t, st, host, "10.00")
	booking := addBooking(t, st, listing, guest, "2024-01-01", "2024-01-02")
	pub := &testutil.RecordingPublisher{}
	bc := NewBookingConfirmer(st, st, pub)

	event := &models.PaymentSuccessEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypePaymentSuccess),
		BookingID: booking.ID,
		TxRef:     "tx-1",
	}
	require.NoError(t, bc.HandlePaymentSuccess(context.Background(), event))
	require.NoError(t, bc.HandlePaymentSuccess(context.Background(), event))

	stored, err := st.GetBookingByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)
	assert.Equal(t, []string{models.EventTypeBookingConfirmed}, pub.Types())
}

func TestConfirmerIgnoresMissingAndFailed(t *testing.T) {
	st := testutil.NewMemStore()
	host := st.AddUser("host", models.RoleHost)
	guest := st.AddUser("guest", models.RoleGuest)
	listing := addListing(t, st, host, "10.00")
	booking := addBooking(t, st, listing, guest, "2024-01-01", "2024-01-02")
	pub := &testutil.RecordingPublisher{}
	bc := NewBookingConfirmer(st, st, pub)

	missing := &models.PaymentSuccessEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypePaymentSuccess),
		BookingID: uuid.New(),
	}
	changed, err := st.UpdateBookingStatus(context.Background(), missing.BookingID,
		models.BookingStatusPending, models.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, bc.HandlePaymentSuccess(context.Background(), missing))
	processed, err := st.IsEventProcessed(context.Background(), missing.EventID)
	require.NoError(t, err)
	assert.True(t, processed)

	failed := &models.PaymentFailedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypePaymentFailed),
		BookingID: booking.ID,
		Reason:    "cancelled",
	}
	require.NoError(t, bc.HandlePaymentFailed(context.Background(), failed))

	stored, err := st.GetBookingByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, stored.Status)
	assert.Empty(t, pub.Events)
}
