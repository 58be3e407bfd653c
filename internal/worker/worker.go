package worker

import (
	"context"

	"go.uber.org/zap"

	"travel-service/internal/broker"
	"travel-service/internal/service"
	"travel-service/internal/util"
)

// BookingWorker confirms bookings once their payment settles
type BookingWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewBookingWorker creates a new booking worker
func NewBookingWorker(consumer *broker.Consumer, confirmer *service.BookingConfirmer) *BookingWorker {
	return &BookingWorker{
		consumer:     consumer,
		eventHandler: NewEventHandler(confirmer),
		logger:       util.GetLogger(),
	}
}

// NewEventHandler routes payment events to the confirmer
func NewEventHandler(confirmer *service.BookingConfirmer) *broker.EventHandler {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnPaymentSuccess(confirmer.HandlePaymentSuccess)
	eventHandler.OnPaymentFailed(confirmer.HandlePaymentFailed)
	return eventHandler
}

// Start blocks consuming events until ctx is done
func (w *BookingWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting booking worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *BookingWorker) Stop() error {
	w.logger.Info("Stopping booking worker")
	return w.consumer.Close()
}
