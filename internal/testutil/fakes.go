package testutil

import (
	"context"
	"sync"
	"time"

	"travel-service/internal/chapa"
	"travel-service/internal/models"
)

// FakeGateway answers payment-provider calls from canned responses and
// records what it was asked.
type FakeGateway struct {
	mu sync.Mutex

	InitializeResp *chapa.Response
	InitializeErr  error
	VerifyResp     *chapa.Response
	VerifyErr      error

	Initialized []chapa.InitializeRequest
	Verified    []string
}

func (g *FakeGateway) Initialize(_ context.Context, req chapa.InitializeRequest) (*chapa.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Initialized = append(g.Initialized, req)
	if g.InitializeErr != nil {
		return nil, g.InitializeErr
	}
	if g.InitializeResp != nil {
		return g.InitializeResp, nil
	}
	return &chapa.Response{
		Status: chapa.StatusSuccess,
		Data:   chapa.ResponseData{CheckoutURL: "https://checkout.example/" + req.TxRef},
		Payload: map[string]interface{}{
			"status": "success",
		},
	}, nil
}

func (g *FakeGateway) Verify(_ context.Context, txRef string) (*chapa.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Verified = append(g.Verified, txRef)
	if g.VerifyErr != nil {
		return nil, g.VerifyErr
	}
	if g.VerifyResp != nil {
		return g.VerifyResp, nil
	}
	return VerifyResponse(chapa.StatusPending), nil
}

// VerifyResponse builds a verify answer whose data.status is status.
func VerifyResponse(status string) *chapa.Response {
	return &chapa.Response{
		Status: chapa.StatusSuccess,
		Data:   chapa.ResponseData{Status: status},
		Payload: map[string]interface{}{
			"status": "success",
			"data":   map[string]interface{}{"status": status},
		},
	}
}

// RecordingPublisher keeps every published event in order
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []interface{}
	Err    error
}

func (p *RecordingPublisher) record(event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return p.Err
}

func (p *RecordingPublisher) PublishBookingCreated(_ context.Context, event *models.BookingCreatedEvent) error {
	return p.record(event)
}

func (p *RecordingPublisher) PublishBookingConfirmed(_ context.Context, event *models.BookingConfirmedEvent) error {
	return p.record(event)
}

func (p *RecordingPublisher) PublishPaymentInitiated(_ context.Context, event *models.PaymentInitiatedEvent) error {
	return p.record(event)
}

func (p *RecordingPublisher) PublishPaymentSuccess(_ context.Context, event *models.PaymentSuccessEvent) error {
	return p.record(event)
}

func (p *RecordingPublisher) PublishPaymentFailed(_ context.Context, event *models.PaymentFailedEvent) error {
	return p.record(event)
}

// Types returns the event_type of every recorded event.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		switch ev := e.(type) {
		case *models.BookingCreatedEvent:
			types = append(types, ev.EventType)
		case *models.BookingConfirmedEvent:
			types = append(types, ev.EventType)
		case *models.PaymentInitiatedEvent:
			types = append(types, ev.EventType)
		case *models.PaymentSuccessEvent:
			types = append(types, ev.EventType)
		case *models.PaymentFailedEvent:
			types = append(types, ev.EventType)
		}
	}
	return types
}

// MemKV stands in for the Redis client: idempotency keys, locks and the
// refresh-token registry. Expiry is ignored.
type MemKV struct {
	mu     sync.Mutex
	values map[string]string
	locks  map[string]bool
}

func NewMemKV() *MemKV {
	return &MemKV{values: map[string]string{}, locks: map[string]bool{}}
}

func (k *MemKV) GetIdempotencyKey(_ context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.values[key]
	return v, ok, nil
}

func (k *MemKV) SetIdempotencyKey(_ context.Context, key string, value string, _ time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.values[key] = value
	return nil
}

func (k *MemKV) AcquireLock(_ context.Context, lockKey string, _ time.Duration) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks[lockKey] {
		return false, nil
	}
	k.locks[lockKey] = true
	return true, nil
}

func (k *MemKV) ReleaseLock(_ context.Context, lockKey string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.locks, lockKey)
	return nil
}

func (k *MemKV) StoreRefreshToken(_ context.Context, jti, userID string, _ time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.values["refresh:"+jti] = userID
	return nil
}

func (k *MemKV) RefreshTokenOwner(_ context.Context, jti string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.values["refresh:"+jti]
	return v, ok, nil
}

func (k *MemKV) RevokeRefreshToken(_ context.Context, jti string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.values, "refresh:"+jti)
	return nil
}
