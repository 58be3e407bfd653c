// Package chapa talks to the Chapa payment gateway.
package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"travel-service/internal/util"
)

var (
	// ErrUnavailable means the provider could not be reached.
	ErrUnavailable = errors.New("payment provider unavailable")
	// ErrBadResponse means the provider answered with something that is not
	// the expected JSON document.
	ErrBadResponse = errors.New("payment provider returned an unreadable response")
)

// Provider-reported statuses
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusPending   = "pending"
)

const maxResponseBytes = 1 << 20

// Client is a Chapa API client authenticated with a secret key
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client. timeout bounds every provider call.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: util.GetLogger(),
	}
}

// InitializeRequest is the body of POST /transaction/initialize
type InitializeRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	TxRef       string          `json:"tx_ref"`
	Email       string          `json:"email,omitempty"`
	FirstName   string          `json:"first_name,omitempty"`
	LastName    string          `json:"last_name,omitempty"`
	CallbackURL string          `json:"callback_url,omitempty"`
	ReturnURL   string          `json:"return_url,omitempty"`
}

// Response is the envelope Chapa wraps every answer in
type Response struct {
	Status string       `json:"status"`
	Data   ResponseData `json:"data"`

	// Payload is the full decoded document, echoed back to callers when
	// the provider reports a failure.
	Payload map[string]interface{} `json:"-"`
}

// ResponseData holds the fields this service reads from data
type ResponseData struct {
	Status      string `json:"status"`
	CheckoutURL string `json:"checkout_url"`
	TxRef       string `json:"tx_ref"`
}

// Initialize opens a transaction at the provider
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize request: %w", err)
	}
	return c.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", body)
}

// Verify asks the provider for the current state of a transaction
func (c *Client) Verify(ctx context.Context, txRef string) (*Response, error) {
	return c.do(ctx, "verify", http.MethodGet, "/transaction/verify/"+url.PathEscape(txRef), nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte) (*Response, error) {
	ctx, span := util.StartSpan(ctx, "chapa."+op)
	defer span.End()

	start := time.Now()
	defer func() {
		util.ProviderLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Payment provider unreachable", zap.String("op", op), zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}

	parsed, err := decode(raw)
	if err != nil {
		c.logger.Warn("Payment provider sent unparseable response",
			zap.String("op", op),
			zap.Int("http_status", resp.StatusCode),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %v", op, ErrBadResponse, err)
	}

	c.logger.Debug("Payment provider responded",
		zap.String("op", op),
		zap.Int("http_status", resp.StatusCode),
		zap.String("status", parsed.Status),
		zap.String("data_status", parsed.Data.Status))

	return parsed, nil
}

func decode(raw []byte) (*Response, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.New("empty document")
	}

	var resp Response
	// data is sometimes null or a plain message string on errors.
	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	resp.Status = envelope.Status
	if len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		if err := json.Unmarshal(envelope.Data, &resp.Data); err != nil {
			return nil, err
		}
	}
	resp.Payload = payload
	return &resp, nil
}
