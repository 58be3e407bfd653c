package chapa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeSendsCredentialsAndBody(t *testing.T) {
	var got InitializeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer CHASECK_TEST-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Hosted Link","status":"success","data":{"checkout_url":"https://checkout.chapa.co/checkout/payment/abc"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "CHASECK_TEST-123", time.Second)
	resp, err := c.Initialize(context.Background(), InitializeRequest{
		Amount:   decimal.RequireFromString("250.00"),
		Currency: "ETB",
		TxRef:    "tx-1",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "https://checkout.chapa.co/checkout/payment/abc", resp.Data.CheckoutURL)
	assert.Equal(t, "tx-1", got.TxRef)
	assert.Equal(t, "ETB", got.Currency)
	assert.True(t, decimal.NewFromInt(250).Equal(got.Amount))
}

func TestInitializeFailureKeepsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":{"amount":["The amount must be a number."]},"status":"failed","data":null}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "k", time.Second).Initialize(context.Background(), InitializeRequest{TxRef: "tx"})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, resp.Status)
	assert.Contains(t, resp.Payload, "message")
}

func TestVerifyReadsSubStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/tx-42", r.URL.Path)
		w.Write([]byte(`{"message":"Payment details","status":"success","data":{"status":"success","tx_ref":"tx-42"}}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "k", time.Second).Verify(context.Background(), "tx-42")

	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resp.Data.Status)
	assert.Equal(t, "tx-42", resp.Data.TxRef)
}

func TestNonJSONResponseIsBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>upstream error</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k", time.Second).Verify(context.Background(), "tx")

	assert.True(t, errors.Is(err, ErrBadResponse))
}

func TestUnreachableProviderIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "k", time.Second).Verify(context.Background(), "tx")

	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestSlowProviderTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, "k", 50*time.Millisecond).Verify(context.Background(), "tx")

	assert.True(t, errors.Is(err, ErrUnavailable))
}
