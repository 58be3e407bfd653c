package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-service/internal/chapa"
	"travel-service/internal/models"
	"travel-service/internal/service"
	"travel-service/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testEnv struct {
	router  *gin.Engine
	store   *testutil.MemStore
	gateway *testutil.FakeGateway
	auth    *service.AuthService
}

func newTestEnv(t *testing.T, checks map[string]Pinger) *testEnv {
	t.Helper()
	st := testutil.NewMemStore()
	kv := testutil.NewMemKV()
	gw := &testutil.FakeGateway{}
	pub := &testutil.RecordingPublisher{}

	auth := service.NewAuthService(st, kv, service.AuthOptions{
		Secret:     "api-test-secret",
		Issuer:     "travel-service",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	h := NewHandler(Services{
		Auth:     auth,
		Listings: service.NewListingService(st, st),
		Bookings: service.NewBookingService(st, pub),
		Reviews:  service.NewReviewService(st),
		Payments: service.NewPaymentService(st, st, st, gw, kv, pub, service.PaymentOptions{Currency: "ETB"}),
	}, checks)

	router := gin.New()
	h.SetupRoutes(router)
	return &testEnv{router: router, store: st, gateway: gw, auth: auth}
}

// login registers a user and returns its access token
func (e *testEnv) login(t *testing.T, username string, role models.Role) (string, *models.User) {
	t.Helper()
	user, err := e.auth.Register(context.Background(), &service.RegisterRequest{
		Username: username,
		Password: "s3cret-pass",
		Email:    username + "@example.com",
		Role:     role,
	})
	require.NoError(t, err)
	pair, err := e.auth.ObtainToken(context.Background(), &service.TokenRequest{Username: username, Password: "s3cret-pass"})
	require.NoError(t, err)
	return pair.Access, user
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, map[string]Pinger{
		"postgres": pingFunc(func(context.Context) error { return nil }),
	})

	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := newTestEnv(t, map[string]Pinger{
		"redis": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	w = down.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")
}

func TestInvalidTokenRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/listings", "garbage", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterAndTokenFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/users", "", gin.H{
		"username": "selam",
		"password": "long-enough",
		"email":    "selam@example.com",
		"role":     "guest",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(t, http.MethodPost, "/api/token", "", gin.H{"username": "selam", "password": "long-enough"})
	require.Equal(t, http.StatusOK, w.Code)
	tokens := decode(t, w)

	w = env.do(t, http.MethodGet, "/api/users/me", tokens["access"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "selam", decode(t, w)["username"])

	w = env.do(t, http.MethodPost, "/api/token/refresh", "", gin.H{"refresh": tokens["refresh"]})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["access"])

	w = env.do(t, http.MethodPost, "/api/token", "", gin.H{"username": "selam", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/users", "", gin.H{"username": "x", "email": "not-an-email", "role": "guest"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	fields := body["fields"].(map[string]interface{})
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "email")
}

func TestListingEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	hostToken, host := env.login(t, "host", models.RoleHost)
	guestToken, _ := env.login(t, "guest", models.RoleGuest)

	listing := gin.H{
		"name":            "Lake house",
		"description":     "Quiet",
		"location":        "Hawassa",
		"price_per_night": "80.00",
		"host":            "00000000-0000-0000-0000-000000000000",
	}

	w := env.do(t, http.MethodPost, "/api/listings", guestToken, listing)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/listings", "", listing)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/listings", hostToken, listing)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, host.ID.String(), created["host"])
	id := created["listing_id"].(string)

	w = env.do(t, http.MethodGet, "/api/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	w = env.do(t, http.MethodPatch, "/api/listings/"+id, guestToken, gin.H{"name": "Mine now"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPatch, "/api/listings/"+id, hostToken, gin.H{"price_per_night": "95.50"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "95.5", decode(t, w)["price_per_night"])

	w = env.do(t, http.MethodGet, "/api/listings/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/listings/"+id, hostToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/listings/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingIgnoresClientTotal(t *testing.T) {
	env := newTestEnv(t, nil)
	hostToken, _ := env.login(t, "host", models.RoleHost)
	guestToken, guest := env.login(t, "guest", models.RoleGuest)

	w := env.do(t, http.MethodPost, "/api/listings", hostToken, gin.H{
		"name": "Flat", "description": "d", "location": "l", "price_per_night": "120.50",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	listingID := decode(t, w)["listing_id"]

	booking := gin.H{
		"listing":     listingID,
		"start_date":  "2024-06-01",
		"end_date":    "2024-06-04",
		"total_price": "1.00",
		"user":        "00000000-0000-0000-0000-000000000000",
	}

	w = env.do(t, http.MethodPost, "/api/bookings", hostToken, booking)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/bookings", "", booking)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/bookings", guestToken, booking)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "361.5", created["total_price"])
	assert.Equal(t, guest.ID.String(), created["user"])
	assert.Equal(t, "2024-06-01", created["start_date"])
	assert.Equal(t, "pending", created["status"])

	w = env.do(t, http.MethodGet, "/api/bookings", hostToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hostView []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hostView))
	assert.Len(t, hostView, 1)

	w = env.do(t, http.MethodGet, "/api/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/bookings", guestToken, gin.H{"listing": listingID, "start_date": "06/01/2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	hostToken, _ := env.login(t, "host", models.RoleHost)
	guestToken, guest := env.login(t, "guest", models.RoleGuest)

	w := env.do(t, http.MethodPost, "/api/listings", hostToken, gin.H{
		"name": "Flat", "description": "d", "location": "l", "price_per_night": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	listingID := decode(t, w)["listing_id"].(string)

	w = env.do(t, http.MethodPost, "/api/reviews", guestToken, gin.H{"listing": listingID, "rating": 6})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "rating")

	w = env.do(t, http.MethodPost, "/api/reviews", guestToken, gin.H{
		"listing": listingID, "rating": 4, "comment": "Nice", "user": "00000000-0000-0000-0000-000000000000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := decode(t, w)
	assert.Equal(t, guest.ID.String(), review["user"])

	w = env.do(t, http.MethodGet, "/api/reviews?listing="+listingID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reviews []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reviews))
	assert.Len(t, reviews, 1)

	w = env.do(t, http.MethodDelete, "/api/reviews/"+review["review_id"].(string), hostToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPaymentEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	hostToken, _ := env.login(t, "host", models.RoleHost)
	guestToken, _ := env.login(t, "guest", models.RoleGuest)

	w := env.do(t, http.MethodPost, "/api/listings", hostToken, gin.H{
		"name": "Flat", "description": "d", "location": "l", "price_per_night": "50.00",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	listingID := decode(t, w)["listing_id"]
	w = env.do(t, http.MethodPost, "/api/bookings", guestToken, gin.H{
		"listing": listingID, "start_date": "2024-07-01", "end_date": "2024-07-03",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	bookingID := decode(t, w)["booking_id"]

	w = env.do(t, http.MethodPost, "/api/payments/initiate", "", gin.H{"booking": bookingID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/payments/initiate", guestToken, gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["fields"], "booking")

	w = env.do(t, http.MethodPost, "/api/payments/initiate", guestToken, gin.H{"booking": "6f1c1f4e-7f57-4a43-8d1b-0c3a3c1f0c11"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/payments/initiate", guestToken, gin.H{"booking": bookingID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	payment := decode(t, w)
	assert.Equal(t, "pending", payment["status"])
	assert.Equal(t, "100", payment["amount"])
	txRef := payment["tx_ref"].(string)

	env.gateway.VerifyResp = testutil.VerifyResponse(chapa.StatusSuccess)
	w = env.do(t, http.MethodGet, "/api/payments/verify/"+txRef, guestToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decode(t, w)["status"])

	w = env.do(t, http.MethodGet, "/api/payments/verify/unknown", guestToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentProviderFailuresMapToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		resp *chapa.Response
		want int
	}{
		{"unavailable", fmt.Errorf("initialize: %w", chapa.ErrUnavailable), nil, http.StatusServiceUnavailable},
		{"bad response", fmt.Errorf("initialize: %w", chapa.ErrBadResponse), nil, http.StatusBadGateway},
		{"rejected", nil, &chapa.Response{Status: chapa.StatusFailed, Payload: map[string]interface{}{"status": "failed", "message": "nope"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			_, host := env.login(t, "host", models.RoleHost)
			guestToken, guest := env.login(t, "guest", models.RoleGuest)
			listing := &models.Listing{HostID: host.ID, Name: "n", Description: "d", Location: "l"}
			require.NoError(t, env.store.CreateListing(context.Background(), listing))
			start, _ := models.ParseDate("2024-01-01")
			booking := &models.Booking{ListingID: listing.ID, UserID: guest.ID, StartDate: start, EndDate: start.AddDays(1)}
			require.NoError(t, env.store.CreateBooking(context.Background(), booking))

			env.gateway.InitializeErr = tt.err
			env.gateway.InitializeResp = tt.resp

			w := env.do(t, http.MethodPost, "/api/payments/initiate", guestToken, gin.H{"booking": booking.ID})

			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.resp != nil {
				details := decode(t, w)["details"].(map[string]interface{})
				assert.Equal(t, "nope", details["message"])
			}
			assert.Equal(t, 0, env.store.PaymentCount())
		})
	}
}
