// Package testutil holds in-memory stand-ins for the service's external
// dependencies.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"travel-service/internal/models"
	"travel-service/internal/store"
)

// MemStore mirrors the constraints of store.Store in memory: foreign keys
// report store.ErrNotFound, unique columns report store.ErrConflict and
// deletes cascade.
type MemStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]models.User
	listings  map[uuid.UUID]models.Listing
	bookings  map[uuid.UUID]models.Booking
	reviews   map[uuid.UUID]models.Review
	payments  map[uuid.UUID]models.Payment
	processed map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:     map[uuid.UUID]models.User{},
		listings:  map[uuid.UUID]models.Listing{},
		bookings:  map[uuid.UUID]models.Booking{},
		reviews:   map[uuid.UUID]models.Review{},
		payments:  map[uuid.UUID]models.Payment{},
		processed: map[string]string{},
	}
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, store.ErrNotFound)
}

// Users

func (m *MemStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("user: %w", store.ErrConflict)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *MemStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (m *MemStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, notFound("user")
}

// AddUser is a test shortcut that stores a user with the given role.
func (m *MemStore) AddUser(username string, role models.Role) *models.User {
	u := &models.User{
		Username:  username,
		FirstName: username,
		Email:     username + "@example.com",
		Role:      role,
	}
	if err := m.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

// Listings

func (m *MemStore) CreateListing(_ context.Context, listing *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[listing.HostID]; !ok {
		return notFound("listing host")
	}
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = listing.CreatedAt
	stored := *listing
	stored.Bookings = nil
	m.listings[listing.ID] = stored
	return nil
}

func (m *MemStore) GetListingByID(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings[id]
	if !ok {
		return nil, notFound("listing")
	}
	return &l, nil
}

func (m *MemStore) ListListings(_ context.Context) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Listing, 0, len(m.listings))
	for _, l := range m.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) UpdateListing(_ context.Context, listing *models.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.listings[listing.ID]; !ok {
		return notFound("listing")
	}
	listing.UpdatedAt = time.Now()
	stored := *listing
	stored.Bookings = nil
	m.listings[listing.ID] = stored
	return nil
}

func (m *MemStore) DeleteListing(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.listings[id]; !ok {
		return notFound("listing")
	}
	delete(m.listings, id)
	for bid, b := range m.bookings {
		if b.ListingID == id {
			m.deleteBookingLocked(bid)
		}
	}
	for rid, r := range m.reviews {
		if r.ListingID == id {
			delete(m.reviews, rid)
		}
	}
	return nil
}

// Bookings

func (m *MemStore) CreateBooking(_ context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[booking.ListingID]
	if !ok {
		return notFound("booking listing")
	}
	if _, ok := m.users[booking.UserID]; !ok {
		return notFound("booking user")
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusPending
	}
	total := models.BookingTotal(listing.PricePerNight, booking.StartDate, booking.EndDate)
	if !models.AmountInRange(total) {
		return fmt.Errorf("booking total %s: %w", total, store.ErrOutOfRange)
	}
	booking.TotalPrice = total
	booking.CreatedAt = time.Now()
	m.bookings[booking.ID] = *booking
	return nil
}

func (m *MemStore) GetBookingByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, notFound("booking")
	}
	return &b, nil
}

func (m *MemStore) GetBookingTotalPrice(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return decimal.Zero, notFound("booking")
	}
	return b.TotalPrice, nil
}

func (m *MemStore) filterBookings(keep func(models.Booking) bool) []models.Booking {
	out := []models.Booking{}
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemStore) ListBookingsByGuest(_ context.Context, userID uuid.UUID) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterBookings(func(b models.Booking) bool { return b.UserID == userID }), nil
}

func (m *MemStore) ListBookingsByHost(_ context.Context, hostID uuid.UUID) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterBookings(func(b models.Booking) bool {
		return m.listings[b.ListingID].HostID == hostID
	}), nil
}

func (m *MemStore) ListBookingsByListing(_ context.Context, listingID uuid.UUID) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterBookings(func(b models.Booking) bool { return b.ListingID == listingID }), nil
}

func (m *MemStore) UpdateBooking(_ context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bookings[booking.ID]; !ok {
		return notFound("booking")
	}
	listing, ok := m.listings[booking.ListingID]
	if !ok {
		return notFound("booking listing")
	}
	total := models.BookingTotal(listing.PricePerNight, booking.StartDate, booking.EndDate)
	if !models.AmountInRange(total) {
		return fmt.Errorf("booking total %s: %w", total, store.ErrOutOfRange)
	}
	booking.TotalPrice = total
	m.bookings[booking.ID] = *booking
	return nil
}

func (m *MemStore) UpdateBookingStatus(_ context.Context, id uuid.UUID, from, to models.BookingStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	m.bookings[id] = b
	return true, nil
}

func (m *MemStore) DeleteBooking(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bookings[id]; !ok {
		return notFound("booking")
	}
	m.deleteBookingLocked(id)
	return nil
}

func (m *MemStore) deleteBookingLocked(id uuid.UUID) {
	delete(m.bookings, id)
	for pid, p := range m.payments {
		if p.BookingID == id {
			delete(m.payments, pid)
		}
	}
}

// Reviews

func (m *MemStore) CreateReview(_ context.Context, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.listings[review.ListingID]; !ok {
		return notFound("review listing")
	}
	if _, ok := m.users[review.UserID]; !ok {
		return notFound("review user")
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.CreatedAt = time.Now()
	m.reviews[review.ID] = *review
	return nil
}

func (m *MemStore) GetReviewByID(_ context.Context, id uuid.UUID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reviews[id]
	if !ok {
		return nil, notFound("review")
	}
	return &r, nil
}

func (m *MemStore) ListReviews(_ context.Context, listingID *uuid.UUID) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Review{}
	for _, r := range m.reviews {
		if listingID == nil || r.ListingID == *listingID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) UpdateReview(_ context.Context, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reviews[review.ID]; !ok {
		return notFound("review")
	}
	if _, ok := m.listings[review.ListingID]; !ok {
		return notFound("review listing")
	}
	m.reviews[review.ID] = *review
	return nil
}

func (m *MemStore) DeleteReview(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reviews[id]; !ok {
		return notFound("review")
	}
	delete(m.reviews, id)
	return nil
}

// Payments

func (m *MemStore) CreatePayment(_ context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bookings[payment.BookingID]; !ok {
		return notFound("payment booking")
	}
	for _, p := range m.payments {
		if p.TxRef == payment.TxRef {
			return fmt.Errorf("payment tx_ref: %w", store.ErrConflict)
		}
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	m.payments[payment.ID] = *payment
	return nil
}

func (m *MemStore) GetPaymentByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.payments[id]
	if !ok {
		return nil, notFound("payment")
	}
	return &p, nil
}

func (m *MemStore) GetPaymentByTxRef(_ context.Context, txRef string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.payments {
		if p.TxRef == txRef {
			p := p
			return &p, nil
		}
	}
	return nil, notFound("payment")
}

func (m *MemStore) TransitionPayment(_ context.Context, id uuid.UUID, to models.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.payments[id]
	if !ok {
		return false, notFound("payment")
	}
	if p.Status != models.PaymentStatusPending {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = time.Now()
	m.payments[id] = p
	return true, nil
}

// PaymentCount returns how many payments are stored.
func (m *MemStore) PaymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

// Processed events

func (m *MemStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.processed[eventID]
	return ok, nil
}

func (m *MemStore) MarkEventProcessed(_ context.Context, eventID, eventType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[eventID] = eventType
	return nil
}
