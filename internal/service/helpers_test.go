package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"travel-service/internal/models"
	"travel-service/internal/policy"
	"travel-service/internal/testutil"
)

func identityOf(u *models.User) policy.Identity {
	return policy.Identity{UserID: u.ID, Role: u.Role, Authenticated: true}
}

func mustDate(t *testing.T, s string) *models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func addListing(t *testing.T, st *testutil.MemStore, host *models.User, price string) *models.Listing {
	t.Helper()
	l := &models.Listing{
		HostID:        host.ID,
		Name:          "Cabin",
		Description:   "By the lake",
		Location:      "Bishoftu",
		PricePerNight: decimal.RequireFromString(price),
	}
	require.NoError(t, st.CreateListing(context.Background(), l))
	return l
}

func addBooking(t *testing.T, st *testutil.MemStore, listing *models.Listing, guest *models.User, start, end string) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ListingID: listing.ID,
		UserID:    guest.ID,
		StartDate: *mustDate(t, start),
		EndDate:   *mustDate(t, end),
	}
	require.NoError(t, st.CreateBooking(context.Background(), b))
	return b
}
