// Package policy decides whether an identity may act on a resource. Every
// function here is pure: it only reads its arguments.
package policy

import (
	"net/http"

	"github.com/google/uuid"

	"travel-service/internal/models"
)

// Identity is the acting user of a request. The zero value is anonymous.
type Identity struct {
	UserID        uuid.UUID
	Role          models.Role
	Authenticated bool
}

// Anonymous returns the identity of an unauthenticated caller.
func Anonymous() Identity {
	return Identity{}
}

// Is reports whether the identity is the authenticated user id.
func (i Identity) Is(id uuid.UUID) bool {
	return i.Authenticated && i.UserID == id
}

// IsSafeMethod reports whether method only reads state.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// BookingPolicy: only guests create bookings, only the booking's guest
// touches it afterwards.
type BookingPolicy struct{}

func (BookingPolicy) HasPermission(id Identity, method string) bool {
	if method == http.MethodPost {
		return id.Authenticated && id.Role == models.RoleGuest
	}
	return true
}

func (BookingPolicy) HasObjectPermission(id Identity, _ string, b *models.Booking) bool {
	return b != nil && id.Is(b.UserID)
}

// ListingPolicy: anyone reads, only hosts create, only the owning host
// writes.
type ListingPolicy struct{}

func (ListingPolicy) HasPermission(id Identity, method string) bool {
	if IsSafeMethod(method) {
		return true
	}
	if method == http.MethodPost {
		return id.Authenticated && id.Role == models.RoleHost
	}
	return id.Authenticated
}

func (ListingPolicy) HasObjectPermission(id Identity, method string, l *models.Listing) bool {
	if l == nil {
		return false
	}
	if IsSafeMethod(method) {
		return true
	}
	return id.Is(l.HostID)
}

// ReviewPolicy: anyone reads, any authenticated user writes, only the
// reviewer edits or deletes.
type ReviewPolicy struct{}

func (ReviewPolicy) HasPermission(id Identity, method string) bool {
	return IsSafeMethod(method) || id.Authenticated
}

func (ReviewPolicy) HasObjectPermission(id Identity, method string, r *models.Review) bool {
	if r == nil {
		return false
	}
	if IsSafeMethod(method) {
		return true
	}
	return id.Is(r.UserID)
}

// BookingScope describes which bookings a listing query may return.
type BookingScope int

const (
	ScopeNone BookingScope = iota
	ScopeGuest
	ScopeHost
)

// BookingListScope maps a role to the bookings it may list: guests see
// their own, hosts see those on their listings, anyone else sees nothing.
func BookingListScope(id Identity) BookingScope {
	if !id.Authenticated {
		return ScopeNone
	}
	switch id.Role {
	case models.RoleGuest:
		return ScopeGuest
	case models.RoleHost:
		return ScopeHost
	}
	return ScopeNone
}
