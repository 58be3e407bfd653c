package service

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"travel-service/internal/models"
	"travel-service/internal/policy"
	"travel-service/internal/util"
)

// ListingService handles listing business logic
type ListingService struct {
	listings ListingStore
	bookings BookingStore
	policy   policy.ListingPolicy
	logger   *zap.Logger
}

// NewListingService creates a new listing service
func NewListingService(listings ListingStore, bookings BookingStore) *ListingService {
	return &ListingService{
		listings: listings,
		bookings: bookings,
		logger:   util.GetLogger(),
	}
}

// ListingInput is the body of POST and PUT /listings
type ListingInput struct {
	Name          string           `json:"name" binding:"required,max=255"`
	Description   string           `json:"description" binding:"required"`
	Location      string           `json:"location" binding:"required,max=255"`
	PricePerNight *decimal.Decimal `json:"price_per_night" binding:"required"`
}

// ListingPatch is the body of PATCH /listings/:id
type ListingPatch struct {
	Name          *string          `json:"name" binding:"omitempty,max=255"`
	Description   *string          `json:"description"`
	Location      *string          `json:"location" binding:"omitempty,max=255"`
	PricePerNight *decimal.Decimal `json:"price_per_night"`
}

func validatePrice(v *ValidationError, price *decimal.Decimal) {
	if price == nil {
		return
	}
	if price.IsNegative() {
		v.Add("price_per_night", "ensure this value is greater than or equal to 0")
	}
	if !price.Equal(price.Round(2)) {
		v.Add("price_per_night", "ensure that there are no more than 2 decimal places")
	}
	if price.GreaterThanOrEqual(models.MaxAmount) {
		v.Add("price_per_night", "ensure that there are no more than 10 digits in total")
	}
}

// CreateListing creates a listing owned by the calling host
func (s *ListingService) CreateListing(ctx context.Context, id policy.Identity, in *ListingInput) (*models.Listing, error) {
	ctx, span := util.StartSpan(ctx, "ListingService.CreateListing")
	defer span.End()

	if !s.policy.HasPermission(id, http.MethodPost) {
		return nil, deny(id, "listing")
	}

	v := &ValidationError{}
	validatePrice(v, in.PricePerNight)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	listing := &models.Listing{
		HostID:        id.UserID,
		Name:          in.Name,
		Description:   in.Description,
		Location:      in.Location,
		PricePerNight: *in.PricePerNight,
	}
	if err := s.listings.CreateListing(ctx, listing); err != nil {
		return nil, fromStore(err, "host")
	}

	util.ListingsCreatedTotal.Inc()
	s.logger.Info("Listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("host_id", listing.HostID.String()))
	return listing, nil
}

// ListListings returns every listing
func (s *ListingService) ListListings(ctx context.Context, id policy.Identity) ([]models.Listing, error) {
	if !s.policy.HasPermission(id, http.MethodGet) {
		return nil, deny(id, "listing")
	}
	listings, err := s.listings.ListListings(ctx)
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return listings, nil
}

// GetListing returns one listing. The owning host also sees its bookings.
func (s *ListingService) GetListing(ctx context.Context, id policy.Identity, listingID uuid.UUID) (*models.Listing, error) {
	ctx, span := util.StartSpan(ctx, "ListingService.GetListing")
	defer span.End()

	listing, err := s.listings.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, fromStore(err, "listing")
	}
	if !s.policy.HasObjectPermission(id, http.MethodGet, listing) {
		return nil, deny(id, "listing")
	}

	if id.Is(listing.HostID) {
		bookings, err := s.bookings.ListBookingsByListing(ctx, listing.ID)
		if err != nil {
			return nil, err
		}
		listing.Bookings = bookings
	}
	return listing, nil
}

// ReplaceListing overwrites every writable field of a listing
func (s *ListingService) ReplaceListing(ctx context.Context, id policy.Identity, listingID uuid.UUID, in *ListingInput) (*models.Listing, error) {
	return s.UpdateListing(ctx, id, listingID, &ListingPatch{
		Name:          &in.Name,
		Description:   &in.Description,
		Location:      &in.Location,
		PricePerNight: in.PricePerNight,
	})
}

// UpdateListing applies the non-nil fields of patch
func (s *ListingService) UpdateListing(ctx context.Context, id policy.Identity, listingID uuid.UUID, patch *ListingPatch) (*models.Listing, error) {
	ctx, span := util.StartSpan(ctx, "ListingService.UpdateListing")
	defer span.End()

	listing, err := s.writable(ctx, id, http.MethodPatch, listingID)
	if err != nil {
		return nil, err
	}

	v := &ValidationError{}
	validatePrice(v, patch.PricePerNight)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		listing.Name = *patch.Name
	}
	if patch.Description != nil {
		listing.Description = *patch.Description
	}
	if patch.Location != nil {
		listing.Location = *patch.Location
	}
	if patch.PricePerNight != nil {
		listing.PricePerNight = *patch.PricePerNight
	}

	if err := s.listings.UpdateListing(ctx, listing); err != nil {
		return nil, fromStore(err, "listing")
	}
	return listing, nil
}

// DeleteListing removes a listing with its bookings and reviews
func (s *ListingService) DeleteListing(ctx context.Context, id policy.Identity, listingID uuid.UUID) error {
	ctx, span := util.StartSpan(ctx, "ListingService.DeleteListing")
	defer span.End()

	if _, err := s.writable(ctx, id, http.MethodDelete, listingID); err != nil {
		return err
	}
	if err := s.listings.DeleteListing(ctx, listingID); err != nil {
		return fromStore(err, "listing")
	}

	s.logger.Info("Listing deleted", zap.String("listing_id", listingID.String()))
	return nil
}

func (s *ListingService) writable(ctx context.Context, id policy.Identity, method string, listingID uuid.UUID) (*models.Listing, error) {
	if !s.policy.HasPermission(id, method) {
		return nil, deny(id, "listing")
	}
	listing, err := s.listings.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, fromStore(err, "listing")
	}
	if !s.policy.HasObjectPermission(id, method, listing) {
		return nil, deny(id, "listing")
	}
	return listing, nil
}
