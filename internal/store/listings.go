package store

import (
	"context"

	"github.com/google/uuid"

	"travel-service/internal/models"
)

// CreateListing inserts a new listing
func (s *Store) CreateListing(ctx context.Context, listing *models.Listing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}

	query := `
		INSERT INTO listings (listing_id, host_id, name, description, location, price_per_night)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	row := s.db.QueryRowxContext(ctx, query,
		listing.ID, listing.HostID, listing.Name, listing.Description,
		listing.Location, listing.PricePerNight)
	return translate(row.Scan(&listing.CreatedAt, &listing.UpdatedAt), "listing")
}

// GetListingByID retrieves a listing by ID
func (s *Store) GetListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.GetContext(ctx, &listing, "SELECT * FROM listings WHERE listing_id = $1", id)
	if err != nil {
		return nil, translate(err, "listing")
	}
	return &listing, nil
}

// ListListings retrieves all listings, newest first
func (s *Store) ListListings(ctx context.Context) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := s.db.SelectContext(ctx, &listings, "SELECT * FROM listings ORDER BY created_at DESC")
	return listings, err
}

// UpdateListing writes the mutable listing fields
func (s *Store) UpdateListing(ctx context.Context, listing *models.Listing) error {
	query := `
		UPDATE listings
		SET name = $1, description = $2, location = $3, price_per_night = $4, updated_at = NOW()
		WHERE listing_id = $5
		RETURNING updated_at`

	err := s.db.GetContext(ctx, &listing.UpdatedAt, query,
		listing.Name, listing.Description, listing.Location, listing.PricePerNight, listing.ID)
	return translate(err, "listing")
}

// DeleteListing removes a listing; its bookings and reviews cascade
func (s *Store) DeleteListing(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM listings WHERE listing_id = $1", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "listing")
}
