package store

import (
	"context"

	"github.com/google/uuid"

	"travel-service/internal/models"
)

// CreateReview inserts a new review
func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}

	query := `
		INSERT INTO reviews (review_id, listing_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := s.db.GetContext(ctx, &review.CreatedAt, query,
		review.ID, review.ListingID, review.UserID, review.Rating, review.Comment)
	return translate(err, "review")
}

// GetReviewByID retrieves a review by ID
func (s *Store) GetReviewByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := s.db.GetContext(ctx, &review, "SELECT * FROM reviews WHERE review_id = $1", id)
	if err != nil {
		return nil, translate(err, "review")
	}
	return &review, nil
}

// ListReviews retrieves reviews, optionally restricted to one listing
func (s *Store) ListReviews(ctx context.Context, listingID *uuid.UUID) ([]models.Review, error) {
	reviews := []models.Review{}
	if listingID != nil {
		err := s.db.SelectContext(ctx, &reviews,
			"SELECT * FROM reviews WHERE listing_id = $1 ORDER BY created_at DESC", *listingID)
		return reviews, err
	}
	err := s.db.SelectContext(ctx, &reviews, "SELECT * FROM reviews ORDER BY created_at DESC")
	return reviews, err
}

// UpdateReview writes the mutable review fields
func (s *Store) UpdateReview(ctx context.Context, review *models.Review) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE reviews SET listing_id = $1, rating = $2, comment = $3 WHERE review_id = $4",
		review.ListingID, review.Rating, review.Comment, review.ID)
	if err != nil {
		return translate(err, "review")
	}
	return requireAffected(res, "review")
}

// DeleteReview removes a review
func (s *Store) DeleteReview(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reviews WHERE review_id = $1", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "review")
}
