package service

import (
	"context"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"travel-service/internal/models"
	"travel-service/internal/policy"
	"travel-service/internal/util"
)

// ReviewService handles review business logic
type ReviewService struct {
	reviews ReviewStore
	policy  policy.ReviewPolicy
	logger  *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(reviews ReviewStore) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		logger:  util.GetLogger(),
	}
}

// ReviewInput is the body of POST and PUT /reviews
type ReviewInput struct {
	Listing *uuid.UUID `json:"listing" binding:"required"`
	Rating  *int       `json:"rating" binding:"required"`
	Comment string     `json:"comment"`
}

// ReviewPatch is the body of PATCH /reviews/:id
type ReviewPatch struct {
	Listing *uuid.UUID `json:"listing"`
	Rating  *int       `json:"rating"`
	Comment *string    `json:"comment"`
}

func validateReview(rating *int, comment *string) error {
	v := &ValidationError{}
	if rating != nil && (*rating < models.MinRating || *rating > models.MaxRating) {
		v.Add("rating", fmt.Sprintf("ensure this value is between %d and %d", models.MinRating, models.MaxRating))
	}
	if comment != nil && utf8.RuneCountInString(*comment) > models.MaxCommentLength {
		v.Add("comment", fmt.Sprintf("ensure this field has no more than %d characters", models.MaxCommentLength))
	}
	return v.OrNil()
}

// CreateReview records a review by the caller. The author is always the
// caller, whatever the body says.
func (s *ReviewService) CreateReview(ctx context.Context, id policy.Identity, in *ReviewInput) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.CreateReview")
	defer span.End()

	if !s.policy.HasPermission(id, http.MethodPost) {
		return nil, deny(id, "review")
	}
	if err := validateReview(in.Rating, &in.Comment); err != nil {
		return nil, err
	}

	review := &models.Review{
		ListingID: *in.Listing,
		UserID:    id.UserID,
		Rating:    *in.Rating,
		Comment:   in.Comment,
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, fromStore(err, "listing")
	}

	util.ReviewsCreatedTotal.Inc()
	s.logger.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("listing_id", review.ListingID.String()),
		zap.Int("rating", review.Rating))
	return review, nil
}

// ListReviews returns all reviews, or those of one listing
func (s *ReviewService) ListReviews(ctx context.Context, listingID *uuid.UUID) ([]models.Review, error) {
	reviews, err := s.reviews.ListReviews(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

// GetReview returns one review
func (s *ReviewService) GetReview(ctx context.Context, reviewID uuid.UUID) (*models.Review, error) {
	review, err := s.reviews.GetReviewByID(ctx, reviewID)
	if err != nil {
		return nil, fromStore(err, "review")
	}
	return review, nil
}

// ReplaceReview overwrites the writable fields of a review
func (s *ReviewService) ReplaceReview(ctx context.Context, id policy.Identity, reviewID uuid.UUID, in *ReviewInput) (*models.Review, error) {
	return s.UpdateReview(ctx, id, reviewID, &ReviewPatch{
		Listing: in.Listing,
		Rating:  in.Rating,
		Comment: &in.Comment,
	})
}

// UpdateReview applies the non-nil fields of patch
func (s *ReviewService) UpdateReview(ctx context.Context, id policy.Identity, reviewID uuid.UUID, patch *ReviewPatch) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.UpdateReview")
	defer span.End()

	review, err := s.writable(ctx, id, http.MethodPatch, reviewID)
	if err != nil {
		return nil, err
	}
	if err := validateReview(patch.Rating, patch.Comment); err != nil {
		return nil, err
	}

	if patch.Listing != nil {
		review.ListingID = *patch.Listing
	}
	if patch.Rating != nil {
		review.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		review.Comment = *patch.Comment
	}

	if err := s.reviews.UpdateReview(ctx, review); err != nil {
		return nil, fromStore(err, "listing")
	}
	return review, nil
}

// DeleteReview removes a review written by the caller
func (s *ReviewService) DeleteReview(ctx context.Context, id policy.Identity, reviewID uuid.UUID) error {
	ctx, span := util.StartSpan(ctx, "ReviewService.DeleteReview")
	defer span.End()

	if _, err := s.writable(ctx, id, http.MethodDelete, reviewID); err != nil {
		return err
	}
	if err := s.reviews.DeleteReview(ctx, reviewID); err != nil {
		return fromStore(err, "review")
	}
	return nil
}

func (s *ReviewService) writable(ctx context.Context, id policy.Identity, method string, reviewID uuid.UUID) (*models.Review, error) {
	if !s.policy.HasPermission(id, method) {
		return nil, deny(id, "review")
	}
	review, err := s.reviews.GetReviewByID(ctx, reviewID)
	if err != nil {
		return nil, fromStore(err, "review")
	}
	if !s.policy.HasObjectPermission(id, method, review) {
		return nil, deny(id, "review")
	}
	return review, nil
}
