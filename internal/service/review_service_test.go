package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-service/internal/models"
	"travel-service/internal/policy"
	"travel-service/internal/testutil"
)

func intPtr(v int) *int { return &v }

func TestCreateReviewForcesAuthor(t *testing.T) {
	st := testutil.NewMemStore()
	host := st.AddUser("host", models.RoleHost)
	guest := st.AddUser("guest", models.RoleGuest)
	listing := addListing(t, st, host, "10.00")
	svc := NewReviewService(st)

	review, err := svc.CreateReview(context.Background(), identityOf(guest), &ReviewInput{
		Listing: &listing.ID,
		Rating:  intPtr(5),
		Comment: "Lovely",
	})
	require.NoError(t, err)
	assert.Equal(t, guest.ID, review.UserID)

	_, err = svc.CreateReview(context.Background(), policy.Anonymous(), &ReviewInput{Listing: &listing.ID, Rating: intPtr(4)})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateReviewRejectsOutOfRange(t *testing.T) {
	st := testutil.NewMemStore()
	host := st.AddUser("host", models.RoleHost)
	guest := st.AddUser("guest", models.RoleGuest)
	listing := addListing(t, st, host, "10.00")
	svc := NewReviewService(st)

	for _, rating := range []int{0, 6, -3} {
		_, err := svc.CreateReview(context.Background(), identityOf(guest), &ReviewInput{
			Listing: &listing.ID,
			Rating:  intPtr(rating),
		})
		var v *ValidationError
		require.ErrorAs(t, err, &v)
		assert.Contains(t, v.Fields, "rating")
	}

	_, err := svc.CreateReview(context.Background(), identityOf(guest), &ReviewInput{
		Listing: &listing.ID,
		Rating:  intPtr(3),
		Comment: strings.Repeat("x", models.MaxCommentLength+1),
	})
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "comment")

	all, err := svc.ListReviews(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReviewOwnershipAndFilter(t *testing.T) {
	st := testutil.NewMemStore()
	host := st.AddUser("host", models.RoleHost)
	author := st.AddUser("author", models.RoleGuest)
	other := st.AddUser("other", models.RoleGuest)
	l1 := addListing(t, st, host, "10.00")
	l2 := addListing(t, st, host, "20.00")
	svc := NewReviewService(st)

	r1, err := svc.CreateReview(context.Background(), identityOf(author), &ReviewInput{Listing: &l1.ID, Rating: intPtr(4)})
	require.NoError(t, err)
	_, err = svc.CreateReview(context.Background(), identityOf(other), &ReviewInput{Listing: &l2.ID, Rating: intPtr(2)})
	require.NoError(t, err)

	filtered, err := svc.ListReviews(context.Background(), &l1.ID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, r1.ID, filtered[0].ID)

	_, err = svc.UpdateReview(context.Background(), identityOf(other), r1.ID, &ReviewPatch{Rating: intPtr(1)})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateReview(context.Background(), identityOf(author), r1.ID, &ReviewPatch{Rating: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)

	assert.ErrorIs(t, svc.DeleteReview(context.Background(), identityOf(other), r1.ID), ErrForbidden)
	require.NoError(t, svc.DeleteReview(context.Background(), identityOf(author), r1.ID))

	_, err = svc.GetReview(context.Background(), r1.ID)
	assert.True(t, IsNotFound(err))
	_, err = svc.GetReview(context.Background(), uuid.New())
	assert.True(t, IsNotFound(err))
}
