package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"travel-service/internal/service"
)

func (h *Handler) listReviews(c *gin.Context) {
	var listingID *uuid.UUID
	if raw := c.Query("listing"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(c, service.NewValidationError("listing", "must be a valid UUID"))
			return
		}
		listingID = &id
	}

	reviews, err := h.reviews.ListReviews(c.Request.Context(), listingID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) createReview(c *gin.Context) {
	if !identity(c).Authenticated {
		h.writeError(c, service.ErrUnauthenticated)
		return
	}
	var in service.ReviewInput
	if !h.bind(c, &in) {
		return
	}

	review, err := h.reviews.CreateReview(c.Request.Context(), identity(c), &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) getReview(c *gin.Context) {
	id, ok := h.pathID(c, "review")
	if !ok {
		return
	}

	review, err := h.reviews.GetReview(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *Handler) replaceReview(c *gin.Context) {
	id, ok := h.pathID(c, "review")
	if !ok {
		return
	}
	var in service.ReviewInput
	if !h.bind(c, &in) {
		return
	}

	review, err := h.reviews.ReplaceReview(c.Request.Context(), identity(c), id, &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *Handler) updateReview(c *gin.Context) {
	id, ok := h.pathID(c, "review")
	if !ok {
		return
	}
	var patch service.ReviewPatch
	if !h.bind(c, &patch) {
		return
	}

	review, err := h.reviews.UpdateReview(c.Request.Context(), identity(c), id, &patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *Handler) deleteReview(c *gin.Context) {
	id, ok := h.pathID(c, "review")
	if !ok {
		return
	}

	if err := h.reviews.DeleteReview(c.Request.Context(), identity(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
