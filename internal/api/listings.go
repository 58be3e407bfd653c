package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travel-service/internal/service"
)

func (h *Handler) listListings(c *gin.Context) {
	listings, err := h.listings.ListListings(c.Request.Context(), identity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (h *Handler) createListing(c *gin.Context) {
	var in service.ListingInput
	if !h.bind(c, &in) {
		return
	}

	listing, err := h.listings.CreateListing(c.Request.Context(), identity(c), &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (h *Handler) getListing(c *gin.Context) {
	id, ok := h.pathID(c, "listing")
	if !ok {
		return
	}

	listing, err := h.listings.GetListing(c.Request.Context(), identity(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) replaceListing(c *gin.Context) {
	id, ok := h.pathID(c, "listing")
	if !ok {
		return
	}
	var in service.ListingInput
	if !h.bind(c, &in) {
		return
	}

	listing, err := h.listings.ReplaceListing(c.Request.Context(), identity(c), id, &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) updateListing(c *gin.Context) {
	id, ok := h.pathID(c, "listing")
	if !ok {
		return
	}
	var patch service.ListingPatch
	if !h.bind(c, &patch) {
		return
	}

	listing, err := h.listings.UpdateListing(c.Request.Context(), identity(c), id, &patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) deleteListing(c *gin.Context) {
	id, ok := h.pathID(c, "listing")
	if !ok {
		return
	}

	if err := h.listings.DeleteListing(c.Request.Context(), identity(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
