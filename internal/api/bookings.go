package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travel-service/internal/service"
)

func (h *Handler) listBookings(c *gin.Context) {
	bookings, err := h.bookings.ListBookings(c.Request.Context(), identity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) createBooking(c *gin.Context) {
	if !identity(c).Authenticated {
		h.writeError(c, service.ErrUnauthenticated)
		return
	}
	var in service.BookingInput
	if !h.bind(c, &in) {
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), identity(c), &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *Handler) getBooking(c *gin.Context) {
	id, ok := h.pathID(c, "booking")
	if !ok {
		return
	}

	booking, err := h.bookings.GetBooking(c.Request.Context(), identity(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) replaceBooking(c *gin.Context) {
	id, ok := h.pathID(c, "booking")
	if !ok {
		return
	}
	var in service.BookingInput
	if !h.bind(c, &in) {
		return
	}

	booking, err := h.bookings.ReplaceBooking(c.Request.Context(), identity(c), id, &in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) updateBooking(c *gin.Context) {
	id, ok := h.pathID(c, "booking")
	if !ok {
		return
	}
	var patch service.BookingPatch
	if !h.bind(c, &patch) {
		return
	}

	booking, err := h.bookings.UpdateBooking(c.Request.Context(), identity(c), id, &patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) deleteBooking(c *gin.Context) {
	id, ok := h.pathID(c, "booking")
	if !ok {
		return
	}

	if err := h.bookings.DeleteBooking(c.Request.Context(), identity(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
