package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travel-service/internal/service"
)

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), identity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) obtainToken(c *gin.Context) {
	var req service.TokenRequest
	if !h.bind(c, &req) {
		return
	}

	pair, err := h.auth.ObtainToken(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req service.RefreshRequest
	if !h.bind(c, &req) {
		return
	}

	access, err := h.auth.Refresh(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, access)
}

func (h *Handler) blacklistToken(c *gin.Context) {
	var req service.RefreshRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.auth.Blacklist(c.Request.Context(), &req); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
