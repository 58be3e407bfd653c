package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travel-service/internal/service"
)

func (h *Handler) initiatePayment(c *gin.Context) {
	if !identity(c).Authenticated {
		h.writeError(c, service.ErrUnauthenticated)
		return
	}
	var req service.InitiatePaymentRequest
	if !h.bind(c, &req) {
		return
	}

	res, err := h.payments.Initiate(c.Request.Context(), identity(c), &req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	if res.Replayed {
		h.logger.Debug("Replayed payment initiation", zap.String("tx_ref", res.Payment.TxRef))
		c.JSON(http.StatusOK, res.Payment)
		return
	}
	c.JSON(http.StatusCreated, res.Payment)
}

func (h *Handler) verifyPayment(c *gin.Context) {
	payment, err := h.payments.Verify(c.Request.Context(), identity(c), c.Param("tx_ref"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
