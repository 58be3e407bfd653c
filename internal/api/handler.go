package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"travel-service/internal/service"
	"travel-service/internal/util"
)

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the business services the handlers call
type Services struct {
	Auth     *service.AuthService
	Listings *service.ListingService
	Bookings *service.BookingService
	Reviews  *service.ReviewService
	Payments *service.PaymentService
}

// Handler contains HTTP handlers
type Handler struct {
	auth     *service.AuthService
	listings *service.ListingService
	bookings *service.BookingService
	reviews  *service.ReviewService
	payments *service.PaymentService
	checks   map[string]Pinger
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. checks are pinged by /ready.
func NewHandler(svcs Services, checks map[string]Pinger) *Handler {
	registerJSONFieldNames()
	return &Handler{
		auth:     svcs.Auth,
		listings: svcs.Listings,
		bookings: svcs.Bookings,
		reviews:  svcs.Reviews,
		payments: svcs.Payments,
		checks:   checks,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api", h.authenticate())
	{
		api.POST("/users", h.register)
		api.GET("/users/me", h.me)

		api.POST("/token", h.obtainToken)
		api.POST("/token/refresh", h.refreshToken)
		api.POST("/token/blacklist", h.blacklistToken)

		api.GET("/listings", h.listListings)
		api.POST("/listings", h.createListing)
		api.GET("/listings/:id", h.getListing)
		api.PUT("/listings/:id", h.replaceListing)
		api.PATCH("/listings/:id", h.updateListing)
		api.DELETE("/listings/:id", h.deleteListing)

		api.GET("/bookings", h.listBookings)
		api.POST("/bookings", h.createBooking)
		api.GET("/bookings/:id", h.getBooking)
		api.PUT("/bookings/:id", h.replaceBooking)
		api.PATCH("/bookings/:id", h.updateBooking)
		api.DELETE("/bookings/:id", h.deleteBooking)

		api.GET("/reviews", h.listReviews)
		api.POST("/reviews", h.createReview)
		api.GET("/reviews/:id", h.getReview)
		api.PUT("/reviews/:id", h.replaceReview)
		api.PATCH("/reviews/:id", h.updateReview)
		api.DELETE("/reviews/:id", h.deleteReview)

		api.POST("/payments/initiate", h.initiatePayment)
		api.GET("/payments/verify/:tx_ref", h.verifyPayment)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			status,
		).Inc()
	}
}
