package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"travel-service/internal/policy"
	"travel-service/internal/service"
)

const identityKey = "identity"

// authenticate resolves the bearer token, if any, into the request's
// identity. A request without a token proceeds anonymously; a request with a
// bad one is rejected outright.
func (h *Handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(identityKey, policy.Anonymous())
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			h.abortWithError(c, service.ErrUnauthenticated)
			return
		}

		id, err := h.auth.Authenticate(strings.TrimSpace(token))
		if err != nil {
			h.abortWithError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func identity(c *gin.Context) policy.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(policy.Identity); ok {
			return id
		}
	}
	return policy.Anonymous()
}
