package service

import (
	"travel-service/internal/policy"
	"travel-service/internal/util"
)

// deny picks 401 or 403 for a rejected check and counts it.
func deny(id policy.Identity, resource string) error {
	util.AuthorizationDeniedTotal.WithLabelValues(resource).Inc()
	if !id.Authenticated {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
