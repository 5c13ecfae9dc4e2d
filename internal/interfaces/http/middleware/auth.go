// Package middleware adapts the access gate to gin. These are consumers of
// the auth core; routing and handlers belong to the embedding service.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/redlinehq/redline/internal/application/service"
	"github.com/redlinehq/redline/internal/domain/models"
	"github.com/redlinehq/redline/pkg/constants"
	"github.com/redlinehq/redline/pkg/errors"
	"github.com/redlinehq/redline/pkg/logger"
)

// extractBearer extracts the token from an Authorization header.
func extractBearer(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// RequireAuth gates a route group behind the access gate. actionKey names
// the guarded action for rate limiting and metrics; limit is the per-action
// budget. Verified claims are stored in the gin context under
// constants.ContextKeyClaims for downstream handlers.
func RequireAuth(gate *service.AccessGate, actionKey string, limit service.RateLimit, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractBearer(c.GetHeader("Authorization"))
		if tokenStr == "" {
			abortWith(c, errors.TokenMalformed("missing bearer token"))
			return
		}

		claims, err := gate.Authorize(c.Request.Context(), tokenStr, actionKey, limit)
		if err != nil {
			log.Warn(c.Request.Context(), "request rejected",
				logger.String("action", actionKey),
				logger.String("kind", string(errors.KindOf(err))))
			abortWith(c, err)
			return
		}

		c.Set(string(constants.ContextKeyClaims), claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(c *gin.Context) (models.Claims, bool) {
	value, ok := c.Get(string(constants.ContextKeyClaims))
	if !ok {
		return nil, false
	}
	claims, ok := value.(models.Claims)
	return claims, ok
}

func abortWith(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errors.HTTPStatus(err), gin.H{
		"error":   string(errors.KindOf(err)),
		"message": err.Error(),
	})
}
