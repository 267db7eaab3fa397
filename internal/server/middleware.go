package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/mealplan/internal/auth/domain"
	obscontext "github.com/smallbiznis/mealplan/internal/observability/context"
)

const (
	contextUserIDKey    = "user_id"
	contextPrincipalKey = "principal"
	bearerPrefix        = "bearer "
)

// AuthRequired verifies the bearer token and attaches the principal to the
// gin context and the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			AbortWithError(c, authdomain.ErrMissingToken)
			return
		}

		principal, err := s.authsvc.Verify(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		actorType := "user"
		if principal.IsAdmin() {
			actorType = "admin"
		}
		ctx := obscontext.WithActor(c.Request.Context(), actorType, principal.UserID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Set(contextUserIDKey, principal.UserID.String())
		c.Set(contextPrincipalKey, principal)
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

func principalFromContext(c *gin.Context) (*authdomain.Principal, bool) {
	value, ok := c.Get(contextPrincipalKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*authdomain.Principal)
	if !ok || principal == nil || principal.UserID == 0 {
		return nil, false
	}
	return principal, true
}

// userIDFromContext returns the authenticated user id or aborts with 401.
func userIDFromContext(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.GetString(contextUserIDKey))
	if userID == "" {
		AbortWithError(c, ErrUnauthorized)
		return "", false
	}
	return userID, true
}
