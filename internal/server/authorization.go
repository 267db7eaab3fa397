package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// authorizeAction gates admin routes through the RBAC enforcer.
func (s *Server) authorizeAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}

		if err := s.authzSvc.Authorize(
			c.Request.Context(),
			principal.UserID.String(),
			principal.Role,
			strings.TrimSpace(object),
			strings.TrimSpace(action),
		); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
