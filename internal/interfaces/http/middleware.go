package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

const claimsKey = "claims"

// authMiddleware verifies the Bearer token and stores its claims on
// the request context.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing bearer token",
			})
			return
		}

		claims, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid or expired token",
			})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// requireAdmin rejects callers whose token does not carry the Admin role
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil || claims.Role != entity.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, Response{
				Success: false,
				Error:   "admin role required",
			})
			return
		}
		c.Next()
	}
}
