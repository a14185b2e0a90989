package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/roster"
	"github.com/lumina-edu/exam-service/internal/utils"
)

// IdentityMiddleware resolves the caller from the X-User-ID header set
// by the API gateway and stores identity in the request context. When a
// directory is configured the role comes from the identity provider;
// otherwise the gateway-supplied X-User-Role header is trusted.
func IdentityMiddleware(directory roster.Directory, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
			})
			return
		}

		role := models.UserRole(c.GetHeader("X-User-Role"))

		if directory != nil {
			user, err := directory.GetUser(c.Request.Context(), userID)
			if err != nil {
				logger.Warn("Identity lookup failed", "user_id", userID, "error", err)
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
					Message: "User not recognized",
				})
				return
			}
			if !user.IsActive {
				c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
					Message: "User account is disabled",
				})
				return
			}
			role = user.Role
		}

		switch role {
		case models.RoleStudent, models.RoleTeacher, models.RoleAdmin:
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Unknown user role",
			})
			return
		}

		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Next()
	}
}

// RequireRole restricts a route group to the given roles.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := CurrentUserRole(c)
		for _, role := range roles {
			if current == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Insufficient permissions",
		})
	}
}
