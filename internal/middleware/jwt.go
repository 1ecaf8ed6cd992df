package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pennine-megagames/backend/internal/auth"
	"github.com/pennine-megagames/backend/pkg/response"
)

const (
	// ContextOrganiserID is the key for the authenticated organiser's ID in gin context.
	ContextOrganiserID = "organiser_id"
	// ContextOrganiserEmail is the key for the authenticated organiser's email in gin context.
	ContextOrganiserEmail = "organiser_email"
)

// JWT returns a middleware that validates the bearer token and sets the
// organiser's identity in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextOrganiserID, claims.OrganiserID)
		c.Set(ContextOrganiserEmail, claims.Email)
		c.Next()
	}
}

// OrganiserID returns the authenticated organiser's ID from gin context.
func OrganiserID(c *gin.Context) uuid.UUID {
	return c.MustGet(ContextOrganiserID).(uuid.UUID)
}
