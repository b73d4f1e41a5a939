package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/openintercom/intercomd/internal/auth"
)

// ContextKeyDeviceID is the gin context key for the authenticated device id.
const ContextKeyDeviceID = "device_id"

// AuthMiddleware validates the panel session token, taken from the
// Authorization header or, for websocket attaches, the token query parameter.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			logger.Debug().Msg("missing session token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing session token"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateSession(token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid session token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid session token"})
			c.Abort()
			return
		}

		c.Set(ContextKeyDeviceID, claims.DeviceID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
