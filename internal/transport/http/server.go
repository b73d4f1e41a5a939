package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/openintercom/intercomd/internal/auth"
	"github.com/openintercom/intercomd/internal/config"
	"github.com/openintercom/intercomd/internal/core"
)

// ErrorResponse is the JSON error body for API handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the HTTP server hosting the panel endpoints: health,
// session issue and the websocket display channel.
func NewServer(cfg config.Config, authService *auth.Service, hub *PanelHub, d *core.Dispatcher, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", healthHandler)
	r.POST("/api/session", sessionHandler(authService, logger))
	r.GET("/ws", AuthMiddleware(authService, logger), NewWSHandler(hub, d, logger))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

type sessionRequest struct {
	Secret string `json:"secret" binding:"required"`
}

type sessionResponse struct {
	Token string `json:"token"`
}

// sessionHandler exchanges the provisioning secret for a short-lived panel
// session token.
func sessionHandler(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "missing secret"})
			return
		}

		token, err := authService.IssueSession(req.Secret)
		if err != nil {
			logger.Warn().Err(err).Msg("session issue rejected")
			c.JSON(stdhttp.StatusUnauthorized, ErrorResponse{Error: "invalid secret"})
			return
		}

		c.JSON(stdhttp.StatusOK, sessionResponse{Token: token})
	}
}
