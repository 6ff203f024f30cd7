package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// tokenAuth guards a route with a shared token carried in header.
// An unset expected token is a server misconfiguration (500); a missing or
// wrong presented token is a caller failure (401). Neither reaches the handler.
func (s *Server) tokenAuth(header, expected, kind string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if expected == "" {
				s.logger.Error("Token not configured, rejecting request",
					zap.String("kind", kind),
					zap.String("path", c.Request().URL.Path))
				return c.JSON(http.StatusInternalServerError, errorBody("server misconfiguration: "+kind+" token is not configured"))
			}

			presented := c.Request().Header.Get(header)
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
				s.logger.Warn("Authentication failed",
					zap.String("kind", kind),
					zap.String("reason", "auth"),
					zap.String("machine_id", c.Param("id")),
					zap.String("remote_ip", c.RealIP()),
					zap.Bool("header_present", presented != ""))
				return c.JSON(http.StatusUnauthorized, errorBody("Unauthorized: "+kind+" authentication required"))
			}

			return next(c)
		}
	}
}
