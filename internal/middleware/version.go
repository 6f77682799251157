package middleware

import "github.com/labstack/echo/v4"

// VersionHeader is set on every response.
const VersionHeader = "X-API-Version"

// Version stamps responses with the running build version.
func Version(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(VersionHeader, version)
			return next(c)
		}
	}
}
