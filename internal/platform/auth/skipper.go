package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths bypass staff authentication. The status endpoint is
// partner-facing and identifies callers by API key instead.
var publicPaths = map[string]bool{
	"/health":        true,
	"/metrics":       true,
	"/api/v1/status": true,
}

// AuthSkipper returns true for requests whose route should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether path bypasses authentication.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
