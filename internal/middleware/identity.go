package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// identityKey renders the authenticated user id for rate-limit bucket keys.
// Unauthenticated requests share the "anon" bucket per client IP.
func identityKey(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	}
	return "anon"
}
