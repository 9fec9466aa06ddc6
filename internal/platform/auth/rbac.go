package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Portal roles.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// ValidRole reports whether the given role names a known portal role.
func ValidRole(role string) bool {
	return role == RolePatient || role == RoleDoctor
}

// RequireRole returns middleware that checks if the user holds at least one
// of the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole := RoleFromContext(c.Request().Context())
			for _, required := range roles {
				if userRole == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
