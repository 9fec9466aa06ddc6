package view

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// EchoResolver resolves named routes through the echo router, so templates
// and handlers never hard-code paths.
type EchoResolver struct {
	e *echo.Echo
}

func NewEchoResolver(e *echo.Echo) *EchoResolver {
	return &EchoResolver{e: e}
}

func (r *EchoResolver) Resolve(route string) (string, error) {
	uri := r.e.Reverse(route)
	if uri == "" {
		return "", fmt.Errorf("route %q is not registered", route)
	}
	return uri, nil
}

// StaticResolver resolves routes from a fixed map. Used in tests and anywhere
// a router is not available.
type StaticResolver map[string]string

func (r StaticResolver) Resolve(route string) (string, error) {
	target, ok := r[route]
	if !ok {
		return "", fmt.Errorf("route %q is not registered", route)
	}
	return target, nil
}
