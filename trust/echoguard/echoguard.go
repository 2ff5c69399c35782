// Package echoguard adapts trust.Guard to echo middleware.
package echoguard

import (
	"net/http"

	"ledger/trust"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const principalKey = "trust.principal"

// ErrorHandler renders an authentication failure.
type ErrorHandler func(c echo.Context, err error) error

type options struct {
	onError ErrorHandler
}

// Option configures the middleware.
type Option func(*options)

// WithErrorHandler replaces the default 401 JSON body.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onError = h
		}
	}
}

// Authenticate rejects requests without a valid bearer token and stores the
// principal on both the echo context and the request context.
func Authenticate(g *trust.Guard, opts ...Option) echo.MiddlewareFunc {
	o := &options{onError: defaultErrorHandler}
	for _, opt := range opts {
		opt(o)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := g.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return o.onError(c, err)
			}

			c.Set(principalKey, principal)
			req := c.Request()
			c.SetRequest(req.WithContext(trust.WithPrincipal(req.Context(), principal)))

			return next(c)
		}
	}
}

// PrincipalFrom returns the principal set by Authenticate.
func PrincipalFrom(c echo.Context) (trust.Principal, bool) {
	if p, ok := c.Get(principalKey).(trust.Principal); ok && p.Valid() {
		return p, true
	}

	return trust.PrincipalFromContext(c.Request().Context())
}

func defaultErrorHandler(c echo.Context, err error) error {
	message := "Invalid or expired token"
	switch {
	case errors.Is(err, trust.ErrMissingCredentials):
		message = "Authorization header is missing"
	case errors.Is(err, trust.ErrMalformedHeader):
		message = "Invalid authorization header"
	}

	return c.JSON(http.StatusUnauthorized, map[string]string{"error": message})
}
