package middleware

import (
	"log/slog"

	deliverycontext "ledger/internal/delivery/context"
	domainerrors "ledger/internal/domain/errors"
	"ledger/internal/domain/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const (
	externalPrincipalKey = "oauth2.principal"

	// CredentialParam is the query or form field carrying the provider credential.
	CredentialParam = "id_token"
)

// OAuth2MiddlewareParams holds dependencies for OAuth2Middleware, injected by Fx.
type OAuth2MiddlewareParams struct {
	fx.In

	Verifier service.ExternalIdentityVerifier
	Logger   *slog.Logger
}

// OAuth2Middleware turns the provider credential on the request into an
// ExternalPrincipal for the OAuth2 success handler.
type OAuth2Middleware struct {
	verifier service.ExternalIdentityVerifier
	logger   *slog.Logger
}

// NewOAuth2Middleware creates a new OAuth2 principal middleware.
func NewOAuth2Middleware(params OAuth2MiddlewareParams) *OAuth2Middleware {
	return &OAuth2Middleware{
		verifier: params.Verifier,
		logger:   params.Logger,
	}
}

// Process verifies the credential and stores the principal. Requests without
// a verifiable credential fail with ErrOAuthFailed.
func (m *OAuth2Middleware) Process(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		credential := c.FormValue(CredentialParam)
		if credential == "" {
			return domainerrors.ErrOAuthFailed
		}

		ctx := c.Request().Context()
		principal, err := m.verifier.Verify(ctx, credential)
		if err != nil {
			deliverycontext.GetLoggerOrDefault(ctx, m.logger).Info("OAuth2 credential rejected",
				slog.String("provider", m.verifier.Provider()),
				slog.Any("error", err),
			)

			return domainerrors.ErrOAuthFailed
		}

		c.Set(externalPrincipalKey, principal)

		return next(c)
	}
}

// ExternalPrincipalFrom returns the principal stored by OAuth2Middleware.
func ExternalPrincipalFrom(c echo.Context) (*service.ExternalPrincipal, bool) {
	principal, ok := c.Get(externalPrincipalKey).(*service.ExternalPrincipal)

	return principal, ok && principal != nil
}
