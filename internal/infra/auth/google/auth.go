// Package google verifies Google Sign-In ID tokens for the OAuth2 success endpoint.
package google

import (
	"context"
	"log/slog"
	"strings"

	"ledger/config"
	"ledger/internal/domain/entity"
	"ledger/internal/domain/service"
	"ledger/internal/errors"

	"google.golang.org/api/idtoken"
)

var validIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// IDTokenVerifier implements service.ExternalIdentityVerifier for Google ID tokens.
type IDTokenVerifier struct {
	clientID string
	validate validateFunc
	logger   *slog.Logger
}

// NewIDTokenVerifier creates the Google verifier. Tokens are checked against googleOAuth.clientId.
func NewIDTokenVerifier(cfg *config.Config, logger *slog.Logger) service.ExternalIdentityVerifier {
	clientID := ""
	if cfg.GoogleOAuth != nil {
		clientID = cfg.GoogleOAuth.ClientID
	}

	return &IDTokenVerifier{
		clientID: clientID,
		validate: idtoken.Validate,
		logger:   logger,
	}
}

// Provider returns the provider name used in the EXTERNAL auth source.
func (v *IDTokenVerifier) Provider() string {
	return entity.ProviderGoogle
}

// Verify validates the ID token signature, audience and expiry with Google's
// published keys and maps its claims.
func (v *IDTokenVerifier) Verify(ctx context.Context, credential string) (*service.ExternalPrincipal, error) {
	if v.clientID == "" {
		return nil, errors.New("google oauth client id is not configured")
	}
	if strings.TrimSpace(credential) == "" {
		return nil, errors.New("missing id token")
	}

	payload, err := v.validate(ctx, credential, v.clientID)
	if err != nil {
		v.logger.Warn("Google ID token rejected", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to validate token")
	}

	principal, err := principalFromPayload(payload)
	if err != nil {
		return nil, err
	}

	v.logger.Debug("Google ID token verified", slog.String("providerID", principal.ProviderID))

	return principal, nil
}

func principalFromPayload(payload *idtoken.Payload) (*service.ExternalPrincipal, error) {
	if !isValidIssuer(payload.Issuer) {
		return nil, errors.Errorf("invalid issuer: %s", payload.Issuer)
	}
	if payload.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	email := claimString(payload.Claims, "email")
	if email == "" {
		return nil, errors.New("token has no email claim")
	}
	if verified, ok := payload.Claims["email_verified"].(bool); !ok || !verified {
		return nil, errors.New("email not verified")
	}

	return &service.ExternalPrincipal{
		Provider:   entity.ProviderGoogle,
		ProviderID: payload.Subject,
		Email:      email,
		GivenName:  claimString(payload.Claims, "given_name"),
		FamilyName: claimString(payload.Claims, "family_name"),
		PictureURL: claimString(payload.Claims, "picture"),
	}, nil
}

func isValidIssuer(issuer string) bool {
	for _, valid := range validIssuers {
		if issuer == valid {
			return true
		}
	}

	return false
}

func claimString(claims map[string]any, key string) string {
	s, _ := claims[key].(string)

	return strings.TrimSpace(s)
}
