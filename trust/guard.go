package trust

import (
	"strings"
	"time"
)

const bearerPrefix = "Bearer "

// Guard authenticates requests locally against a Codec. It never contacts the issuer.
type Guard struct {
	codec *Codec
	now   func() time.Time
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGuard creates a guard over codec.
func NewGuard(codec *Codec, opts ...GuardOption) *Guard {
	g := &Guard{
		codec: codec,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Authenticate resolves a raw Authorization header value into a Principal.
func (g *Guard) Authenticate(header string) (Principal, error) {
	token, err := BearerToken(header)
	if err != nil {
		return Principal{}, err
	}

	claims, err := g.Verify(token)
	if err != nil {
		return Principal{}, err
	}

	return claims.Principal(), nil
}

// Verify validates a bare token at the guard's current time.
func (g *Guard) Verify(token string) (Claims, error) {
	return g.codec.Validate(token, g.now())
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", ErrMissingCredentials
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrMalformedHeader
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMalformedHeader
	}

	return token, nil
}
