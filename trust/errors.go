package trust

import "github.com/pkg/errors"

// ErrUnauthenticated is the root of every credential failure. Callers that
// only need to map to 401 can test for it alone.
var ErrUnauthenticated = errors.New("unauthenticated")

var (
	ErrMissingCredentials = errors.WithMessage(ErrUnauthenticated, "authorization header is missing")
	ErrMalformedHeader    = errors.WithMessage(ErrUnauthenticated, "invalid authorization header")
	ErrInvalidToken       = errors.WithMessage(ErrUnauthenticated, "invalid or expired token")
)

// ErrForbidden is returned when an authenticated principal fails an authorization check.
var ErrForbidden = errors.New("forbidden")

// ErrWeakSecret is returned by NewCodec for secrets too short for HS256.
var ErrWeakSecret = errors.New("token secret must be at least 32 bytes")
