package trust

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MinSecretLength is the minimum HS256 key size in bytes.
const MinSecretLength = 32

// Config holds the only settings a service needs to issue or verify tokens.
type Config struct {
	Secret string        `json:"secret" yaml:"secret"`
	TTL    time.Duration `json:"ttl" yaml:"ttl"`
}

// Claims is the verified content of a token.
type Claims struct {
	TokenID   string
	UserID    int64
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal projects the claims onto the caller identity.
func (c Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

type tokenClaims struct {
	UserID int64 `json:"userId"`
	Role   Role  `json:"role"`
	jwt.RegisteredClaims
}

// Codec issues and validates HS256 identity tokens. It is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec builds a codec from cfg.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, errors.WithStack(ErrWeakSecret)
	}
	if cfg.TTL <= 0 {
		return nil, errors.Errorf("token ttl must be positive, got %s", cfg.TTL)
	}

	return &Codec{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
	}, nil
}

// TTL returns the lifetime given to issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the given identity, valid in [now, now+TTL).
func (c *Codec) Issue(userID int64, email string, role Role, now time.Time) (string, error) {
	if userID <= 0 {
		return "", errors.Errorf("cannot issue token for user id %d", userID)
	}
	if strings.TrimSpace(email) == "" {
		return "", errors.New("cannot issue token without subject email")
	}
	if !role.Valid() {
		return "", errors.Errorf("cannot issue token for role %q", role)
	}

	claims := tokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

// Validate verifies the signature of token and checks it against now.
// Every failure is reported as ErrInvalidToken.
func (c *Codec) Validate(token string, now time.Time) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
	)

	var claims tokenClaims
	if _, err := parser.ParseWithClaims(token, &claims, c.keyFunc); err != nil {
		return Claims{}, errors.Wrapf(ErrInvalidToken, "%v", err)
	}

	if claims.Subject == "" || claims.UserID <= 0 || !claims.Role.Valid() || claims.IssuedAt == nil {
		return Claims{}, errors.Wrap(ErrInvalidToken, "token is missing identity claims")
	}

	return Claims{
		TokenID:   claims.ID,
		UserID:    claims.UserID,
		Email:     claims.Subject,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ExtractUserID returns the user id of a valid token.
func (c *Codec) ExtractUserID(token string, now time.Time) (int64, error) {
	claims, err := c.Validate(token, now)
	if err != nil {
		return 0, err
	}

	return claims.UserID, nil
}

// ExtractEmail returns the subject email of a valid token.
func (c *Codec) ExtractEmail(token string, now time.Time) (string, error) {
	claims, err := c.Validate(token, now)
	if err != nil {
		return "", err
	}

	return claims.Email, nil
}

func (c *Codec) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrSignatureInvalid
	}

	return c.secret, nil
}
