// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strings"

	"ledger/config"
	domainerrors "ledger/internal/domain/errors"
	"ledger/internal/domain/service"
	"ledger/internal/errors"

	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"
)

// passwordHasher hashes with the configured algorithm and verifies digests of
// either supported algorithm, so switching algorithms never locks out existing accounts.
type passwordHasher struct {
	algorithm  string
	bcryptCost int
	argon2     Argon2Params
	policy     *passwordPolicy
}

// HasherParams holds dependencies for the password hasher, injected by Fx.
type HasherParams struct {
	fx.In

	Config *config.Config
}

// NewPasswordHasher builds the hasher selected by auth.passwordAlgorithm.
func NewPasswordHasher(params HasherParams) (service.PasswordHasher, error) {
	authCfg := params.Config.Auth
	if authCfg == nil {
		authCfg = &config.AuthConfig{}
	}

	switch authCfg.PasswordAlgorithm {
	case "", config.PasswordAlgorithmBcrypt:
		return NewBcryptHasher(authCfg.BcryptCost, params.Config.PasswordStrength), nil
	case config.PasswordAlgorithmArgon2id:
		return NewArgon2Hasher(Argon2Params{
			Time:      authCfg.Argon2Time,
			MemoryKiB: authCfg.Argon2MemoryKiB,
			Threads:   authCfg.Argon2Threads,
		}, params.Config.PasswordStrength), nil
	default:
		return nil, errors.Errorf("unknown password algorithm: %s", authCfg.PasswordAlgorithm)
	}
}

// NewBcryptHasher returns a bcrypt hasher. Costs outside bcrypt's range fall back to the default.
func NewBcryptHasher(cost int, strength *config.PasswordStrengthConfig) service.PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &passwordHasher{
		algorithm:  config.PasswordAlgorithmBcrypt,
		bcryptCost: cost,
		argon2:     defaultArgon2Params(),
		policy:     newPasswordPolicy(strength),
	}
}

// NewArgon2Hasher returns an argon2id hasher. Zero parameters take the defaults.
func NewArgon2Hasher(params Argon2Params, strength *config.PasswordStrengthConfig) service.PasswordHasher {
	return &passwordHasher{
		algorithm:  config.PasswordAlgorithmArgon2id,
		bcryptCost: bcrypt.DefaultCost,
		argon2:     params.withDefaults(),
		policy:     newPasswordPolicy(strength),
	}
}

// Hash generates a salted digest. Both algorithms generate their own salt.
func (h *passwordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.Wrap(domainerrors.ErrPasswordHashFailed, "empty password")
	}

	if h.algorithm == config.PasswordAlgorithmArgon2id {
		digest, err := h.argon2.hash(password)
		if err != nil {
			return "", errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
		}

		return digest, nil
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return "", errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	return string(digest), nil
}

// Check compares a plaintext password with a digest produced by either algorithm.
func (h *passwordHasher) Check(password, hash string) bool {
	if hash == "" {
		return false
	}
	if strings.HasPrefix(hash, argon2Prefix) {
		return verifyArgon2(password, hash)
	}

	// err is nil if the password and hash match.
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength applies the configured password policy.
func (h *passwordHasher) ValidatePasswordStrength(password string) error {
	return h.policy.validate(password)
}
