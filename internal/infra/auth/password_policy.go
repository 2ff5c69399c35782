package auth

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"ledger/config"
	domainerrors "ledger/internal/domain/errors"
)

const (
	defaultMinPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	defaultMaxPasswordLength = 72
)

var defaultForbiddenWords = []string{"password", "admin", "qwerty", "letmein"}

type passwordPolicy struct {
	cfg            config.PasswordStrengthConfig
	forbiddenWords []string
}

func newPasswordPolicy(cfg *config.PasswordStrengthConfig) *passwordPolicy {
	policy := &passwordPolicy{
		cfg: config.PasswordStrengthConfig{
			MinLength:        defaultMinPasswordLength,
			MaxLength:        defaultMaxPasswordLength,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireNumbers:   true,
			RequireSpecial:   true,
		},
		forbiddenWords: defaultForbiddenWords,
	}
	if cfg != nil {
		policy.cfg = *cfg
		if policy.cfg.MinLength <= 0 {
			policy.cfg.MinLength = defaultMinPasswordLength
		}
		if policy.cfg.MaxLength <= 0 {
			policy.cfg.MaxLength = defaultMaxPasswordLength
		}
	}

	return policy
}

func (p *passwordPolicy) validate(password string) error {
	if utf8.RuneCountInString(password) < p.cfg.MinLength {
		return p.reject("password must be at least %d characters long", p.cfg.MinLength)
	}
	if len(password) > p.cfg.MaxLength {
		return p.reject("password must be at most %d bytes long", p.cfg.MaxLength)
	}
	if p.cfg.RequireLowercase && !hasLowercase(password) {
		return p.reject("password must contain at least one lowercase letter")
	}
	if p.cfg.RequireUppercase && !hasUppercase(password) {
		return p.reject("password must contain at least one uppercase letter")
	}
	if p.cfg.RequireNumbers && !hasNumbers(password) {
		return p.reject("password must contain at least one number")
	}
	if p.cfg.RequireSpecial && !hasSpecialChars(password) {
		return p.reject("password must contain at least one special character")
	}
	if containsForbiddenWords(password, p.forbiddenWords) {
		return p.reject("password contains forbidden words")
	}

	return nil
}

// reject names the violated rule in the error details shown to the client.
func (p *passwordPolicy) reject(format string, args ...any) error {
	return domainerrors.ErrPasswordStrength.WithDetails(fmt.Sprintf(format, args...))
}

func hasUppercase(s string) bool {
	return strings.IndexFunc(s, unicode.IsUpper) >= 0
}

func hasLowercase(s string) bool {
	return strings.IndexFunc(s, unicode.IsLower) >= 0
}

func hasNumbers(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func hasSpecialChars(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}) >= 0
}

func containsForbiddenWords(s string, words []string) bool {
	lower := strings.ToLower(s)
	for _, word := range words {
		if strings.Contains(lower, word) {
			return true
		}
	}

	return false
}
