// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"net/mail"
	"strings"
	"time"

	"ledger/internal/errors"
	"ledger/trust"
)

// ErrInvalidIdentity is returned when an identity violates one of its invariants.
var ErrInvalidIdentity = errors.New("invalid identity")

// Identity is the canonical account record shared by every service through its id.
// Role, Active and EmailVerified change only through the lifecycle methods below.
type Identity struct {
	ID                 int64      // Stable numeric id, assigned by the store on Create.
	Email              string     // Login handle, stored as entered.
	PasswordHash       string     // Empty for identities created by an external provider.
	DisplayName        string     // Name shown to other users.
	PictureURL         string     // Optional avatar, usually supplied by the provider.
	AuthSource         AuthSource // How the identity was first created.
	ExternalProviderID string     // Provider subject id, set only for external identities.
	Role               trust.Role
	Active             bool
	EmailVerified      bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NormalizeEmail returns the key used for case-insensitive email comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewLocalIdentity builds an unsaved identity that authenticates with a password.
func NewLocalIdentity(email, displayName, passwordHash string, now time.Time) (*Identity, error) {
	identity := &Identity{
		Email:         strings.TrimSpace(email),
		PasswordHash:  passwordHash,
		DisplayName:   strings.TrimSpace(displayName),
		AuthSource:    AuthSourceLocal,
		Role:          trust.RoleUser,
		Active:        true,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	return identity, nil
}

// NewExternalIdentity builds an unsaved identity vouched for by provider.
// The provider has already verified the email address.
func NewExternalIdentity(provider, providerID, email, displayName, pictureURL string, now time.Time) (*Identity, error) {
	identity := &Identity{
		Email:              strings.TrimSpace(email),
		DisplayName:        strings.TrimSpace(displayName),
		PictureURL:         strings.TrimSpace(pictureURL),
		AuthSource:         ExternalAuthSource(provider),
		ExternalProviderID: strings.TrimSpace(providerID),
		Role:               trust.RoleUser,
		Active:             true,
		EmailVerified:      true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	return identity, nil
}

// EmailKey is the normalized email used for uniqueness.
func (i *Identity) EmailKey() string {
	return NormalizeEmail(i.Email)
}

// HasPassword reports whether the identity can log in with a password.
func (i *Identity) HasPassword() bool {
	return i.PasswordHash != ""
}

// Principal returns the token subject for this identity.
func (i *Identity) Principal() trust.Principal {
	return trust.Principal{UserID: i.ID, Email: i.Email, Role: i.Role}
}

// Activate marks the identity active. It reports whether anything changed.
func (i *Identity) Activate(now time.Time) bool {
	if i.Active {
		return false
	}
	i.Active = true
	i.UpdatedAt = now

	return true
}

// Deactivate marks the identity inactive. It reports whether anything changed.
func (i *Identity) Deactivate(now time.Time) bool {
	if !i.Active {
		return false
	}
	i.Active = false
	i.UpdatedAt = now

	return true
}

// VerifyEmail marks the email verified. It reports whether anything changed.
func (i *Identity) VerifyEmail(now time.Time) bool {
	if i.EmailVerified {
		return false
	}
	i.EmailVerified = true
	i.UpdatedAt = now

	return true
}

// ChangeRole assigns role. It reports whether anything changed.
func (i *Identity) ChangeRole(role trust.Role, now time.Time) (bool, error) {
	if !role.Valid() {
		return false, errors.Wrapf(ErrInvalidIdentity, "unknown role %q", role)
	}
	if i.Role == role {
		return false, nil
	}
	i.Role = role
	i.UpdatedAt = now

	return true, nil
}

// ProfileChange lists the profile fields a caller may edit. Nil fields are left alone.
type ProfileChange struct {
	DisplayName *string
	PictureURL  *string
}

// UpdateProfile applies change. It reports whether anything changed.
func (i *Identity) UpdateProfile(change ProfileChange, now time.Time) bool {
	changed := false
	if change.DisplayName != nil {
		if name := strings.TrimSpace(*change.DisplayName); name != i.DisplayName {
			i.DisplayName = name
			changed = true
		}
	}
	if change.PictureURL != nil {
		if picture := strings.TrimSpace(*change.PictureURL); picture != i.PictureURL {
			i.PictureURL = picture
			changed = true
		}
	}
	if changed {
		i.UpdatedAt = now
	}

	return changed
}

// Validate checks the record invariants.
func (i *Identity) Validate() error {
	if i.Email == "" {
		return errors.Wrap(ErrInvalidIdentity, "email is required")
	}
	// Only a bare mailbox is accepted; display-name and angle-bracket forms
	// would give one mailbox several email keys.
	if addr, err := mail.ParseAddress(i.Email); err != nil || addr.Name != "" || addr.Address != i.Email {
		return errors.Wrapf(ErrInvalidIdentity, "malformed email %q", i.Email)
	}
	if !i.Role.Valid() {
		return errors.Wrapf(ErrInvalidIdentity, "unknown role %q", i.Role)
	}

	switch {
	case i.AuthSource.IsLocal():
		if !i.HasPassword() {
			return errors.Wrap(ErrInvalidIdentity, "local identity requires a password hash")
		}
	case i.AuthSource.IsExternal():
		if i.ExternalProviderID == "" {
			return errors.Wrap(ErrInvalidIdentity, "external identity requires a provider id")
		}
	default:
		return errors.Wrapf(ErrInvalidIdentity, "unknown auth source %q", i.AuthSource)
	}

	return nil
}
