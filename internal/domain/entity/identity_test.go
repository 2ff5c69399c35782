package entity

import (
	"testing"
	"time"

	"ledger/trust"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

func TestNewLocalIdentity(t *testing.T) {
	identity, err := NewLocalIdentity(" Ana@X.com ", "Ana", "$2a$hash", now)
	require.NoError(t, err)

	assert.Equal(t, "Ana@X.com", identity.Email)
	assert.Equal(t, "ana@x.com", identity.EmailKey())
	assert.Equal(t, AuthSourceLocal, identity.AuthSource)
	assert.Equal(t, trust.RoleUser, identity.Role)
	assert.True(t, identity.Active)
	assert.False(t, identity.EmailVerified)
	assert.True(t, identity.HasPassword())

	_, err = NewLocalIdentity("ana@x.com", "Ana", "", now)
	assert.True(t, errors.Is(err, ErrInvalidIdentity))

	_, err = NewLocalIdentity("not-an-email", "Ana", "$2a$hash", now)
	assert.True(t, errors.Is(err, ErrInvalidIdentity))
}

func TestNewExternalIdentity(t *testing.T) {
	identity, err := NewExternalIdentity("Google", "sub-1", "b@x.com", "Bo", "https://img/b.png", now)
	require.NoError(t, err)

	assert.Equal(t, AuthSource("EXTERNAL:google"), identity.AuthSource)
	assert.Equal(t, "google", identity.AuthSource.Provider())
	assert.True(t, identity.AuthSource.IsExternal())
	assert.False(t, identity.HasPassword())
	assert.True(t, identity.EmailVerified)
	assert.Equal(t, "sub-1", identity.ExternalProviderID)

	_, err = NewExternalIdentity("google", "", "b@x.com", "Bo", "", now)
	assert.True(t, errors.Is(err, ErrInvalidIdentity))
}

func TestIdentity_Lifecycle(t *testing.T) {
	identity, err := NewLocalIdentity("c@x.com", "Cy", "hash", now)
	require.NoError(t, err)
	later := now.Add(time.Minute)

	assert.False(t, identity.Activate(later))
	assert.True(t, identity.Deactivate(later))
	assert.False(t, identity.Active)
	assert.Equal(t, later, identity.UpdatedAt)
	assert.False(t, identity.Deactivate(later))
	assert.True(t, identity.Activate(later))

	assert.True(t, identity.VerifyEmail(later))
	assert.False(t, identity.VerifyEmail(later))

	changed, err := identity.ChangeRole(trust.RoleAdmin, later)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, trust.RoleAdmin, identity.Role)

	_, err = identity.ChangeRole(trust.Role("OWNER"), later)
	assert.True(t, errors.Is(err, ErrInvalidIdentity))
	assert.Equal(t, trust.RoleAdmin, identity.Role)
}

func TestIdentity_UpdateProfile(t *testing.T) {
	identity, err := NewLocalIdentity("d@x.com", "Di", "hash", now)
	require.NoError(t, err)

	name := "  Diana "
	assert.True(t, identity.UpdateProfile(ProfileChange{DisplayName: &name}, now))
	assert.Equal(t, "Diana", identity.DisplayName)
	assert.False(t, identity.UpdateProfile(ProfileChange{DisplayName: &name}, now))
	assert.False(t, identity.UpdateProfile(ProfileChange{}, now))

	picture := "https://img/d.png"
	assert.True(t, identity.UpdateProfile(ProfileChange{PictureURL: &picture}, now))
	assert.Equal(t, picture, identity.PictureURL)
}

func TestAuthSource(t *testing.T) {
	tests := []struct {
		source   AuthSource
		local    bool
		external bool
		provider string
	}{
		{source: AuthSourceLocal, local: true},
		{source: ExternalAuthSource(ProviderGoogle), external: true, provider: "google"},
		{source: AuthSource("EXTERNAL:"), external: false},
		{source: AuthSource("SAML")},
	}

	for _, tt := range tests {
		t.Run(tt.source.String(), func(t *testing.T) {
			assert.Equal(t, tt.local, tt.source.IsLocal())
			assert.Equal(t, tt.external, tt.source.IsExternal())
			assert.Equal(t, tt.provider, tt.source.Provider())
		})
	}
}

func TestIdentity_RejectsNonBareEmail(t *testing.T) {
	for _, email := range []string{"Ana <a@x.com>", "<a@x.com>", "\"Ana\" <a@x.com>", "a@x.com (Ana)"} {
		t.Run(email, func(t *testing.T) {
			_, err := NewExternalIdentity(ProviderGoogle, "1", email, "Ana", "", now)
			assert.True(t, errors.Is(err, ErrInvalidIdentity))

			_, err = NewLocalIdentity(email, "Ana", "$2a$hash", now)
			assert.True(t, errors.Is(err, ErrInvalidIdentity))
		})
	}
}
