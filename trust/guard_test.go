package trust

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{header: "Bearer   abc.def.ghi  ", want: "abc.def.ghi"},
		{header: "", wantErr: ErrMissingCredentials},
		{header: "   ", wantErr: ErrMissingCredentials},
		{header: "Basic dXNlcjpwYXNz", wantErr: ErrMalformedHeader},
		{header: "bearer abc", wantErr: ErrMalformedHeader},
		{header: "Bearer", wantErr: ErrMalformedHeader},
		{header: "Bearer ", wantErr: ErrMalformedHeader},
		{header: "Bearer a b", wantErr: ErrMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrUnauthenticated)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuard_Authenticate(t *testing.T) {
	codec := newTestCodec(t)
	now := issuedAt
	guard := NewGuard(codec, WithClock(func() time.Time { return now }))

	token, err := codec.Issue(5, "d@x.com", RoleAdmin, issuedAt)
	require.NoError(t, err)

	principal, err := guard.Authenticate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: 5, Email: "d@x.com", Role: RoleAdmin}, principal)

	now = issuedAt.Add(time.Hour)
	_, err = guard.Authenticate("Bearer " + token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = guard.Authenticate(token)
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	p := Principal{UserID: 1, Email: "a@x.com", Role: RoleUser}
	got, ok := PrincipalFromContext(WithPrincipal(context.Background(), p))
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = ParseRole("merchant")
	assert.False(t, ok)
}
