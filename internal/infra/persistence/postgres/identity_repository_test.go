package postgres

import (
	"testing"
	"time"

	"ledger/internal/domain/entity"
	domainerrors "ledger/internal/domain/errors"
	"ledger/internal/domain/repository"
	"ledger/internal/infra/persistence/model"
	"ledger/trust"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIdentityModelRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("local identity stores a NULL provider id", func(t *testing.T) {
		identity := &entity.Identity{
			ID:           7,
			Email:        "Ana@Example.com",
			PasswordHash: "$2a$12$hash",
			DisplayName:  "Ana",
			AuthSource:   entity.AuthSourceLocal,
			Role:         trust.RoleUser,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		m := fromIdentityDomain(identity)
		assert.Equal(t, "ana@example.com", m.EmailKey)
		assert.Nil(t, m.ExternalProviderID)
		if assert.NotNil(t, m.PasswordHash) {
			assert.Equal(t, "$2a$12$hash", *m.PasswordHash)
		}
		assert.Equal(t, identity, toIdentityDomain(m))
	})

	t.Run("external identity stores a NULL hash", func(t *testing.T) {
		identity := &entity.Identity{
			ID:                 8,
			Email:              "bo@example.com",
			AuthSource:         entity.ExternalAuthSource(entity.ProviderGoogle),
			ExternalProviderID: "sub-1",
			Role:               trust.RoleAdmin,
			Active:             false,
			EmailVerified:      true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		m := fromIdentityDomain(identity)
		assert.Nil(t, m.PasswordHash)
		assert.Equal(t, "EXTERNAL:google", m.AuthSource)
		assert.False(t, m.Active)
		assert.Equal(t, identity, toIdentityDomain(m))
	})
}

func TestTranslateWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "email key violation",
			err:  &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: model.ConstraintIdentityEmailKey},
			want: domainerrors.ErrDuplicateEmail,
		},
		{
			name: "external id violation",
			err:  &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: model.ConstraintIdentityExternal},
			want: domainerrors.ErrExternalIdentityConflict,
		},
		{
			name: "translated duplicate key",
			err:  gorm.ErrDuplicatedKey,
			want: domainerrors.ErrDuplicateEmail,
		},
		{
			name: "not null violation",
			err:  &pgconn.PgError{Code: pgNotNullViolation},
			want: domainerrors.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateWriteError(errors.Wrap(tt.err, "insert"), "failed")
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("other errors become database errors", func(t *testing.T) {
		cause := errors.New("connection reset")
		got := translateWriteError(cause, "failed")

		var dbErr *domainerrors.DatabaseExecuteError
		assert.ErrorAs(t, got, &dbErr)
		assert.ErrorIs(t, got, cause)
	})
}

func TestNotFoundOr(t *testing.T) {
	assert.ErrorIs(t, notFoundOr(gorm.ErrRecordNotFound, "x"), repository.ErrIdentityNotFound)

	cause := errors.New("boom")
	err := notFoundOr(cause, "lookup failed")
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, repository.ErrIdentityNotFound)
}
