package validator

import (
	"testing"

	domainerrors "ledger/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required"`
	DisplayName string  `json:"displayName" validate:"max=5"`
	PictureURL  *string `json:"pictureUrl,omitempty" validate:"omitempty,url"`
}

func TestValidate(t *testing.T) {
	v := New()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, v.Validate(&signup{Email: "a@x.com", Password: "p"}))
	})

	t.Run("reports json field names", func(t *testing.T) {
		bad := "not a url"
		err := v.Validate(&signup{Email: "nope", DisplayName: "too long", PictureURL: &bad})
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

		var appErr domainerrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "email must be a valid email address; password is required; "+
			"displayName must be at most 5 characters; pictureUrl must be a valid URL", appErr.Details())
	})
}
