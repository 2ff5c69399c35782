package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"ledger/internal/delivery/api/response"
	domainerrors "ledger/internal/domain/errors"
	"ledger/internal/domain/service"
	mockservice "ledger/internal/mocks/service"
	"ledger/trust"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail bool
	}{
		{"app error with details", domainerrors.ErrValidationFailed.WithDetails("email is required"), http.StatusBadRequest, "VALIDATION_FAILED", true},
		{"wrapped app error", errors.Wrap(domainerrors.ErrIdentityNotFound, "lookup"), http.StatusNotFound, "IDENTITY_NOT_FOUND", false},
		{"database error hides details", domainerrors.NewDatabaseExecuteError(errors.New("conn reset"), "insert identities"), http.StatusInternalServerError, "DATABASE_EXECUTE_FAILED", false},
		{"missing credentials", trust.ErrMissingCredentials, http.StatusUnauthorized, "UNAUTHENTICATED", false},
		{"forbidden", trust.ErrForbidden, http.StatusForbidden, "FORBIDDEN", false},
		{"echo error", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "HTTP_ERROR", false},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", false},
	}

	m := NewErrorMiddleware(newDiscardLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			m.HandleHTTPError(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body response.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
			if tt.wantDetail {
				assert.NotNil(t, body.Details)
			} else {
				assert.Nil(t, body.Details)
			}
		})
	}
}

func TestHandleHTTPErrorSkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, c.NoContent(http.StatusAccepted))

	NewErrorMiddleware(newDiscardLogger()).HandleHTTPError(errors.New("late"), c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestOAuth2MiddlewareProcess(t *testing.T) {
	principal := &service.ExternalPrincipal{Provider: "google", ProviderID: "g-1", Email: "g@x.com"}

	tests := []struct {
		name    string
		query   string
		setup   func(v *mockservice.MockExternalIdentityVerifier)
		wantErr error
	}{
		{
			name:    "missing credential",
			setup:   func(*mockservice.MockExternalIdentityVerifier) {},
			wantErr: domainerrors.ErrOAuthFailed,
		},
		{
			name:  "rejected credential",
			query: "?id_token=bad",
			setup: func(v *mockservice.MockExternalIdentityVerifier) {
				v.EXPECT().Verify(mock.Anything, "bad").Return(nil, errors.New("expired")).Once()
				v.EXPECT().Provider().Return("google").Once()
			},
			wantErr: domainerrors.ErrOAuthFailed,
		},
		{
			name:  "verified credential",
			query: "?id_token=good",
			setup: func(v *mockservice.MockExternalIdentityVerifier) {
				v.EXPECT().Verify(mock.Anything, "good").Return(principal, nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := mockservice.NewMockExternalIdentityVerifier(t)
			tt.setup(verifier)
			m := NewOAuth2Middleware(OAuth2MiddlewareParams{Verifier: verifier, Logger: newDiscardLogger()})

			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/oauth2/success"+tt.query, nil), httptest.NewRecorder())

			var got *service.ExternalPrincipal
			err := m.Process(func(c echo.Context) error {
				got, _ = ExternalPrincipalFrom(c)

				return nil
			})(c)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}
			require.NoError(t, err)
			assert.Same(t, principal, got)
		})
	}
}
