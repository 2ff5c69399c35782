package handler

import (
	"log/slog"
	"net/http"

	"ledger/internal/delivery/api/middleware"
	"ledger/internal/delivery/api/response"
	domainerrors "ledger/internal/domain/errors"
	"ledger/internal/usecase"
	"ledger/trust"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	IdentityUC usecase.IdentityUsecase
	Guard      *trust.Guard
	Logger     *slog.Logger
}

// AuthHandler serves the public authentication endpoints.
type AuthHandler struct {
	identityUC usecase.IdentityUsecase
	guard      *trust.Guard
	logger     *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		identityUC: params.IdentityUC,
		guard:      params.Guard,
		logger:     params.Logger,
	}
}

// RegisterRequest represents the request body for local registration
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"displayName" validate:"required,max=100"`
}

// LoginRequest represents the request body for a password login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, domainerrors.ErrValidationFailed.ErrorCode(), "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	out, err := h.identityUC.Register(c.Request().Context(), &usecase.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, toAuthResponse(out))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, domainerrors.ErrValidationFailed.ErrorCode(), "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	out, err := h.identityUC.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toAuthResponse(out))
}

// Validate handles POST /auth/validate. A bad header is a client error; a bad
// token is a normal answer.
func (h *AuthHandler) Validate(c echo.Context) error {
	token, err := trust.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		message := domainerrors.ErrInvalidAuthorizationHeader.Message()
		if errors.Is(err, trust.ErrMissingCredentials) {
			message = "Authorization header is missing"
		}

		return response.BadRequest(c, domainerrors.ErrInvalidAuthorizationHeader.ErrorCode(), message)
	}

	claims, err := h.guard.Verify(token)
	if err != nil {
		return response.Success(c, http.StatusOK, ValidateResponse{Valid: false})
	}

	return response.Success(c, http.StatusOK, ValidateResponse{
		Valid:  true,
		Email:  claims.Email,
		UserID: claims.UserID,
	})
}

// OAuth2Success handles GET /oauth2/success after OAuth2Middleware verified the provider credential.
func (h *AuthHandler) OAuth2Success(c echo.Context) error {
	principal, ok := middleware.ExternalPrincipalFrom(c)
	if !ok {
		return response.HandleAppError(c, domainerrors.ErrOAuthFailed)
	}

	out, err := h.identityUC.ProvisionExternal(c.Request().Context(), &usecase.ProvisionExternalInput{
		Provider:    principal.Provider,
		ProviderID:  principal.ProviderID,
		Email:       principal.Email,
		DisplayName: principal.DisplayName(),
		PictureURL:  principal.PictureURL,
	})
	if err != nil {
		if _, known := response.Classify(err); !known {
			h.logger.Error("OAuth2 provisioning failed", slog.Any("error", err))
			err = domainerrors.ErrOAuthProcessing
		}

		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toAuthResponse(out))
}

// OAuth2Failure handles GET /oauth2/failure.
func (h *AuthHandler) OAuth2Failure(c echo.Context) error {
	return response.HandleAppError(c, domainerrors.ErrOAuthFailed)
}

func toAuthResponse(out *usecase.AuthOutput) AuthResponse {
	return AuthResponse{
		Token:     out.Token,
		TokenType: tokenTypeBearer,
		Identity:  toIdentityResponse(out.Identity),
	}
}
