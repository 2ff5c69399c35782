package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"ledger/internal/delivery/api/response"
	domainerrors "ledger/internal/domain/errors"
	"ledger/internal/usecase"
	"ledger/trust"
	"ledger/trust/echoguard"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// UserHandlerParams holds dependencies for UserHandler, injected by Fx.
type UserHandlerParams struct {
	fx.In

	UserUC usecase.UserUsecase
	Logger *slog.Logger
}

// UserHandler serves the identity administration endpoints. Every route runs
// behind echoguard.Authenticate.
type UserHandler struct {
	userUC usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler
func NewUserHandler(params UserHandlerParams) *UserHandler {
	return &UserHandler{
		userUC: params.UserUC,
		logger: params.Logger,
	}
}

// UpdateProfileRequest represents the request body for a profile update
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,min=1,max=100"`
	PictureURL  *string `json:"pictureUrl" validate:"omitempty,url"`
}

// ChangeRoleRequest represents the request body for a role change
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// GetMe handles GET /users/me.
func (h *UserHandler) GetMe(c echo.Context) error {
	principal, ok := echoguard.PrincipalFrom(c)
	if !ok {
		return trust.ErrUnauthenticated
	}

	identity, err := h.userUC.GetByID(c.Request().Context(), principal.UserID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toIdentityResponse(identity))
}

// GetByID handles GET /users/:userId for the owner or an admin.
func (h *UserHandler) GetByID(c echo.Context) error {
	id, err := h.authorizeOwner(c)
	if err != nil {
		return err
	}

	identity, err := h.userUC.GetByID(c.Request().Context(), id)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toIdentityResponse(identity))
}

// GetByEmail handles GET /users/email/:email for admins.
func (h *UserHandler) GetByEmail(c echo.Context) error {
	if err := h.authorizeAdmin(c); err != nil {
		return err
	}

	identity, err := h.userUC.GetByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toIdentityResponse(identity))
}

// ListActive handles GET /users for admins.
func (h *UserHandler) ListActive(c echo.Context) error {
	if err := h.authorizeAdmin(c); err != nil {
		return err
	}

	identities, err := h.userUC.ListActive(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toIdentityResponses(identities))
}

// UpdateProfile handles PUT /users/:userId for the owner or an admin.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	id, err := h.authorizeOwner(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, domainerrors.ErrValidationFailed.ErrorCode(), "Invalid profile input")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	identity, err := h.userUC.UpdateProfile(c.Request().Context(), id, &usecase.UpdateProfileInput{
		DisplayName: req.DisplayName,
		PictureURL:  req.PictureURL,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toIdentityResponse(identity))
}

// Delete handles DELETE /users/:userId. Identities are deactivated, never removed.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := h.authorizeOwner(c)
	if err != nil {
		return err
	}

	if _, err := h.userUC.Deactivate(c.Request().Context(), id); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Activate handles PUT /users/:userId/activate for admins.
func (h *UserHandler) Activate(c echo.Context) error {
	id, err := h.adminTarget(c)
	if err != nil {
		return err
	}

	identity, err := h.userUC.Activate(c.Request().Context(), id)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toIdentityResponse(identity))
}

// Deactivate handles PUT /users/:userId/deactivate for admins.
func (h *UserHandler) Deactivate(c echo.Context) error {
	id, err := h.adminTarget(c)
	if err != nil {
		return err
	}

	identity, err := h.userUC.Deactivate(c.Request().Context(), id)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toIdentityResponse(identity))
}

// ChangeRole handles PUT /users/:userId/role for admins.
func (h *UserHandler) ChangeRole(c echo.Context) error {
	id, err := h.adminTarget(c)
	if err != nil {
		return err
	}

	var req ChangeRoleRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, domainerrors.ErrValidationFailed.ErrorCode(), "Invalid role input")
	}
	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	role, ok := trust.ParseRole(req.Role)
	if !ok {
		return response.HandleAppError(c, domainerrors.ErrValidationFailed.WithDetails("role must be USER or ADMIN"))
	}

	identity, err := h.userUC.ChangeRole(c.Request().Context(), id, role)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, toIdentityResponse(identity))
}

// authorizeOwner parses :userId and admits its owner or an admin. Errors are
// rendered by the central HTTP error handler.
func (h *UserHandler) authorizeOwner(c echo.Context) (int64, error) {
	principal, ok := echoguard.PrincipalFrom(c)
	if !ok {
		return 0, trust.ErrUnauthenticated
	}

	id, err := userIDParam(c)
	if err != nil {
		return 0, err
	}

	if !trust.Authorize(principal, trust.RequireOwner(id)) {
		h.deny(c, principal)

		return 0, trust.ErrForbidden
	}

	return id, nil
}

func (h *UserHandler) authorizeAdmin(c echo.Context) error {
	principal, ok := echoguard.PrincipalFrom(c)
	if !ok {
		return trust.ErrUnauthenticated
	}

	if !trust.Authorize(principal, trust.RequireRole(trust.RoleAdmin)) {
		h.deny(c, principal)

		return trust.ErrForbidden
	}

	return nil
}

func (h *UserHandler) adminTarget(c echo.Context) (int64, error) {
	if err := h.authorizeAdmin(c); err != nil {
		return 0, err
	}

	return userIDParam(c)
}

func (h *UserHandler) deny(c echo.Context, principal trust.Principal) {
	h.logger.Info("Access denied",
		slog.Int64("user_id", principal.UserID),
		slog.String("role", principal.Role.String()),
		slog.String("path", c.Path()),
	)
}

func userIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domainerrors.ErrValidationFailed.WithDetails("userId must be a positive integer")
	}

	return id, nil
}
