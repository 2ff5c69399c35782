// Package response renders JSON bodies for the HTTP API.
package response

import (
	"net/http"

	deliverycontext "ledger/internal/delivery/context"
	domainerrors "ledger/internal/domain/errors"
	"ledger/trust"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`             // User-facing message
	Code      string `json:"code"`              // Machine-readable error code, e.g., "VALIDATION_FAILED"
	Details   any    `json:"details,omitempty"` // Additional error context (only for 4xx errors)
	RequestID string `json:"requestId,omitempty"`
}

// Problem is an error classified for the wire.
type Problem struct {
	Status  int
	Code    string
	Message string
	Details any
}

// Success writes data as the response body.
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, data)
}

// Error returns an error response
func Error(c echo.Context, statusCode int, errorCode string, message string, details any) error {
	// Details should not be included for 5xx errors or authentication/authorization errors
	if statusCode >= http.StatusInternalServerError || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		details = nil
	}

	return c.JSON(statusCode, ErrorResponse{
		Error:     message,
		Code:      errorCode,
		Details:   details,
		RequestID: deliverycontext.GetRequestIDFromContext(c.Request().Context()),
	})
}

// BadRequest returns a 400 error
func BadRequest(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusBadRequest, errorCode, message, nil)
}

// Unauthorized returns a 401 error
func Unauthorized(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusUnauthorized, errorCode, message, nil)
}

// Forbidden returns a 403 error
func Forbidden(c echo.Context) error {
	return Error(c, http.StatusForbidden, domainerrors.ErrForbidden.ErrorCode(), domainerrors.ErrForbidden.Message(), nil)
}

// InternalServerError returns a 500 error
func InternalServerError(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusInternalServerError, errorCode, message, nil)
}

// Render writes p.
func Render(c echo.Context, p Problem) error {
	return Error(c, p.Status, p.Code, p.Message, p.Details)
}

// Classify maps domain and credential errors to a Problem. It reports false
// for errors it does not recognize.
func Classify(err error) (Problem, bool) {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		p := Problem{Status: appErr.HTTPCode(), Code: appErr.ErrorCode(), Message: appErr.Message()}
		if d := appErr.Details(); d != "" {
			p.Details = d
		}

		return p, true
	}

	unauthenticated := domainerrors.ErrUnauthenticated
	switch {
	case errors.Is(err, trust.ErrMissingCredentials):
		return Problem{Status: http.StatusUnauthorized, Code: unauthenticated.ErrorCode(), Message: "Authorization header is missing"}, true
	case errors.Is(err, trust.ErrMalformedHeader):
		return Problem{Status: http.StatusUnauthorized, Code: unauthenticated.ErrorCode(), Message: "Invalid authorization header"}, true
	case errors.Is(err, trust.ErrUnauthenticated):
		return Problem{Status: http.StatusUnauthorized, Code: unauthenticated.ErrorCode(), Message: unauthenticated.Message()}, true
	case errors.Is(err, trust.ErrForbidden):
		return Problem{Status: http.StatusForbidden, Code: domainerrors.ErrForbidden.ErrorCode(), Message: domainerrors.ErrForbidden.Message()}, true
	}

	return Problem{}, false
}

// HandleAppError renders recognized errors and hands anything else back to
// echo's HTTPErrorHandler.
func HandleAppError(c echo.Context, err error) error {
	if p, ok := Classify(err); ok {
		return Render(c, p)
	}

	return errors.WithStack(err)
}
