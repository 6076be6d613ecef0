package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"
	apperrors "user-service/pkg/errors"
	"user-service/pkg/sanitize"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	msgInternalServerError = "Internal server error"
	unknownRequestID       = "unknown"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	StatusCode int                    `json:"status_code"`
	Message    string                 `json:"message"`
	Timestamp  time.Time              `json:"timestamp"`
	RequestID  string                 `json:"request_id"`
	Details    []apperrors.FieldError `json:"details,omitempty"`
}

// NewHTTPErrorHandler handles all errors returned by handlers and middleware.
// It maps sentinel errors to HTTP status codes, hides internal errors from
// clients and logs every failure with the request ID.
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message, details := classify(err)

		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = unknownRequestID
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", code),
			zap.String("error", sanitize.Message(err.Error())),
		}
		if code >= http.StatusInternalServerError {
			logger.Error("internal_server_error", fields...)
			message = msgInternalServerError
			details = nil
		} else {
			logger.Warn("client_error", fields...)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, ErrorResponse{
				StatusCode: code,
				Message:    message,
				Timestamp:  time.Now().UTC(),
				RequestID:  requestID,
				Details:    details,
			})
		}
		if err != nil {
			logger.Error("failed to write error response", zap.String("request_id", requestID), zap.Error(err))
		}
	}
}

func classify(err error) (int, string, []apperrors.FieldError) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, fmt.Sprintf("%v", httpErr.Message), nil
	}

	code := http.StatusInternalServerError
	message := msgInternalServerError

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		code = http.StatusBadRequest
		message = "Validation failed"
	case errors.Is(err, apperrors.ErrBadRequest):
		code = http.StatusBadRequest
		message = "Bad request"
	case errors.Is(err, apperrors.ErrNotFound):
		code = http.StatusNotFound
		message = "Resource not found"
	case errors.Is(err, apperrors.ErrUnauthorized):
		code = http.StatusUnauthorized
		message = "Unauthorized"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		code = http.StatusUnauthorized
		message = "Invalid credentials"
	case errors.Is(err, apperrors.ErrForbidden):
		code = http.StatusForbidden
		message = "Forbidden"
	case errors.Is(err, apperrors.ErrConflict):
		code = http.StatusConflict
		message = "Resource already exists"
	}

	var details []apperrors.FieldError
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && code < http.StatusInternalServerError {
		message = appErr.Message
		details = appErr.Details
	}

	return code, message, details
}
