package transport

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"go.uber.org/zap"
)

// statusFor maps service errors to HTTP status codes. Unknown errors are 500s.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCloneInProgress), errors.Is(err, repository.ErrAccountAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes err with its mapped status. Internal errors are logged
// and replaced by a generic message.
func respondWithServiceError(w http.ResponseWriter, err error, logger *zap.Logger, details map[string]interface{}) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, status, "internal server error")
		return
	}
	middleware.RespondWithErrorDetails(w, status, err.Error(), details)
}

// respondWithDecodeError answers a body that did not decode or validate
func respondWithDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}
