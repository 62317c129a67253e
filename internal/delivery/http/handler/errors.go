package handler

import (
	"errors"
	"net/http"

	"github.com/Pesokrava/park_reviewer/internal/delivery/http/response"
	"github.com/Pesokrava/park_reviewer/internal/domain"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
)

// writeError maps a service error to an HTTP response. Validation and ownership
// failures carry a specific message; store failures get a generic retryable one.
func writeError(w http.ResponseWriter, log *logger.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		response.Error(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, domain.ErrProfileNotFound):
		response.Error(w, http.StatusForbidden, "Create a profile first")
	case errors.Is(err, domain.ErrForbidden):
		response.Error(w, http.StatusForbidden, "You are not allowed to modify this resource")
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, notFound)
	case errors.Is(err, domain.ErrImageTooLarge):
		response.Error(w, http.StatusRequestEntityTooLarge, message(err, "Image too large"))
	case errors.Is(err, domain.ErrUnsupportedType):
		response.Error(w, http.StatusUnsupportedMediaType, message(err, "Unsupported image type"))
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, message(err, "Invalid input"))
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrConflict):
		response.Error(w, http.StatusConflict, "Resource already exists")
	case errors.Is(err, domain.ErrUnavailable):
		log.Warnf("Backing store unavailable: %v", err)
		response.Retryable(w, http.StatusServiceUnavailable, "Service temporarily unavailable, please retry")
	case errors.Is(err, domain.ErrStorage):
		log.Error("Object storage failure", err)
		response.Retryable(w, http.StatusBadGateway, "Image storage failed, please retry")
	default:
		log.Error("Internal error", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

func message(err error, fallback string) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return fallback
}
