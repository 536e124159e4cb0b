package handler

import (
	"errors"
	"net/http"

	"github.com/metrify/backend/internal/service"
)

// statusFor maps service sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrSaleNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrSaleAlreadyResolved),
		errors.Is(err, service.ErrDuplicateSKU):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidAdjustment):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
