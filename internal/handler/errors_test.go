package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/metrify/backend/internal/service"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"product not found", service.ErrProductNotFound, http.StatusNotFound},
		{"sale not found", service.ErrSaleNotFound, http.StatusNotFound},
		{"insufficient stock", service.ErrInsufficientStock, http.StatusConflict},
		{"sale already resolved", service.ErrSaleAlreadyResolved, http.StatusConflict},
		{"duplicate sku", service.ErrDuplicateSKU, http.StatusConflict},
		{"invalid adjustment", service.ErrInvalidAdjustment, http.StatusBadRequest},
		{"wrapped invalid adjustment",
			fmt.Errorf("%w: invalid product id %q", service.ErrInvalidAdjustment, "nope"),
			http.StatusBadRequest},
		{"unknown error", errors.New("database error: connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
