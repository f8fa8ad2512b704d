package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/services"
	"github.com/AmjedKhaled165/Qareeblak-sub000/internal/utils"
)

// respondError maps service errors onto HTTP statuses. Business rules come
// back with their own message; infrastructure failures stay generic so
// nothing internal leaks.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Not found", err.Error()))
	case errors.Is(err, services.ErrInvalidCart),
		errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrAppointmentRequired):
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Validation failed", err.Error()))
	case errors.Is(err, services.ErrIllegalTransition),
		errors.Is(err, services.ErrManualOrderProtected),
		errors.Is(err, services.ErrPrizeNotRedeemable),
		errors.Is(err, services.ErrPrizeNotApplicable),
		errors.Is(err, services.ErrOrderDeleted),
		errors.Is(err, services.ErrCourierOffline),
		errors.Is(err, services.ErrCourierBusy):
		c.JSON(http.StatusConflict, utils.ErrorResponse("Rule violation", err.Error()))
	case errors.Is(err, services.ErrCheckoutInProgress):
		c.JSON(http.StatusTooEarly, utils.ErrorResponse("Request already in progress", "retry after a short delay"))
	case errors.Is(err, services.ErrIdempotencyUnavailable):
		c.JSON(http.StatusServiceUnavailable, utils.ErrorResponse("Service temporarily unavailable", "please retry"))
	default:
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Internal error", ""))
	}
}

func actor(c *gin.Context) string {
	if v := c.GetString("user_id"); v != "" {
		return v
	}
	return "unknown"
}
