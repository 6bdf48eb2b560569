package handler

import (
	"errors"
	"net/http"
	"strconv"

	"repairshop-service/internal/service"
	"repairshop-service/pkg/logger"
	"repairshop-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// respondError maps the service error taxonomy onto HTTP responses. Quota and
// feature denials are business-expected outcomes: they carry the structured
// denial body verbatim and are logged at info, not as system errors.
func respondError(c echo.Context, err error) error {
	log := logger.FromContext(c)

	var quotaErr *service.QuotaExceededError
	var featureErr *service.FeatureNotAvailableError
	var stockErr *service.InsufficientStockError

	switch {
	case errors.As(err, &quotaErr):
		log.Info("Plan quota denied", zap.String("message", quotaErr.Result.Message))
		prometheus.RecordQuotaDenial("limit")
		return c.JSON(http.StatusForbidden, quotaErr.Result)

	case errors.As(err, &featureErr):
		log.Info("Plan feature denied",
			zap.String("feature", featureErr.Feature),
			zap.String("plan", featureErr.PlanName))
		prometheus.RecordQuotaDenial("feature")
		return c.JSON(http.StatusForbidden, echo.Map{
			"allowed":   false,
			"message":   featureErr.Error(),
			"plan_name": featureErr.PlanName,
		})

	case errors.As(err, &stockErr):
		log.Warn("Insufficient stock",
			zap.String("item", stockErr.ItemName),
			zap.Int("available", stockErr.Available),
			zap.Int("requested", stockErr.Requested))
		prometheus.InsufficientStockCounter.Inc()
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     stockErr.Error(),
			"item_id":   stockErr.ItemID,
			"item_name": stockErr.ItemName,
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})

	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})

	case errors.Is(err, service.ErrInvalidStateTransition):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})

	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})

	default:
		log.Error("Request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

// paramUint parses a numeric path parameter.
func paramUint(c echo.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
