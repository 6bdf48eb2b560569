package handler

import (
	"net/http"
	"strconv"

	"repairshop-service/internal/model"
	"repairshop-service/internal/service"
	"repairshop-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminHandler exposes the platform-operator surface: plan CRUD, plan
// assignment, tenant suspension and platform stats.
type AdminHandler struct {
	registry *service.PlanRegistry
}

func NewAdminHandler(registry *service.PlanRegistry) *AdminHandler {
	return &AdminHandler{registry: registry}
}

// ListPlans returns all plans for the operator console
func (h *AdminHandler) ListPlans(c echo.Context) error {
	includeInactive := c.QueryParam("include_inactive") == "true"
	plans, err := h.registry.ListPlans(includeInactive)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, plans)
}

// FeatureOptions lists the toggleable feature vocabulary
func (h *AdminHandler) FeatureOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"features": model.FeatureKeys})
}

// CreatePlan adds an operator-defined plan
func (h *AdminHandler) CreatePlan(c echo.Context) error {
	log := logger.FromContext(c)

	var plan model.Plan
	if err := c.Bind(&plan); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if err := h.registry.CreatePlan(&plan); err != nil {
		return respondError(c, err)
	}

	log.Info("Plan created", zap.String("plan_id", plan.ID), zap.Float64("price", plan.Price))
	return c.JSON(http.StatusOK, echo.Map{"message": "Plan created", "plan": plan})
}

// UpdatePlan applies a partial plan update
func (h *AdminHandler) UpdatePlan(c echo.Context) error {
	var update map[string]interface{}
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	plan, err := h.registry.UpdatePlan(c.Param("id"), update)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Plan updated", "plan": plan})
}

// DeletePlan removes an operator-defined plan
func (h *AdminHandler) DeletePlan(c echo.Context) error {
	log := logger.FromContext(c)

	if err := h.registry.DeletePlan(c.Param("id")); err != nil {
		return respondError(c, err)
	}

	log.Info("Plan deleted", zap.String("plan_id", c.Param("id")))
	return c.JSON(http.StatusOK, echo.Map{"message": "Plan deleted"})
}

// AssignPlan puts a tenant on a plan for a number of months
func (h *AdminHandler) AssignPlan(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant id"})
	}

	var req struct {
		Plan   string `json:"plan"`
		Months int    `json:"months"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	tenant, err := h.registry.AssignPlan(tenantID, req.Plan, req.Months)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Plan assigned",
		zap.Uint("tenant_id", tenantID),
		zap.String("plan", req.Plan),
		zap.Int("months", req.Months))
	return c.JSON(http.StatusOK, echo.Map{"message": "Plan assigned", "tenant": tenant})
}

// SetTenantActive flips a tenant's suspension flag
func (h *AdminHandler) SetTenantActive(c echo.Context) error {
	log := logger.FromContext(c)
	tenantID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant id"})
	}

	active, err := strconv.ParseBool(c.QueryParam("active"))
	if err != nil {
		var req struct {
			IsActive bool `json:"is_active"`
		}
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
		}
		active = req.IsActive
	}

	tenant, err := h.registry.SetTenantActive(tenantID, active)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Tenant activation changed",
		zap.Uint("tenant_id", tenantID),
		zap.Bool("is_active", active))
	return c.JSON(http.StatusOK, tenant)
}

// PlatformStats summarizes the platform for the operator dashboard
func (h *AdminHandler) PlatformStats(c echo.Context) error {
	stats, err := h.registry.Stats()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
