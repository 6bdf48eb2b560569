package handler

import (
	"net/http"

	"repairshop-service/internal/middleware"
	"repairshop-service/internal/service"
	"repairshop-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantHandler exposes tenant signup/settings and the quota-counted
// user/branch resources.
type TenantHandler struct {
	tenants  *service.TenantService
	registry *service.PlanRegistry
}

func NewTenantHandler(tenants *service.TenantService, registry *service.PlanRegistry) *TenantHandler {
	return &TenantHandler{tenants: tenants, registry: registry}
}

// Signup handles tenant registration
func (h *TenantHandler) Signup(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.CreateTenantInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	tenant, err := h.tenants.CreateTenant(req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Tenant registered",
		zap.String("company_name", tenant.CompanyName),
		zap.String("subdomain", tenant.Subdomain))
	return c.JSON(http.StatusCreated, tenant)
}

// CheckSubdomain reports whether a subdomain is still free
func (h *TenantHandler) CheckSubdomain(c echo.Context) error {
	available, err := h.tenants.SubdomainAvailable(c.Param("subdomain"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": available})
}

// GetCurrentTenant returns the authenticated request's tenant
func (h *TenantHandler) GetCurrentTenant(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	tenant, err := h.registry.GetTenant(actor.TenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// GetCurrentPlan resolves the tenant's effective plan
func (h *TenantHandler) GetCurrentPlan(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	plan, err := h.registry.ResolvePlan(actor.TenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}

// UpdateSettings merges display/branding settings
func (h *TenantHandler) UpdateSettings(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	var req map[string]string
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	tenant, err := h.tenants.UpdateSettings(actor.TenantID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// CreateUser adds a team member
func (h *TenantHandler) CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)

	var req service.CreateUserInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	user, err := h.tenants.CreateUser(actor, req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("User created", zap.String("email", user.Email), zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, user)
}

// ListUsers returns the tenant's team
func (h *TenantHandler) ListUsers(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	users, err := h.tenants.ListUsers(actor.TenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// DeleteUser removes a team member
func (h *TenantHandler) DeleteUser(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	userID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	if err := h.tenants.DeleteUser(actor, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted"})
}

// CreateBranch adds a location
func (h *TenantHandler) CreateBranch(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)

	var req service.CreateBranchInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	branch, err := h.tenants.CreateBranch(actor, req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Branch created", zap.String("name", branch.Name))
	return c.JSON(http.StatusCreated, branch)
}

// ListBranches returns the tenant's locations
func (h *TenantHandler) ListBranches(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	branches, err := h.tenants.ListBranches(actor.TenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, branches)
}

// DeleteBranch removes a location
func (h *TenantHandler) DeleteBranch(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	branchID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid branch id"})
	}

	if err := h.tenants.DeleteBranch(actor, branchID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Branch deleted"})
}
