package handler

import (
	"net/http"
	"time"

	"repairshop-service/internal/middleware"
	"repairshop-service/internal/service"
	"repairshop-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProfitHandler exposes the profit reports. All routes sit behind the
// tenant-admin gate; technicians never see money figures.
type ProfitHandler struct {
	profit *service.ProfitService
}

func NewProfitHandler(profit *service.ProfitService) *ProfitHandler {
	return &ProfitHandler{profit: profit}
}

func reportPeriod(c echo.Context) string {
	period := c.QueryParam("period")
	if period == "" {
		period = "month"
	}
	return period
}

// Summary handles the aggregate profit report
func (h *ProfitHandler) Summary(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	summary, err := h.profit.Summary(actor.TenantID, reportPeriod(c), time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// JobWise handles the per-job profit report
func (h *ProfitHandler) JobWise(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	report, err := h.profit.JobWise(actor.TenantID, reportPeriod(c), time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// PartyWise handles the per-customer profit report
func (h *ProfitHandler) PartyWise(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	parties, err := h.profit.PartyWise(actor.TenantID, reportPeriod(c), time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, parties)
}

// PendingExpenses lists delivered jobs still missing expense entries
func (h *ProfitHandler) PendingExpenses(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	jobs, err := h.profit.PendingExpenses(actor.TenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"jobs": jobs, "count": len(jobs)})
}

// BulkExpense fills in expenses on many delivered jobs at once
func (h *ProfitHandler) BulkExpense(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)

	var req struct {
		Entries []service.BulkExpenseEntry `json:"entries"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	updated, err := h.profit.BulkExpense(actor.TenantID, req.Entries)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Bulk expenses recorded", zap.Int("updated", updated))
	return c.JSON(http.StatusOK, echo.Map{
		"updated_count": updated,
		"message":       "Expenses updated",
	})
}

// Ledger handles the customer outstanding-balance view
func (h *ProfitHandler) Ledger(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	mobile := c.Param("mobile")
	ledger, err := h.profit.Ledger(actor.TenantID, mobile)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ledger)
}

// RecordPayment appends a direct payment to the customer ledger
func (h *ProfitHandler) RecordPayment(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)

	var req service.PaymentInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	payment, err := h.profit.RecordPayment(actor, req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Ledger payment recorded",
		zap.String("customer_mobile", payment.CustomerMobile),
		zap.Float64("amount", payment.Amount))
	return c.JSON(http.StatusCreated, payment)
}
