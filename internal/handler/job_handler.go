package handler

import (
	"net/http"
	"strconv"

	"repairshop-service/internal/middleware"
	"repairshop-service/internal/service"
	"repairshop-service/pkg/logger"
	"repairshop-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// JobHandler exposes the job lifecycle over HTTP. Every state-machine
// operation returns the full updated job so downstream formatters never need
// to re-query core logic.
type JobHandler struct {
	jobs *service.JobService
}

func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// CreateJob handles job intake
func (h *JobHandler) CreateJob(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)

	var req service.CreateJobInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	job, err := h.jobs.Create(actor, req)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobTransition("create")
	log.Info("Job created",
		zap.String("job_number", job.JobNumber),
		zap.Uint("tenant_id", job.TenantID))
	return c.JSON(http.StatusCreated, job)
}

// ListJobs handles the filtered job listing
func (h *JobHandler) ListJobs(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	filter := service.ListJobsFilter{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
	}
	if branchParam := c.QueryParam("branch_id"); branchParam != "" {
		if id, err := strconv.ParseUint(branchParam, 10, 64); err == nil {
			branchID := uint(id)
			filter.BranchID = &branchID
		}
	}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.QueryParam("skip")); err == nil {
		filter.Offset = offset
	}

	jobs, err := h.jobs.List(actor.TenantID, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, jobs)
}

// JobStats handles the dashboard status counts
func (h *JobHandler) JobStats(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	stats, err := h.jobs.Stats(actor.TenantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GetJob handles retrieving a single job
func (h *JobHandler) GetJob(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	jobID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	job, err := h.jobs.Get(actor.TenantID, jobID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// SetDiagnosis handles the diagnosis transition
func (h *JobHandler) SetDiagnosis(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)
	jobID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	var req service.DiagnosisInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	job, err := h.jobs.SetDiagnosis(actor, jobID, req)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobTransition("diagnosis")
	log.Info("Diagnosis recorded",
		zap.String("job_number", job.JobNumber),
		zap.Float64("estimated_cost", req.EstimatedCost))
	return c.JSON(http.StatusOK, job)
}

// Approve handles the customer approval transition
func (h *JobHandler) Approve(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)
	jobID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	var req service.ApprovalInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	job, err := h.jobs.Approve(actor, jobID, req)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobTransition("approve")
	log.Info("Job approved", zap.String("job_number", job.JobNumber))
	return c.JSON(http.StatusOK, job)
}

// MarkPendingParts handles parking a job while parts are on order
func (h *JobHandler) MarkPendingParts(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	jobID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	job, err := h.jobs.MarkPendingParts(actor, jobID, req.Notes)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobTransition("pending_parts")
	return c.JSON(http.StatusOK, job)
}

// SetRepair handles the repair transition with inventory consumption
func (h *JobHandler) SetRepair(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)
	jobID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	var req service.RepairInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	job, err := h.jobs.SetRepair(actor, jobID, req)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobTransition("repair")
	log.Info("Repair recorded",
		zap.String("job_number", job.JobNumber),
		zap.Int("parts_used", len(req.Parts)),
		zap.Float64("final_amount", req.FinalAmount))
	return c.JSON(http.StatusOK, job)
}

// Deliver handles the delivery transition
func (h *JobHandler) Deliver(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)
	jobID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	var req service.DeliveryInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	job, err := h.jobs.Deliver(actor, jobID, req)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobTransition("deliver")
	log.Info("Job delivered",
		zap.String("job_number", job.JobNumber),
		zap.Float64("amount_received", req.AmountReceived))
	return c.JSON(http.StatusOK, job)
}

// Close handles the terminal close transition
func (h *JobHandler) Close(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)
	jobID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	var req service.CloseInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	job, err := h.jobs.Close(actor, jobID, req)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobTransition("close")
	log.Info("Job closed", zap.String("job_number", job.JobNumber))
	return c.JSON(http.StatusOK, job)
}

// SetStatus handles the generic status change
func (h *JobHandler) SetStatus(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	jobID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	job, err := h.jobs.SetStatus(actor, jobID, req.Status, req.Notes)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordJobTransition("set_status")
	return c.JSON(http.StatusOK, job)
}

// AddPhoto attaches an uploaded photo reference to a job
func (h *JobHandler) AddPhoto(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	jobID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	var req service.PhotoInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	job, err := h.jobs.AddPhoto(actor, jobID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// RemovePhoto detaches a photo reference from a job
func (h *JobHandler) RemovePhoto(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	jobID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	job, err := h.jobs.RemovePhoto(actor, jobID, c.Param("photo_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, job)
}

// TrackingLink returns the shareable tracking reference for a job
func (h *JobHandler) TrackingLink(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	jobID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid job id"})
	}

	link, err := h.jobs.GetTrackingLink(actor.TenantID, jobID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, link)
}

// Track is the unauthenticated public tracking lookup keyed by
// (job_number, tracking_token). The response is a sanitized projection.
func (h *JobHandler) Track(c echo.Context) error {
	view, err := h.jobs.Track(c.Param("job_number"), c.Param("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
