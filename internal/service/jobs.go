package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"repairshop-service/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Actor is the authenticated request context every mutation runs under.
type Actor struct {
	TenantID uint
	UserID   uint
	Name     string
	Role     string
}

// JobService owns the job lifecycle: the status state machine, the
// append-only audit trail, and the sub-record each transition attaches.
type JobService struct {
	db       *gorm.DB
	registry *PlanRegistry
}

func NewJobService(db *gorm.DB, registry *PlanRegistry) *JobService {
	return &JobService{db: db, registry: registry}
}

// CreateJobInput carries the intake form fields.
type CreateJobInput struct {
	Customer              model.CustomerInfo `json:"customer"`
	Device                model.DeviceInfo   `json:"device"`
	Accessories           []model.Accessory  `json:"accessories"`
	ProblemDescription    string             `json:"problem_description"`
	TechnicianObservation string             `json:"technician_observation"`
	BranchID              *uint              `json:"branch_id"`
}

// Create opens a new job in status "received" with one initial history entry
// and a tracking token. Gated by the monthly job quota.
func (s *JobService) Create(actor Actor, input CreateJobInput) (*model.Job, error) {
	plan, err := s.registry.ResolvePlan(actor.TenantID)
	if err != nil {
		return nil, err
	}
	current, err := s.registry.CountJobsInMonth(actor.TenantID, time.Now())
	if err != nil {
		return nil, err
	}
	if res := CheckLimit(plan, current, plan.MaxJobsPerMonth, "jobs this month"); !res.Allowed {
		return nil, &QuotaExceededError{Result: res}
	}

	if input.Customer.Name == "" || input.Customer.Mobile == "" {
		return nil, fmt.Errorf("%w: customer name and mobile are required", ErrValidation)
	}
	if input.ProblemDescription == "" {
		return nil, fmt.Errorf("%w: problem description is required", ErrValidation)
	}

	now := time.Now().UTC()
	jobNumber, err := s.nextJobNumber(actor.TenantID, now)
	if err != nil {
		return nil, err
	}
	token, err := s.newTrackingToken(actor.TenantID)
	if err != nil {
		return nil, err
	}

	job := model.Job{
		TenantID:              actor.TenantID,
		BranchID:              input.BranchID,
		JobNumber:             jobNumber,
		TrackingToken:         token,
		Customer:              input.Customer,
		Device:                input.Device,
		Accessories:           input.Accessories,
		ProblemDescription:    input.ProblemDescription,
		TechnicianObservation: input.TechnicianObservation,
		Status:                model.StatusReceived,
		StatusHistory: []model.StatusEntry{{
			Status:    model.StatusReceived,
			Timestamp: now,
			UserID:    actor.UserID,
			UserName:  actor.Name,
			Notes:     "Job created",
		}},
		CreatedBy: actor.UserID,
	}
	if err := s.db.Create(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// nextJobNumber builds a tenant-scoped sequential-looking identifier. It is
// not required to be gap-free.
func (s *JobService) nextJobNumber(tenantID uint, now time.Time) (string, error) {
	var count int64
	if err := s.db.Model(&model.Job{}).Where("tenant_id = ?", tenantID).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("JOB-%d-%06d", now.Year(), count+1), nil
}

// newTrackingToken generates an 8-char uppercase token, regenerating on a
// per-tenant collision.
func (s *JobService) newTrackingToken(tenantID uint) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		token := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
		var count int64
		err := s.db.Model(&model.Job{}).
			Where("tenant_id = ? AND tracking_token = ?", tenantID, token).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return token, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique tracking token")
}

// Get returns a tenant's job or ErrNotFound. A job owned by another tenant is
// indistinguishable from a missing one.
func (s *JobService) Get(tenantID, jobID uint) (*model.Job, error) {
	return getJobTx(s.db, tenantID, jobID)
}

func getJobTx(tx *gorm.DB, tenantID, jobID uint) (*model.Job, error) {
	var job model.Job
	err := tx.Where("id = ? AND tenant_id = ?", jobID, tenantID).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
		}
		return nil, err
	}
	return &job, nil
}

// ListJobsFilter narrows the job listing.
type ListJobsFilter struct {
	Status   string
	BranchID *uint
	Search   string
	Limit    int
	Offset   int
}

// List returns the tenant's jobs, newest first.
func (s *JobService) List(tenantID uint, filter ListJobsFilter) ([]model.Job, error) {
	query := s.db.Where("tenant_id = ?", tenantID).Order("created_at desc")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("job_number LIKE ? OR customer LIKE ? OR device LIKE ?", pattern, pattern, pattern)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query = query.Limit(limit).Offset(filter.Offset)

	var jobs []model.Job
	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// JobStats summarizes a tenant's jobs by status.
type JobStats struct {
	Total              int64 `json:"total"`
	Received           int64 `json:"received"`
	WaitingForApproval int64 `json:"waiting_for_approval"`
	InProgress         int64 `json:"in_progress"`
	PendingParts       int64 `json:"pending_parts"`
	Repaired           int64 `json:"repaired"`
	Delivered          int64 `json:"delivered"`
	Closed             int64 `json:"closed"`
	Today              int64 `json:"today"`
}

// Stats counts the tenant's jobs by status plus today's intake.
func (s *JobService) Stats(tenantID uint) (*JobStats, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	err := s.db.Model(&model.Job{}).Select("status, count(*) as count").
		Where("tenant_id = ?", tenantID).Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &JobStats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case model.StatusReceived:
			stats.Received = row.Count
		case model.StatusWaitingForApproval:
			stats.WaitingForApproval = row.Count
		case model.StatusInProgress:
			stats.InProgress = row.Count
		case model.StatusPendingParts:
			stats.PendingParts = row.Count
		case model.StatusRepaired:
			stats.Repaired = row.Count
		case model.StatusDelivered:
			stats.Delivered = row.Count
		case model.StatusClosed:
			stats.Closed = row.Count
		}
	}

	todayStart := time.Now().UTC().Truncate(24 * time.Hour)
	err = s.db.Model(&model.Job{}).
		Where("tenant_id = ? AND created_at >= ?", tenantID, todayStart).
		Count(&stats.Today).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// transition runs one state-machine step inside a transaction: load the job,
// reject if closed, let apply mutate sub-records and pick the target status,
// append exactly one history entry, persist. apply receives the transaction
// so side effects (inventory deduction) commit or roll back with the job.
func (s *JobService) transition(actor Actor, jobID uint, apply func(tx *gorm.DB, job *model.Job) (status, notes string, err error)) (*model.Job, error) {
	var job *model.Job
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = getJobTx(tx, actor.TenantID, jobID)
		if err != nil {
			return err
		}
		if job.Status == model.StatusClosed {
			return fmt.Errorf("job %s is closed: %w", job.JobNumber, ErrInvalidStateTransition)
		}

		status, notes, err := apply(tx, job)
		if err != nil {
			return err
		}

		job.Status = status
		job.StatusHistory = append(job.StatusHistory, model.StatusEntry{
			Status:    status,
			Timestamp: time.Now().UTC(),
			UserID:    actor.UserID,
			UserName:  actor.Name,
			Notes:     notes,
		})
		return tx.Save(job).Error
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// DiagnosisInput carries the diagnosis form.
type DiagnosisInput struct {
	Diagnosis         string  `json:"diagnosis"`
	EstimatedCost     float64 `json:"estimated_cost"`
	EstimatedTimeline string  `json:"estimated_timeline"`
	PartsRequired     string  `json:"parts_required"`
}

// SetDiagnosis records the technician's assessment and moves the job to
// waiting_for_approval. Re-running replaces the diagnosis wholesale.
func (s *JobService) SetDiagnosis(actor Actor, jobID uint, input DiagnosisInput) (*model.Job, error) {
	return s.transition(actor, jobID, func(tx *gorm.DB, job *model.Job) (string, string, error) {
		job.Diagnosis = &model.Diagnosis{
			Diagnosis:         input.Diagnosis,
			EstimatedCost:     input.EstimatedCost,
			EstimatedTimeline: input.EstimatedTimeline,
			PartsRequired:     input.PartsRequired,
			UpdatedAt:         time.Now().UTC(),
			UpdatedBy:         actor.UserID,
		}
		notes := fmt.Sprintf("Diagnosis complete. Estimated cost: %.2f", input.EstimatedCost)
		return model.StatusWaitingForApproval, notes, nil
	})
}

// ApprovalInput carries the customer approval form.
type ApprovalInput struct {
	ApprovedAmount float64 `json:"approved_amount"`
	Notes          string  `json:"notes"`
}

// Approve records the customer's go-ahead and moves the job to in_progress.
func (s *JobService) Approve(actor Actor, jobID uint, input ApprovalInput) (*model.Job, error) {
	return s.transition(actor, jobID, func(tx *gorm.DB, job *model.Job) (string, string, error) {
		job.Approval = &model.Approval{
			ApprovedAmount: input.ApprovedAmount,
			Notes:          input.Notes,
			ApprovedAt:     time.Now().UTC(),
			RecordedBy:     actor.UserID,
		}
		notes := fmt.Sprintf("Customer approved. Amount: %.2f", input.ApprovedAmount)
		return model.StatusInProgress, notes, nil
	})
}

// MarkPendingParts parks the job while parts are on order. Diagnosis and
// repair sub-records are untouched.
func (s *JobService) MarkPendingParts(actor Actor, jobID uint, notes string) (*model.Job, error) {
	return s.transition(actor, jobID, func(tx *gorm.DB, job *model.Job) (string, string, error) {
		if notes == "" {
			notes = "Waiting for parts"
		}
		return model.StatusPendingParts, notes, nil
	})
}

// PartRequest is one inventory line requested by a repair submission.
type PartRequest struct {
	InventoryID uint `json:"inventory_id"`
	Quantity    int  `json:"quantity"`
}

// RepairInput carries the repair completion form.
type RepairInput struct {
	WorkDone      string        `json:"work_done"`
	PartsReplaced string        `json:"parts_replaced"`
	Parts         []PartRequest `json:"parts"`
	FinalAmount   float64       `json:"final_amount"`
	WarrantyInfo  string        `json:"warranty_info"`
}

// SetRepair records the completed work and consumes the requested parts.
// The whole operation is all-or-nothing: every part is verified against the
// tenant's stock before any deduction, and the deductions, usage records and
// job update share one transaction.
func (s *JobService) SetRepair(actor Actor, jobID uint, input RepairInput) (*model.Job, error) {
	return s.transition(actor, jobID, func(tx *gorm.DB, job *model.Job) (string, string, error) {
		now := time.Now().UTC()
		partsCost := decimal.Zero
		partsUsed := make([]model.PartUsed, 0, len(input.Parts))

		// Verify every requested part before touching stock.
		items := make([]*model.InventoryItem, 0, len(input.Parts))
		for _, part := range input.Parts {
			if part.Quantity <= 0 {
				return "", "", fmt.Errorf("%w: part quantity must be positive", ErrValidation)
			}
			item, err := getItemTx(tx, actor.TenantID, part.InventoryID)
			if err != nil {
				return "", "", err
			}
			if item.Quantity < part.Quantity {
				return "", "", &InsufficientStockError{
					ItemID:    item.ID,
					ItemName:  item.Name,
					Available: item.Quantity,
					Requested: part.Quantity,
				}
			}
			items = append(items, item)
		}

		for i, part := range input.Parts {
			item := items[i]
			reason := fmt.Sprintf("Used in job %s", job.JobNumber)
			if _, err := adjustTx(tx, actor, item.ID, -part.Quantity, reason, &job.ID); err != nil {
				return "", "", err
			}

			usage := model.InventoryUsage{
				TenantID:        actor.TenantID,
				InventoryID:     item.ID,
				JobID:           job.ID,
				QuantityUsed:    part.Quantity,
				UnitPriceAtTime: item.CostPrice,
				UsedBy:          actor.UserID,
				UsedByName:      actor.Name,
				UsedAt:          now,
			}
			if err := tx.Create(&usage).Error; err != nil {
				return "", "", err
			}

			partsCost = partsCost.Add(decimal.NewFromFloat(item.CostPrice).Mul(decimal.NewFromInt(int64(part.Quantity))))
			partsUsed = append(partsUsed, model.PartUsed{
				InventoryID: item.ID,
				Name:        item.Name,
				Quantity:    part.Quantity,
				UnitCost:    item.CostPrice,
			})
		}

		job.Repair = &model.Repair{
			WorkDone:      input.WorkDone,
			PartsReplaced: input.PartsReplaced,
			PartsUsed:     partsUsed,
			PartsCost:     partsCost.InexactFloat64(),
			FinalAmount:   input.FinalAmount,
			WarrantyInfo:  input.WarrantyInfo,
			UpdatedAt:     now,
			UpdatedBy:     actor.UserID,
		}
		notes := fmt.Sprintf("Repair complete. Final amount: %.2f", input.FinalAmount)
		return model.StatusRepaired, notes, nil
	})
}

// DeliveryInput carries the handover form.
type DeliveryInput struct {
	AmountReceived float64  `json:"amount_received"`
	PaymentMode    string   `json:"payment_mode"`
	IsCredit       bool     `json:"is_credit"`
	ExpenseParts   *float64 `json:"expense_parts"`
	ExpenseLabor   *float64 `json:"expense_labor"`
}

// Deliver records the handover and the money received. Expenses may be left
// nil and filled in later through the profit bulk-expense operation.
func (s *JobService) Deliver(actor Actor, jobID uint, input DeliveryInput) (*model.Job, error) {
	return s.transition(actor, jobID, func(tx *gorm.DB, job *model.Job) (string, string, error) {
		job.Delivery = &model.Delivery{
			AmountReceived: input.AmountReceived,
			PaymentMode:    input.PaymentMode,
			IsCredit:       input.IsCredit,
			ExpenseParts:   input.ExpenseParts,
			ExpenseLabor:   input.ExpenseLabor,
			DeliveredAt:    time.Now().UTC(),
			DeliveredBy:    actor.UserID,
		}
		notes := fmt.Sprintf("Device delivered. Amount received: %.2f", input.AmountReceived)
		return model.StatusDelivered, notes, nil
	})
}

// CloseInput carries the closure form.
type CloseInput struct {
	DeviceDelivered     bool     `json:"device_delivered"`
	AccessoriesReturned []string `json:"accessories_returned"`
	PaymentMode         string   `json:"payment_mode"`
	InvoiceReference    string   `json:"invoice_reference"`
}

// Close is the terminal transition. Closing an already-closed job is
// rejected, not idempotent.
func (s *JobService) Close(actor Actor, jobID uint, input CloseInput) (*model.Job, error) {
	return s.transition(actor, jobID, func(tx *gorm.DB, job *model.Job) (string, string, error) {
		job.Closure = &model.Closure{
			DeviceDelivered:     input.DeviceDelivered,
			AccessoriesReturned: input.AccessoriesReturned,
			PaymentMode:         input.PaymentMode,
			InvoiceReference:    input.InvoiceReference,
			ClosedAt:            time.Now().UTC(),
			ClosedBy:            actor.UserID,
		}
		notes := "Job closed"
		if input.PaymentMode != "" {
			notes = fmt.Sprintf("Job closed. Payment: %s", input.PaymentMode)
		}
		return model.StatusClosed, notes, nil
	})
}

// SetStatus applies a generic status change. The target must be a recognized
// status; a closed job only accepts closed as the target.
func (s *JobService) SetStatus(actor Actor, jobID uint, status, notes string) (*model.Job, error) {
	if !model.IsValidStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrInvalidStateTransition)
	}

	var job *model.Job
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = getJobTx(tx, actor.TenantID, jobID)
		if err != nil {
			return err
		}
		if job.Status == model.StatusClosed && status != model.StatusClosed {
			return fmt.Errorf("job %s is closed: %w", job.JobNumber, ErrInvalidStateTransition)
		}
		if notes == "" {
			notes = fmt.Sprintf("Status changed to %s", status)
		}
		job.Status = status
		job.StatusHistory = append(job.StatusHistory, model.StatusEntry{
			Status:    status,
			Timestamp: time.Now().UTC(),
			UserID:    actor.UserID,
			UserName:  actor.Name,
			Notes:     notes,
		})
		return tx.Save(job).Error
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// PhotoInput carries a stored photo reference. Byte validation belongs to the
// upload collaborator.
type PhotoInput struct {
	StoragePath string `json:"storage_path"`
	PhotoType   string `json:"photo_type"`
}

// AddPhoto attaches a photo reference to the job. Gated by the photo_upload
// feature and the per-job photo quota. Photos are not transitions: no status
// change, no history entry.
func (s *JobService) AddPhoto(actor Actor, jobID uint, input PhotoInput) (*model.Job, error) {
	plan, err := s.registry.ResolvePlan(actor.TenantID)
	if err != nil {
		return nil, err
	}
	if res := CheckFeature(plan, model.FeaturePhotoUpload); !res.Allowed {
		return nil, &FeatureNotAvailableError{Feature: model.FeaturePhotoUpload, PlanName: plan.Name}
	}

	var job *model.Job
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = getJobTx(tx, actor.TenantID, jobID)
		if err != nil {
			return err
		}
		if res := CheckLimit(plan, len(job.Photos), plan.MaxPhotosPerJob, "photos per job"); !res.Allowed {
			return &QuotaExceededError{Result: res}
		}
		job.Photos = append(job.Photos, model.Photo{
			ID:          uuid.New().String(),
			StoragePath: input.StoragePath,
			PhotoType:   input.PhotoType,
			UploadedBy:  actor.UserID,
			UploadedAt:  time.Now().UTC(),
		})
		return tx.Save(job).Error
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// RemovePhoto detaches a photo reference from the job.
func (s *JobService) RemovePhoto(actor Actor, jobID uint, photoID string) (*model.Job, error) {
	var job *model.Job
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = getJobTx(tx, actor.TenantID, jobID)
		if err != nil {
			return err
		}
		photos := make([]model.Photo, 0, len(job.Photos))
		found := false
		for _, photo := range job.Photos {
			if photo.ID == photoID {
				found = true
				continue
			}
			photos = append(photos, photo)
		}
		if !found {
			return fmt.Errorf("photo %s: %w", photoID, ErrNotFound)
		}
		job.Photos = photos
		return tx.Save(job).Error
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Track is the unauthenticated status lookup keyed by the pair
// (job_number, tracking_token). It returns the sanitized projection only.
func (s *JobService) Track(jobNumber, trackingToken string) (*model.PublicJobView, error) {
	var job model.Job
	err := s.db.Where("job_number = ? AND tracking_token = ?", jobNumber, trackingToken).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tracking lookup: %w", ErrNotFound)
		}
		return nil, err
	}
	view := job.PublicView()
	return &view, nil
}

// TrackingLink returns the token and public path for sharing a job's
// tracking page.
type TrackingLink struct {
	JobNumber     string `json:"job_number"`
	TrackingToken string `json:"tracking_token"`
	TrackingPath  string `json:"tracking_path"`
}

// GetTrackingLink builds the shareable tracking reference for a job.
func (s *JobService) GetTrackingLink(tenantID, jobID uint) (*TrackingLink, error) {
	job, err := s.Get(tenantID, jobID)
	if err != nil {
		return nil, err
	}
	return &TrackingLink{
		JobNumber:     job.JobNumber,
		TrackingToken: job.TrackingToken,
		TrackingPath:  fmt.Sprintf("/track/%s/%s", job.JobNumber, job.TrackingToken),
	}, nil
}
