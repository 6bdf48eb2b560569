package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"repairshop-service/internal/model"

	"gorm.io/gorm"
)

// PlanRegistry resolves a tenant's effective plan and supplies the resource
// counts the quota evaluator needs. It also carries the administrative plan
// and tenant operations used by the platform operator.
type PlanRegistry struct {
	db *gorm.DB
}

func NewPlanRegistry(db *gorm.DB) *PlanRegistry {
	return &PlanRegistry{db: db}
}

// GetTenant returns the tenant or ErrNotFound.
func (r *PlanRegistry) GetTenant(tenantID uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := r.db.First(&tenant, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tenant %d: %w", tenantID, ErrNotFound)
		}
		return nil, err
	}
	return &tenant, nil
}

// ResolvePlan looks up the tenant's subscription plan. When the referenced
// plan is missing or inactive it falls back to the cheapest default plan, so
// exactly one plan resolves for a tenant at any instant.
func (r *PlanRegistry) ResolvePlan(tenantID uint) (*model.Plan, error) {
	tenant, err := r.GetTenant(tenantID)
	if err != nil {
		return nil, err
	}

	if tenant.SubscriptionPlan != "" {
		var plan model.Plan
		err := r.db.Where("id = ? AND is_active = ?", tenant.SubscriptionPlan, true).First(&plan).Error
		if err == nil {
			return &plan, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return r.fallbackPlan()
}

func (r *PlanRegistry) fallbackPlan() (*model.Plan, error) {
	var plan model.Plan
	err := r.db.Where("is_default = ? AND is_active = ?", true, true).
		Order("price asc").First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no default plan configured: %w", ErrNotFound)
		}
		return nil, err
	}
	return &plan, nil
}

// CountUsers returns the all-time user count for the tenant.
func (r *PlanRegistry) CountUsers(tenantID uint) (int, error) {
	return r.count(&model.User{}, tenantID)
}

// CountBranches returns the all-time branch count for the tenant.
func (r *PlanRegistry) CountBranches(tenantID uint) (int, error) {
	return r.count(&model.Branch{}, tenantID)
}

// CountInventoryItems returns the all-time inventory item count for the tenant.
func (r *PlanRegistry) CountInventoryItems(tenantID uint) (int, error) {
	return r.count(&model.InventoryItem{}, tenantID)
}

// CountJobsInMonth returns the tenant's job count for the UTC calendar month
// containing now. This is the counting window for max_jobs_per_month.
func (r *PlanRegistry) CountJobsInMonth(tenantID uint, now time.Time) (int, error) {
	start, end := MonthWindow(now)
	var n int64
	err := r.db.Model(&model.Job{}).
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, start, end).
		Count(&n).Error
	return int(n), err
}

func (r *PlanRegistry) count(m interface{}, tenantID uint) (int, error) {
	var n int64
	err := r.db.Model(m).Where("tenant_id = ?", tenantID).Count(&n).Error
	return int(n), err
}

// defaultPlanSeeds are the platform's built-in plans. Prices in INR/month.
func defaultPlanSeeds() []model.Plan {
	return []model.Plan{
		{
			ID: "free", Name: "Free", Price: 0, SortOrder: 0,
			MaxUsers: 2, MaxBranches: 1, MaxJobsPerMonth: 50,
			MaxInventoryItems: 25, MaxPhotosPerJob: 3, MaxStorageMB: 100,
			IsDefault: true, IsActive: true,
			Features: featureSet(
				model.FeatureJobManagement, model.FeatureBasicReports,
				model.FeatureQRTracking,
			),
		},
		{
			ID: "basic", Name: "Basic", Price: 499, SortOrder: 1,
			MaxUsers: 5, MaxBranches: 2, MaxJobsPerMonth: 200,
			MaxInventoryItems: 200, MaxPhotosPerJob: 5, MaxStorageMB: 500,
			IsDefault: true, IsActive: true,
			Features: featureSet(
				model.FeatureJobManagement, model.FeatureBasicReports,
				model.FeaturePDFJobSheet, model.FeatureQRTracking,
				model.FeatureWhatsAppMessages, model.FeaturePhotoUpload,
				model.FeatureCustomerManagement,
			),
		},
		{
			ID: "pro", Name: "Pro", Price: 999, SortOrder: 2,
			MaxUsers: 15, MaxBranches: 5, MaxJobsPerMonth: 1000,
			MaxInventoryItems: 1000, MaxPhotosPerJob: 10, MaxStorageMB: 2000,
			IsDefault: true, IsActive: true,
			Features: featureSet(
				model.FeatureJobManagement, model.FeatureBasicReports,
				model.FeaturePDFJobSheet, model.FeatureQRTracking,
				model.FeatureWhatsAppMessages, model.FeaturePhotoUpload,
				model.FeatureInventoryManagement, model.FeatureAdvancedAnalytics,
				model.FeatureTechnicianMetrics, model.FeatureCustomerManagement,
				model.FeatureEmailNotifications, model.FeatureDataExport,
				model.FeatureMultiBranch,
			),
		},
		{
			ID: "enterprise", Name: "Enterprise", Price: 2499, SortOrder: 3,
			MaxUsers: model.UnlimitedQuota, MaxBranches: model.UnlimitedQuota,
			MaxJobsPerMonth: model.UnlimitedQuota, MaxInventoryItems: model.UnlimitedQuota,
			MaxPhotosPerJob: model.UnlimitedQuota, MaxStorageMB: model.UnlimitedQuota,
			IsDefault: true, IsActive: true,
			Features: featureSet(model.FeatureKeys...),
		},
	}
}

// featureSet builds a full feature map with the given keys enabled and every
// other known key present but disabled.
func featureSet(enabled ...string) map[string]bool {
	features := make(map[string]bool, len(model.FeatureKeys))
	for _, key := range model.FeatureKeys {
		features[key] = false
	}
	for _, key := range enabled {
		features[key] = true
	}
	return features
}

// SeedDefaultPlans inserts the built-in plans if they do not exist yet.
// Existing plans are left untouched so operator edits survive restarts.
func (r *PlanRegistry) SeedDefaultPlans() error {
	for _, plan := range defaultPlanSeeds() {
		var count int64
		if err := r.db.Model(&model.Plan{}).Where("id = ?", plan.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := r.db.Create(&plan).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListPlans returns plans ordered for display. Inactive plans are included
// only when requested.
func (r *PlanRegistry) ListPlans(includeInactive bool) ([]model.Plan, error) {
	query := r.db.Order("sort_order asc, price asc")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var plans []model.Plan
	if err := query.Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// GetPlan returns a plan by slug or ErrNotFound.
func (r *PlanRegistry) GetPlan(id string) (*model.Plan, error) {
	var plan model.Plan
	if err := r.db.First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("plan %q: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &plan, nil
}

// CreatePlan adds an operator-defined plan. The slug must be unique.
func (r *PlanRegistry) CreatePlan(plan *model.Plan) error {
	plan.ID = strings.ToLower(strings.TrimSpace(plan.ID))
	if plan.ID == "" {
		return fmt.Errorf("%w: plan id is required", ErrValidation)
	}
	var count int64
	if err := r.db.Model(&model.Plan{}).Where("id = ?", plan.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: plan %q already exists", ErrValidation, plan.ID)
	}
	if plan.Features == nil {
		plan.Features = featureSet()
	}
	return r.db.Create(plan).Error
}

// UpdatePlan applies a partial update to a plan.
func (r *PlanRegistry) UpdatePlan(id string, update map[string]interface{}) (*model.Plan, error) {
	plan, err := r.GetPlan(id)
	if err != nil {
		return nil, err
	}
	if len(update) > 0 {
		if err := r.db.Model(plan).Updates(update).Error; err != nil {
			return nil, err
		}
	}
	return r.GetPlan(id)
}

// DeletePlan removes an operator-defined plan. Seed plans and plans still
// referenced by tenants cannot be deleted.
func (r *PlanRegistry) DeletePlan(id string) error {
	plan, err := r.GetPlan(id)
	if err != nil {
		return err
	}
	if plan.IsDefault {
		return fmt.Errorf("%w: default plans cannot be deleted", ErrValidation)
	}
	var tenants int64
	if err := r.db.Model(&model.Tenant{}).Where("subscription_plan = ?", id).Count(&tenants).Error; err != nil {
		return err
	}
	if tenants > 0 {
		return fmt.Errorf("%w: plan %q is assigned to %d tenant(s)", ErrValidation, id, tenants)
	}
	return r.db.Delete(&model.Plan{}, "id = ?", id).Error
}

// AssignPlan puts a tenant on the given plan for the given number of months
// and marks the subscription paid.
func (r *PlanRegistry) AssignPlan(tenantID uint, planID string, months int) (*model.Tenant, error) {
	tenant, err := r.GetTenant(tenantID)
	if err != nil {
		return nil, err
	}
	plan, err := r.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	if months <= 0 {
		months = 1
	}

	endsAt := time.Now().UTC().AddDate(0, months, 0)
	status := model.SubscriptionPaid
	if plan.Price == 0 {
		status = model.SubscriptionFree
	}

	updates := map[string]interface{}{
		"subscription_plan":    plan.ID,
		"subscription_status":  status,
		"subscription_ends_at": endsAt,
	}
	if err := r.db.Model(tenant).Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.GetTenant(tenantID)
}

// SetTenantActive flips the tenant suspension flag.
func (r *PlanRegistry) SetTenantActive(tenantID uint, active bool) (*model.Tenant, error) {
	tenant, err := r.GetTenant(tenantID)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(tenant).Update("is_active", active).Error; err != nil {
		return nil, err
	}
	return r.GetTenant(tenantID)
}

// PlatformStats summarizes the platform for the operator dashboard.
type PlatformStats struct {
	TotalTenants  int64            `json:"total_tenants"`
	ActiveTenants int64            `json:"active_tenants"`
	TrialTenants  int64            `json:"trial_tenants"`
	PaidTenants   int64            `json:"paid_tenants"`
	TotalUsers    int64            `json:"total_users"`
	TotalJobs     int64            `json:"total_jobs"`
	JobsByStatus  map[string]int64 `json:"jobs_by_status"`
}

// Stats computes platform-wide counts across all tenants.
func (r *PlanRegistry) Stats() (*PlatformStats, error) {
	stats := &PlatformStats{JobsByStatus: make(map[string]int64)}

	if err := r.db.Model(&model.Tenant{}).Count(&stats.TotalTenants).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Tenant{}).Where("is_active = ?", true).Count(&stats.ActiveTenants).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Tenant{}).Where("subscription_status = ?", model.SubscriptionTrial).Count(&stats.TrialTenants).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Tenant{}).Where("subscription_status = ?", model.SubscriptionPaid).Count(&stats.PaidTenants).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&model.Job{}).Count(&stats.TotalJobs).Error; err != nil {
		return nil, err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	if err := r.db.Model(&model.Job{}).Select("status, count(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.JobsByStatus[row.Status] = row.Count
	}
	return stats, nil
}
