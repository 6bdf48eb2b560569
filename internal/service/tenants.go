package service

import (
	"fmt"
	"strings"
	"time"

	"repairshop-service/internal/model"

	"gorm.io/gorm"
)

// TenantService handles tenant signup/settings and the user/branch resources
// counted against plan quotas. No credentials pass through here; identity is
// the auth collaborator's problem.
type TenantService struct {
	db       *gorm.DB
	registry *PlanRegistry
}

func NewTenantService(db *gorm.DB, registry *PlanRegistry) *TenantService {
	return &TenantService{db: db, registry: registry}
}

// CreateTenantInput carries the signup fields.
type CreateTenantInput struct {
	CompanyName string `json:"company_name"`
	Subdomain   string `json:"subdomain"`
}

// CreateTenant registers a repair shop. Subdomains are globally unique,
// case-insensitive; new tenants start a 14-day trial on the free plan.
func (s *TenantService) CreateTenant(input CreateTenantInput) (*model.Tenant, error) {
	if input.CompanyName == "" {
		return nil, fmt.Errorf("%w: company name is required", ErrValidation)
	}
	subdomain := strings.ToLower(strings.TrimSpace(input.Subdomain))
	if subdomain == "" {
		return nil, fmt.Errorf("%w: subdomain is required", ErrValidation)
	}

	var count int64
	if err := s.db.Model(&model.Tenant{}).Where("subdomain = ?", subdomain).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: subdomain %q is already taken", ErrValidation, subdomain)
	}

	trialEnds := time.Now().UTC().AddDate(0, 0, 14)
	tenant := model.Tenant{
		CompanyName:        input.CompanyName,
		Subdomain:          subdomain,
		Settings:           map[string]string{},
		SubscriptionPlan:   "free",
		SubscriptionStatus: model.SubscriptionTrial,
		TrialEndsAt:        &trialEnds,
		IsActive:           true,
	}
	if err := s.db.Create(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

// SubdomainAvailable reports whether a subdomain is free to claim.
func (s *TenantService) SubdomainAvailable(subdomain string) (bool, error) {
	var count int64
	err := s.db.Model(&model.Tenant{}).
		Where("subdomain = ?", strings.ToLower(strings.TrimSpace(subdomain))).
		Count(&count).Error
	return count == 0, err
}

// UpdateSettings merges display/branding settings into the tenant.
func (s *TenantService) UpdateSettings(tenantID uint, settings map[string]string) (*model.Tenant, error) {
	tenant, err := s.registry.GetTenant(tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Settings == nil {
		tenant.Settings = map[string]string{}
	}
	for key, value := range settings {
		tenant.Settings[key] = value
	}
	if err := s.db.Model(tenant).Update("settings", tenant.Settings).Error; err != nil {
		return nil, err
	}
	return tenant, nil
}

// CreateUserInput carries the team-member form.
type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	BranchID *uint  `json:"branch_id"`
}

// CreateUser adds a team member, gated by the max_users quota.
func (s *TenantService) CreateUser(actor Actor, input CreateUserInput) (*model.User, error) {
	plan, err := s.registry.ResolvePlan(actor.TenantID)
	if err != nil {
		return nil, err
	}
	current, err := s.registry.CountUsers(actor.TenantID)
	if err != nil {
		return nil, err
	}
	if res := CheckLimit(plan, current, plan.MaxUsers, "users"); !res.Allowed {
		return nil, &QuotaExceededError{Result: res}
	}

	if input.Name == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	role := input.Role
	if role == "" {
		role = "technician"
	}

	var dup int64
	if err := s.db.Model(&model.User{}).
		Where("tenant_id = ? AND email = ?", actor.TenantID, strings.ToLower(input.Email)).
		Count(&dup).Error; err != nil {
		return nil, err
	}
	if dup > 0 {
		return nil, fmt.Errorf("%w: email already exists", ErrValidation)
	}

	user := model.User{
		TenantID: actor.TenantID,
		Name:     input.Name,
		Email:    strings.ToLower(input.Email),
		Role:     role,
		BranchID: input.BranchID,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns the tenant's team.
func (s *TenantService) ListUsers(tenantID uint) ([]model.User, error) {
	var users []model.User
	err := s.db.Where("tenant_id = ?", tenantID).Order("created_at asc").Find(&users).Error
	return users, err
}

// DeleteUser removes a team member. Self-deletion is rejected.
func (s *TenantService) DeleteUser(actor Actor, userID uint) error {
	if userID == actor.UserID {
		return fmt.Errorf("%w: cannot delete yourself", ErrValidation)
	}
	result := s.db.Where("id = ? AND tenant_id = ?", userID, actor.TenantID).Delete(&model.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// CreateBranchInput carries the branch form.
type CreateBranchInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// CreateBranch adds a location. The first branch is always allowed; growing
// past one requires the multi_branch feature, and every branch counts against
// max_branches.
func (s *TenantService) CreateBranch(actor Actor, input CreateBranchInput) (*model.Branch, error) {
	plan, err := s.registry.ResolvePlan(actor.TenantID)
	if err != nil {
		return nil, err
	}
	current, err := s.registry.CountBranches(actor.TenantID)
	if err != nil {
		return nil, err
	}
	if current >= 1 {
		if res := CheckFeature(plan, model.FeatureMultiBranch); !res.Allowed {
			return nil, &FeatureNotAvailableError{Feature: model.FeatureMultiBranch, PlanName: plan.Name}
		}
	}
	if res := CheckLimit(plan, current, plan.MaxBranches, "branches"); !res.Allowed {
		return nil, &QuotaExceededError{Result: res}
	}

	if input.Name == "" {
		return nil, fmt.Errorf("%w: branch name is required", ErrValidation)
	}
	branch := model.Branch{
		TenantID: actor.TenantID,
		Name:     input.Name,
		Address:  input.Address,
		Phone:    input.Phone,
	}
	if err := s.db.Create(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

// ListBranches returns the tenant's locations.
func (s *TenantService) ListBranches(tenantID uint) ([]model.Branch, error) {
	var branches []model.Branch
	err := s.db.Where("tenant_id = ?", tenantID).Order("created_at asc").Find(&branches).Error
	return branches, err
}

// DeleteBranch removes a location. Branches with jobs cannot be deleted.
func (s *TenantService) DeleteBranch(actor Actor, branchID uint) error {
	var jobs int64
	err := s.db.Model(&model.Job{}).
		Where("tenant_id = ? AND branch_id = ?", actor.TenantID, branchID).
		Count(&jobs).Error
	if err != nil {
		return err
	}
	if jobs > 0 {
		return fmt.Errorf("%w: branch has %d job(s)", ErrValidation, jobs)
	}

	result := s.db.Where("id = ? AND tenant_id = ?", branchID, actor.TenantID).Delete(&model.Branch{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("branch %d: %w", branchID, ErrNotFound)
	}
	return nil
}
