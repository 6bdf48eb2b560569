package service

import (
	"fmt"
	"time"

	"repairshop-service/internal/model"
)

// LimitResult is the outcome of a quota or feature check. When denied, the
// fields are shaped for direct use as a user-facing upgrade prompt.
type LimitResult struct {
	Allowed  bool   `json:"allowed"`
	Message  string `json:"message,omitempty"`
	Current  int    `json:"current,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	PlanName string `json:"plan_name,omitempty"`
}

// CheckLimit decides whether one more resource of the named kind may be
// created under the plan. A limit of -1 means unlimited. The caller is
// responsible for computing current with the correct counting window:
// users/branches/inventory all-time per tenant, jobs per current UTC calendar
// month, photos per job.
//
// The check is advisory, evaluated before the mutation; concurrent requests
// can both pass and overshoot the limit by the degree of concurrency.
func CheckLimit(plan *model.Plan, current, limit int, resource string) LimitResult {
	if limit == model.UnlimitedQuota {
		return LimitResult{Allowed: true, PlanName: plan.Name}
	}
	if current < limit {
		return LimitResult{Allowed: true, Current: current, Limit: limit, PlanName: plan.Name}
	}
	return LimitResult{
		Allowed:  false,
		Message:  fmt.Sprintf("Your %s plan allows up to %d %s. Upgrade your plan to add more.", plan.Name, limit, resource),
		Current:  current,
		Limit:    limit,
		PlanName: plan.Name,
	}
}

// CheckFeature decides whether the plan enables a gated capability. An
// unknown key denies by default; it is never an error.
func CheckFeature(plan *model.Plan, key string) LimitResult {
	if plan.HasFeature(key) {
		return LimitResult{Allowed: true, PlanName: plan.Name}
	}
	return LimitResult{
		Allowed:  false,
		Message:  fmt.Sprintf("The %s feature is not included in your %s plan. Upgrade to unlock it.", key, plan.Name),
		PlanName: plan.Name,
	}
}

// MonthWindow returns the half-open [start, end) interval of the UTC calendar
// month containing t. Monthly job quotas reset at the start boundary.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
