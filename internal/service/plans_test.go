package service

import (
	"errors"
	"testing"
	"time"

	"repairshop-service/internal/model"
)

func TestSeedDefaultPlans(t *testing.T) {
	db := newTestDB(t)
	registry := NewPlanRegistry(db)

	plans, err := registry.ListPlans(false)
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(plans) != 4 {
		t.Fatalf("seeded plans = %d, want 4", len(plans))
	}
	if plans[0].ID != "free" || plans[3].ID != "enterprise" {
		t.Errorf("plan order = %s..%s", plans[0].ID, plans[3].ID)
	}

	// Reseeding must not clobber operator edits
	if _, err := registry.UpdatePlan("basic", map[string]interface{}{"price": 599.0}); err != nil {
		t.Fatalf("update plan: %v", err)
	}
	if err := registry.SeedDefaultPlans(); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	basic, err := registry.GetPlan("basic")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if basic.Price != 599 {
		t.Errorf("price after reseed = %v, want 599", basic.Price)
	}

	enterprise, _ := registry.GetPlan("enterprise")
	if enterprise.MaxUsers != model.UnlimitedQuota {
		t.Errorf("enterprise max users = %d, want unlimited", enterprise.MaxUsers)
	}
	for _, key := range model.FeatureKeys {
		if !enterprise.HasFeature(key) {
			t.Errorf("enterprise missing feature %s", key)
		}
	}
}

func TestResolvePlanFallback(t *testing.T) {
	db := newTestDB(t)
	registry := NewPlanRegistry(db)

	tenant, _ := newTestTenant(t, db, "pro")
	plan, err := registry.ResolvePlan(tenant.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if plan.ID != "pro" {
		t.Errorf("resolved plan = %s, want pro", plan.ID)
	}

	// A dangling plan reference falls back to the cheapest default
	ghost, _ := newTestTenant(t, db, "deleted-tier")
	plan, err = registry.ResolvePlan(ghost.ID)
	if err != nil {
		t.Fatalf("resolve fallback: %v", err)
	}
	if plan.ID != "free" {
		t.Errorf("fallback plan = %s, want free", plan.ID)
	}

	// So does a deactivated plan
	if _, err := registry.UpdatePlan("pro", map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	plan, err = registry.ResolvePlan(tenant.ID)
	if err != nil {
		t.Fatalf("resolve after deactivate: %v", err)
	}
	if plan.ID != "free" {
		t.Errorf("plan after deactivate = %s, want free", plan.ID)
	}

	if _, err := registry.ResolvePlan(99999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing tenant err = %v, want ErrNotFound", err)
	}
}

func TestPlanCRUD(t *testing.T) {
	db := newTestDB(t)
	registry := NewPlanRegistry(db)

	custom := &model.Plan{ID: " Startup ", Name: "Startup", Price: 299, MaxUsers: 3}
	if err := registry.CreatePlan(custom); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if custom.ID != "startup" {
		t.Errorf("slug = %q, want normalized startup", custom.ID)
	}
	if custom.Features == nil {
		t.Error("created plan should get a full feature map")
	}

	if err := registry.CreatePlan(&model.Plan{ID: "startup"}); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate slug err = %v, want ErrValidation", err)
	}
	if err := registry.CreatePlan(&model.Plan{ID: "  "}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank slug err = %v, want ErrValidation", err)
	}

	if err := registry.DeletePlan("free"); !errors.Is(err, ErrValidation) {
		t.Errorf("delete seed plan err = %v, want ErrValidation", err)
	}

	tenant, _ := newTestTenant(t, db, "startup")
	if err := registry.DeletePlan("startup"); !errors.Is(err, ErrValidation) {
		t.Errorf("delete in-use plan err = %v, want ErrValidation", err)
	}
	if _, err := registry.AssignPlan(tenant.ID, "pro", 12); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if err := registry.DeletePlan("startup"); err != nil {
		t.Fatalf("delete unused plan: %v", err)
	}
	if _, err := registry.GetPlan("startup"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted plan err = %v, want ErrNotFound", err)
	}
}

func TestAssignPlan(t *testing.T) {
	db := newTestDB(t)
	registry := NewPlanRegistry(db)
	tenant, _ := newTestTenant(t, db, "free")

	updated, err := registry.AssignPlan(tenant.ID, "pro", 6)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.SubscriptionPlan != "pro" || updated.SubscriptionStatus != model.SubscriptionPaid {
		t.Errorf("tenant after assign = %s/%s", updated.SubscriptionPlan, updated.SubscriptionStatus)
	}
	if updated.SubscriptionEndsAt == nil {
		t.Fatal("subscription end missing")
	}
	wantEnd := time.Now().UTC().AddDate(0, 6, 0)
	if diff := updated.SubscriptionEndsAt.Sub(wantEnd); diff < -time.Minute || diff > time.Minute {
		t.Errorf("subscription ends %v, want about %v", updated.SubscriptionEndsAt, wantEnd)
	}

	// Assigning a zero-price plan marks the subscription free
	updated, err = registry.AssignPlan(tenant.ID, "free", 1)
	if err != nil {
		t.Fatalf("assign free: %v", err)
	}
	if updated.SubscriptionStatus != model.SubscriptionFree {
		t.Errorf("status = %s, want free", updated.SubscriptionStatus)
	}

	if _, err := registry.AssignPlan(tenant.ID, "no-such-plan", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown plan err = %v, want ErrNotFound", err)
	}
}

func TestMonthlyQuotaWindowReset(t *testing.T) {
	db := newTestDB(t)
	registry := NewPlanRegistry(db)
	tenant, _ := newTestTenant(t, db, "free")

	// Backdate a job into last month; it must not count this month
	old := model.Job{
		TenantID: tenant.ID, JobNumber: "JOB-2025-000001", TrackingToken: "AAAA1111",
		Status: model.StatusClosed,
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("create old job: %v", err)
	}
	monthStart, _ := MonthWindow(time.Now())
	lastMonth := monthStart.AddDate(0, 0, -1)
	if err := db.Model(&old).Update("created_at", lastMonth).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}
	current := model.Job{
		TenantID: tenant.ID, JobNumber: "JOB-2025-000002", TrackingToken: "BBBB2222",
		Status: model.StatusReceived,
	}
	if err := db.Create(&current).Error; err != nil {
		t.Fatalf("create current job: %v", err)
	}

	n, err := registry.CountJobsInMonth(tenant.ID, time.Now())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("jobs this month = %d, want 1", n)
	}
	n, err = registry.CountJobsInMonth(tenant.ID, lastMonth)
	if err != nil {
		t.Fatalf("count last month: %v", err)
	}
	if n != 1 {
		t.Errorf("jobs last month = %d, want 1", n)
	}
}

func TestPlatformStats(t *testing.T) {
	db := newTestDB(t)
	registry := NewPlanRegistry(db)
	jobs := NewJobService(db, registry)

	_, actorA := newTestTenant(t, db, "pro")
	_, _ = newTestTenant(t, db, "free")
	createJob(t, jobs, actorA)
	createJob(t, jobs, actorA)

	stats, err := registry.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTenants != 2 || stats.ActiveTenants != 2 {
		t.Errorf("tenants = %d/%d", stats.TotalTenants, stats.ActiveTenants)
	}
	if stats.TotalJobs != 2 || stats.JobsByStatus[model.StatusReceived] != 2 {
		t.Errorf("jobs = %d, by status = %v", stats.TotalJobs, stats.JobsByStatus)
	}
}
