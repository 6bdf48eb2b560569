package service

import (
	"testing"

	"repairshop-service/internal/model"
	"repairshop-service/pkg/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema and the
// default plans seeded.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	if err := NewPlanRegistry(db).SeedDefaultPlans(); err != nil {
		t.Fatalf("seed plans: %v", err)
	}
	return db
}

// newTestTenant creates a tenant on the given plan and returns an admin actor
// scoped to it.
func newTestTenant(t *testing.T, db *gorm.DB, plan string) (*model.Tenant, Actor) {
	t.Helper()

	tenant := model.Tenant{
		CompanyName:        "Test Repairs " + plan,
		Subdomain:          "test-" + plan,
		Settings:           map[string]string{},
		SubscriptionPlan:   plan,
		SubscriptionStatus: model.SubscriptionPaid,
		IsActive:           true,
	}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	actor := Actor{TenantID: tenant.ID, UserID: 9001, Name: "Test Admin", Role: "admin"}
	return &tenant, actor
}

func floatPtr(v float64) *float64 { return &v }
