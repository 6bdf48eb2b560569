package service

import (
	"testing"
	"time"

	"repairshop-service/internal/model"
)

func TestCheckLimit(t *testing.T) {
	plan := &model.Plan{ID: "basic", Name: "Basic"}

	tests := []struct {
		name    string
		current int
		limit   int
		allowed bool
	}{
		{"under limit", 3, 5, true},
		{"one below limit", 4, 5, true},
		{"at limit", 5, 5, false},
		{"over limit", 7, 5, false},
		{"zero limit", 0, 0, false},
		{"unlimited", 1000000, model.UnlimitedQuota, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CheckLimit(plan, tt.current, tt.limit, "users")
			if res.Allowed != tt.allowed {
				t.Errorf("CheckLimit(%d, %d) allowed = %v, want %v", tt.current, tt.limit, res.Allowed, tt.allowed)
			}
			if !res.Allowed {
				if res.Message == "" {
					t.Error("denied result should carry an upgrade message")
				}
				if res.Current != tt.current || res.Limit != tt.limit {
					t.Errorf("denied result carries current=%d limit=%d, want %d/%d", res.Current, res.Limit, tt.current, tt.limit)
				}
				if res.PlanName != "Basic" {
					t.Errorf("denied result plan name = %q, want Basic", res.PlanName)
				}
			}
		})
	}
}

func TestCheckFeature(t *testing.T) {
	plan := &model.Plan{
		ID:   "basic",
		Name: "Basic",
		Features: map[string]bool{
			model.FeatureJobManagement: true,
			model.FeatureMultiBranch:   false,
		},
	}

	if res := CheckFeature(plan, model.FeatureJobManagement); !res.Allowed {
		t.Error("enabled feature should be allowed")
	}
	if res := CheckFeature(plan, model.FeatureMultiBranch); res.Allowed {
		t.Error("disabled feature should be denied")
	}
	if res := CheckFeature(plan, "no_such_feature"); res.Allowed {
		t.Error("unknown feature key should deny, not error")
	}

	nilFeatures := &model.Plan{ID: "empty", Name: "Empty"}
	if res := CheckFeature(nilFeatures, model.FeatureJobManagement); res.Allowed {
		t.Error("plan with no feature map should deny everything")
	}
}

func TestMonthWindow(t *testing.T) {
	now := time.Date(2025, time.March, 15, 13, 45, 0, 0, time.UTC)
	start, end := MonthWindow(now)

	wantStart := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}

	// December rolls into the next year
	start, end = MonthWindow(time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC))
	if start.Month() != time.December || end.Year() != 2026 || end.Month() != time.January {
		t.Errorf("december window = [%v, %v)", start, end)
	}

	// Non-UTC input normalizes to the UTC month
	ist := time.FixedZone("IST", 5*3600+1800)
	start, _ = MonthWindow(time.Date(2025, time.April, 1, 2, 0, 0, 0, ist))
	if start.Month() != time.March {
		t.Errorf("IST 01 Apr 02:00 is still March in UTC, got %v", start.Month())
	}
}
