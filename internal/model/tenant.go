package model

import (
	"time"

	"gorm.io/gorm"
)

// Subscription status values for a tenant.
const (
	SubscriptionTrial = "trial"
	SubscriptionPaid  = "paid"
	SubscriptionFree  = "free"
)

// Tenant represents a repair shop on the platform.
// This is the core of our multi-tenant architecture: every job, inventory
// item, user and branch is owned by exactly one tenant.
type Tenant struct {
	ID                 uint              `json:"id" gorm:"primaryKey"`
	CompanyName        string            `json:"company_name" gorm:"type:varchar(255);not null"`
	Subdomain          string            `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	Settings           map[string]string `json:"settings" gorm:"serializer:json"`
	SubscriptionPlan   string            `json:"subscription_plan" gorm:"type:varchar(50);default:'free'"`
	SubscriptionStatus string            `json:"subscription_status" gorm:"type:varchar(20);default:'trial'"`
	TrialEndsAt        *time.Time        `json:"trial_ends_at"`
	SubscriptionEndsAt *time.Time        `json:"subscription_ends_at"`
	IsActive           bool              `json:"is_active" gorm:"default:true"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	DeletedAt          gorm.DeletedAt    `json:"-" gorm:"index"`
}
