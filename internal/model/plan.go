package model

import (
	"time"
)

// UnlimitedQuota is the sentinel limit value meaning "no cap".
const UnlimitedQuota = -1

// Feature flag vocabulary. Unknown keys are denied by default.
const (
	FeatureJobManagement       = "job_management"
	FeatureBasicReports        = "basic_reports"
	FeaturePDFJobSheet         = "pdf_job_sheet"
	FeatureQRTracking          = "qr_tracking"
	FeatureWhatsAppMessages    = "whatsapp_messages"
	FeaturePhotoUpload         = "photo_upload"
	FeatureInventoryManagement = "inventory_management"
	FeatureAdvancedAnalytics   = "advanced_analytics"
	FeatureTechnicianMetrics   = "technician_metrics"
	FeatureCustomerManagement  = "customer_management"
	FeatureEmailNotifications  = "email_notifications"
	FeatureSMSNotifications    = "sms_notifications"
	FeatureCustomBranding      = "custom_branding"
	FeatureAPIAccess           = "api_access"
	FeaturePrioritySupport     = "priority_support"
	FeatureDedicatedManager    = "dedicated_account_manager"
	FeatureDataExport          = "data_export"
	FeatureMultiBranch         = "multi_branch"
)

// FeatureKeys lists every toggleable feature, in display order.
var FeatureKeys = []string{
	FeatureJobManagement, FeatureBasicReports, FeaturePDFJobSheet, FeatureQRTracking,
	FeatureWhatsAppMessages, FeaturePhotoUpload, FeatureInventoryManagement,
	FeatureAdvancedAnalytics, FeatureTechnicianMetrics, FeatureCustomerManagement,
	FeatureEmailNotifications, FeatureSMSNotifications, FeatureCustomBranding,
	FeatureAPIAccess, FeaturePrioritySupport, FeatureDedicatedManager,
	FeatureDataExport, FeatureMultiBranch,
}

// Plan defines a subscription plan: its price, numeric resource limits and
// gated features. The ID is a stable slug ("free", "basic", ...).
type Plan struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(50)"`
	Name              string          `json:"name" gorm:"type:varchar(100);not null"`
	Price             float64         `json:"price" gorm:"not null;default:0"`
	MaxUsers          int             `json:"max_users" gorm:"default:0"`
	MaxBranches       int             `json:"max_branches" gorm:"default:0"`
	MaxJobsPerMonth   int             `json:"max_jobs_per_month" gorm:"default:0"`
	MaxInventoryItems int             `json:"max_inventory_items" gorm:"default:0"`
	MaxPhotosPerJob   int             `json:"max_photos_per_job" gorm:"default:0"`
	MaxStorageMB      int             `json:"max_storage_mb" gorm:"default:0"`
	Features          map[string]bool `json:"features" gorm:"serializer:json"`
	IsDefault         bool            `json:"is_default" gorm:"default:false"`
	IsActive          bool            `json:"is_active" gorm:"default:true"`
	SortOrder         int             `json:"sort_order" gorm:"default:0"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// HasFeature reports whether the plan enables the given feature key.
// Unknown keys are treated as disabled, never as an error.
func (p *Plan) HasFeature(key string) bool {
	return p.Features[key]
}
