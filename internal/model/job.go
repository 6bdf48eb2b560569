package model

import (
	"time"
)

// Job status values. A job moves received -> waiting_for_approval ->
// in_progress (optionally bouncing through pending_parts) -> repaired ->
// delivered -> closed. Closed is terminal.
const (
	StatusReceived           = "received"
	StatusDiagnosed          = "diagnosed"
	StatusWaitingForApproval = "waiting_for_approval"
	StatusInProgress         = "in_progress"
	StatusPendingParts       = "pending_parts"
	StatusRepaired           = "repaired"
	StatusDelivered          = "delivered"
	StatusClosed             = "closed"
)

// ValidStatuses lists every recognized job status.
var ValidStatuses = []string{
	StatusReceived, StatusDiagnosed, StatusWaitingForApproval, StatusInProgress,
	StatusPendingParts, StatusRepaired, StatusDelivered, StatusClosed,
}

// IsValidStatus reports whether s is a recognized job status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// CustomerInfo identifies the customer who brought the device in.
type CustomerInfo struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Email  string `json:"email,omitempty"`
}

// DeviceInfo describes the device under repair.
type DeviceInfo struct {
	DeviceType     string `json:"device_type"`
	Brand          string `json:"brand"`
	Model          string `json:"model"`
	SerialIMEI     string `json:"serial_imei"`
	Condition      string `json:"condition"`
	ConditionNotes string `json:"condition_notes,omitempty"`
	UnlockPassword string `json:"unlock_password,omitempty"`
	UnlockPattern  string `json:"unlock_pattern,omitempty"`
}

// Accessory is an item handed over together with the device.
type Accessory struct {
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

// StatusEntry is one record in a job's append-only audit trail.
type StatusEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	UserID    uint      `json:"user_id"`
	UserName  string    `json:"user_name"`
	Notes     string    `json:"notes"`
}

// Photo is a reference to an uploaded job photo. Byte validation and storage
// belong to the upload collaborator, not the core.
type Photo struct {
	ID          string    `json:"id"`
	StoragePath string    `json:"storage_path"`
	PhotoType   string    `json:"photo_type"`
	UploadedBy  uint      `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Diagnosis is the technician's assessment, set by the diagnosis transition.
type Diagnosis struct {
	Diagnosis         string    `json:"diagnosis"`
	EstimatedCost     float64   `json:"estimated_cost"`
	EstimatedTimeline string    `json:"estimated_timeline"`
	PartsRequired     string    `json:"parts_required,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
	UpdatedBy         uint      `json:"updated_by"`
}

// Approval records the customer's go-ahead for the estimated work.
type Approval struct {
	ApprovedAmount float64   `json:"approved_amount"`
	Notes          string    `json:"notes,omitempty"`
	ApprovedAt     time.Time `json:"approved_at"`
	RecordedBy     uint      `json:"recorded_by"`
}

// PartUsed is one inventory line consumed by a repair.
type PartUsed struct {
	InventoryID uint    `json:"inventory_id"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
}

// Repair records the completed work, set by the repair transition.
type Repair struct {
	WorkDone      string     `json:"work_done"`
	PartsReplaced string     `json:"parts_replaced,omitempty"`
	PartsUsed     []PartUsed `json:"parts_used,omitempty"`
	PartsCost     float64    `json:"parts_cost"`
	FinalAmount   float64    `json:"final_amount"`
	WarrantyInfo  string     `json:"warranty_info,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
	UpdatedBy     uint       `json:"updated_by"`
}

// Delivery records handover to the customer and the money side of the job.
// ExpenseParts/ExpenseLabor are nil until the shop records actuals; a nil
// expense means "pending", not zero.
type Delivery struct {
	AmountReceived float64   `json:"amount_received"`
	PaymentMode    string    `json:"payment_mode"`
	IsCredit       bool      `json:"is_credit,omitempty"`
	ExpenseParts   *float64  `json:"expense_parts"`
	ExpenseLabor   *float64  `json:"expense_labor"`
	DeliveredAt    time.Time `json:"delivered_at"`
	DeliveredBy    uint      `json:"delivered_by"`
}

// Closure records the terminal close transition.
type Closure struct {
	DeviceDelivered     bool      `json:"device_delivered"`
	AccessoriesReturned []string  `json:"accessories_returned"`
	PaymentMode         string    `json:"payment_mode"`
	InvoiceReference    string    `json:"invoice_reference,omitempty"`
	ClosedAt            time.Time `json:"closed_at"`
	ClosedBy            uint      `json:"closed_by"`
}

// Job is the central aggregate: a repair tracked from intake to closure.
// Sub-records are nil until their transition runs and are replaced wholesale
// on re-runs. StatusHistory is append-only and grows by exactly one entry per
// successful transition. Jobs are never deleted; closing is terminal.
type Job struct {
	ID                    uint          `json:"id" gorm:"primaryKey"`
	TenantID              uint          `json:"tenant_id" gorm:"index;not null"`
	BranchID              *uint         `json:"branch_id" gorm:"index"`
	JobNumber             string        `json:"job_number" gorm:"type:varchar(30);index;not null"`
	TrackingToken         string        `json:"tracking_token" gorm:"type:varchar(12);index;not null"`
	Customer              CustomerInfo  `json:"customer" gorm:"serializer:json"`
	Device                DeviceInfo    `json:"device" gorm:"serializer:json"`
	Accessories           []Accessory   `json:"accessories" gorm:"serializer:json"`
	ProblemDescription    string        `json:"problem_description" gorm:"type:text"`
	TechnicianObservation string        `json:"technician_observation" gorm:"type:text"`
	Status                string        `json:"status" gorm:"type:varchar(30);index;not null"`
	Diagnosis             *Diagnosis    `json:"diagnosis" gorm:"serializer:json"`
	Approval              *Approval     `json:"approval" gorm:"serializer:json"`
	Repair                *Repair       `json:"repair" gorm:"serializer:json"`
	Delivery              *Delivery     `json:"delivery" gorm:"serializer:json"`
	Closure               *Closure      `json:"closure" gorm:"serializer:json"`
	StatusHistory         []StatusEntry `json:"status_history" gorm:"serializer:json"`
	Photos                []Photo       `json:"photos" gorm:"serializer:json"`
	CreatedBy             uint          `json:"created_by"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// PublicStatusEntry is a status history entry with actor identifiers removed,
// safe for the unauthenticated tracking view.
type PublicStatusEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes"`
}

// PublicJobView is the sanitized projection returned by the public tracking
// lookup keyed on (job_number, tracking_token).
type PublicJobView struct {
	JobNumber     string              `json:"job_number"`
	CustomerName  string              `json:"customer_name"`
	Device        DeviceInfo          `json:"device"`
	Status        string              `json:"status"`
	StatusHistory []PublicStatusEntry `json:"status_history"`
	CreatedAt     time.Time           `json:"created_at"`
}

// PublicView derives the sanitized tracking projection from a job. Unlock
// credentials are blanked along with actor user IDs.
func (j *Job) PublicView() PublicJobView {
	history := make([]PublicStatusEntry, 0, len(j.StatusHistory))
	for _, e := range j.StatusHistory {
		history = append(history, PublicStatusEntry{
			Status:    e.Status,
			Timestamp: e.Timestamp,
			Notes:     e.Notes,
		})
	}

	device := j.Device
	device.UnlockPassword = ""
	device.UnlockPattern = ""

	return PublicJobView{
		JobNumber:     j.JobNumber,
		CustomerName:  j.Customer.Name,
		Device:        device,
		Status:        j.Status,
		StatusHistory: history,
		CreatedAt:     j.CreatedAt,
	}
}
