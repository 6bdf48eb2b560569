package model

import (
	"time"
)

// CustomerPayment is a direct ledger payment recorded against a customer,
// outside any single job's delivery. It counts toward the customer's received
// total when computing outstanding balance.
type CustomerPayment struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	TenantID       uint      `json:"tenant_id" gorm:"index;not null"`
	CustomerMobile string    `json:"customer_mobile" gorm:"type:varchar(20);index;not null"`
	CustomerName   string    `json:"customer_name" gorm:"type:varchar(100)"`
	Amount         float64   `json:"amount" gorm:"not null"`
	PaymentMode    string    `json:"payment_mode" gorm:"type:varchar(30)"`
	Notes          string    `json:"notes" gorm:"type:text"`
	RecordedBy     uint      `json:"recorded_by"`
	CreatedAt      time.Time `json:"created_at"`
}
