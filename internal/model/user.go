package model

import (
	"time"

	"gorm.io/gorm"
)

// User is a tenant team member. Credential handling lives outside this
// service; users exist here as actors on jobs and as quota-counted resources.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Email     string         `json:"email" gorm:"type:varchar(255);index;not null"`
	Role      string         `json:"role" gorm:"type:varchar(50);default:'technician'"`
	BranchID  *uint          `json:"branch_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
