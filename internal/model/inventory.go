package model

import (
	"time"

	"gorm.io/gorm"
)

// StockEntry is one signed movement in an item's append-only stock history.
type StockEntry struct {
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	JobID     *uint     `json:"job_id,omitempty"`
	Quantity  int       `json:"quantity"` // quantity after applying the delta
	UserID    uint      `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// InventoryItem is a stocked part owned by a tenant. Quantity is never
// negative; every change goes through the ledger's adjust operation.
type InventoryItem struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	TenantID      uint           `json:"tenant_id" gorm:"index:idx_inventory_tenant_sku,unique;not null"`
	Name          string         `json:"name" gorm:"type:varchar(255);not null"`
	SKU           string         `json:"sku" gorm:"type:varchar(100);index:idx_inventory_tenant_sku,unique;not null"`
	Quantity      int            `json:"quantity" gorm:"not null;default:0"`
	MinStockLevel int            `json:"min_stock_level" gorm:"default:0"`
	CostPrice     float64        `json:"cost_price" gorm:"default:0"`
	SellingPrice  float64        `json:"selling_price" gorm:"default:0"`
	StockHistory  []StockEntry   `json:"stock_history" gorm:"serializer:json"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsLowStock is derived, never stored.
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.MinStockLevel
}

// InventoryUsage is the immutable fact linking a repair's part consumption to
// a job and an inventory item. Created only by the repair transition.
type InventoryUsage struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	TenantID        uint      `json:"tenant_id" gorm:"index;not null"`
	InventoryID     uint      `json:"inventory_id" gorm:"index;not null"`
	JobID           uint      `json:"job_id" gorm:"index;not null"`
	QuantityUsed    int       `json:"quantity_used" gorm:"not null"`
	UnitPriceAtTime float64   `json:"unit_price_at_time" gorm:"not null"`
	UsedBy          uint      `json:"used_by"`
	UsedByName      string    `json:"used_by_name" gorm:"type:varchar(100)"`
	UsedAt          time.Time `json:"used_at"`
}
