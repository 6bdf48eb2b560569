package service

import (
	"errors"
	"fmt"
	"time"

	"repairshop-service/internal/model"

	"gorm.io/gorm"
)

// InventoryService owns part stock for every tenant. All quantity changes go
// through the adjust primitive so the non-negative invariant and the
// append-only stock history hold for any call sequence.
type InventoryService struct {
	db       *gorm.DB
	registry *PlanRegistry
}

func NewInventoryService(db *gorm.DB, registry *PlanRegistry) *InventoryService {
	return &InventoryService{db: db, registry: registry}
}

// CreateItemInput carries the fields accepted at item creation.
type CreateItemInput struct {
	Name          string  `json:"name"`
	SKU           string  `json:"sku"`
	Quantity      int     `json:"quantity"`
	MinStockLevel int     `json:"min_stock_level"`
	CostPrice     float64 `json:"cost_price"`
	SellingPrice  float64 `json:"selling_price"`
}

// CreateItem adds a part to the tenant's inventory. Gated by the
// inventory_management feature and the max_inventory_items quota. A missing
// SKU gets a sequential tenant-scoped slug.
func (s *InventoryService) CreateItem(actor Actor, input CreateItemInput) (*model.InventoryItem, error) {
	plan, err := s.registry.ResolvePlan(actor.TenantID)
	if err != nil {
		return nil, err
	}
	if res := CheckFeature(plan, model.FeatureInventoryManagement); !res.Allowed {
		return nil, &FeatureNotAvailableError{Feature: model.FeatureInventoryManagement, PlanName: plan.Name}
	}
	current, err := s.registry.CountInventoryItems(actor.TenantID)
	if err != nil {
		return nil, err
	}
	if res := CheckLimit(plan, current, plan.MaxInventoryItems, "inventory items"); !res.Allowed {
		return nil, &QuotaExceededError{Result: res}
	}

	if input.Name == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if input.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}

	sku := input.SKU
	if sku == "" {
		sku = fmt.Sprintf("PART-%04d", current+1)
	}
	var dup int64
	if err := s.db.Model(&model.InventoryItem{}).
		Where("tenant_id = ? AND sku = ?", actor.TenantID, sku).Count(&dup).Error; err != nil {
		return nil, err
	}
	if dup > 0 {
		return nil, fmt.Errorf("%w: sku %q already exists", ErrValidation, sku)
	}

	now := time.Now().UTC()
	item := model.InventoryItem{
		TenantID:      actor.TenantID,
		Name:          input.Name,
		SKU:           sku,
		Quantity:      input.Quantity,
		MinStockLevel: input.MinStockLevel,
		CostPrice:     input.CostPrice,
		SellingPrice:  input.SellingPrice,
	}
	if input.Quantity > 0 {
		item.StockHistory = []model.StockEntry{{
			Delta:     input.Quantity,
			Reason:    "Initial stock",
			Quantity:  input.Quantity,
			UserID:    actor.UserID,
			Timestamp: now,
		}}
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItem returns a tenant's item or ErrNotFound.
func (s *InventoryService) GetItem(tenantID, itemID uint) (*model.InventoryItem, error) {
	return getItemTx(s.db, tenantID, itemID)
}

func getItemTx(tx *gorm.DB, tenantID, itemID uint) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := tx.Where("id = ? AND tenant_id = ?", itemID, tenantID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("inventory item %d: %w", itemID, ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

// ListItems returns the tenant's inventory, optionally filtered to low-stock
// items or by a name/SKU search.
func (s *InventoryService) ListItems(tenantID uint, lowStockOnly bool, search string) ([]model.InventoryItem, error) {
	query := s.db.Where("tenant_id = ?", tenantID).Order("name asc")
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR sku LIKE ?", pattern, pattern)
	}
	var items []model.InventoryItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	if lowStockOnly {
		filtered := items[:0]
		for _, item := range items {
			if item.IsLowStock() {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	return items, nil
}

// UpdateItemInput carries the mutable item fields. Quantity is deliberately
// absent; stock moves only through Adjust.
type UpdateItemInput struct {
	Name          *string  `json:"name"`
	MinStockLevel *int     `json:"min_stock_level"`
	CostPrice     *float64 `json:"cost_price"`
	SellingPrice  *float64 `json:"selling_price"`
}

// UpdateItem applies a partial update to item master data.
func (s *InventoryService) UpdateItem(actor Actor, itemID uint, input UpdateItemInput) (*model.InventoryItem, error) {
	item, err := s.GetItem(actor.TenantID, itemID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.MinStockLevel != nil {
		updates["min_stock_level"] = *input.MinStockLevel
	}
	if input.CostPrice != nil {
		updates["cost_price"] = *input.CostPrice
	}
	if input.SellingPrice != nil {
		updates["selling_price"] = *input.SellingPrice
	}
	if len(updates) > 0 {
		if err := s.db.Model(item).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.GetItem(actor.TenantID, itemID)
}

// DeleteItem removes an item from the tenant's inventory.
func (s *InventoryService) DeleteItem(actor Actor, itemID uint) error {
	item, err := s.GetItem(actor.TenantID, itemID)
	if err != nil {
		return err
	}
	return s.db.Delete(item).Error
}

// Adjust applies a signed stock delta with a reason and optional job
// reference, and appends the movement to the item's stock history. It fails
// with ErrValidation when the delta would drive the quantity negative.
func (s *InventoryService) Adjust(actor Actor, itemID uint, delta int, reason string, jobID *uint) (*model.InventoryItem, error) {
	var item *model.InventoryItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		item, txErr = adjustTx(tx, actor, itemID, delta, reason, jobID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// adjustTx is the lower-level primitive the repair transition calls per part
// inside its own transaction.
func adjustTx(tx *gorm.DB, actor Actor, itemID uint, delta int, reason string, jobID *uint) (*model.InventoryItem, error) {
	item, err := getItemTx(tx, actor.TenantID, itemID)
	if err != nil {
		return nil, err
	}
	next := item.Quantity + delta
	if next < 0 {
		return nil, fmt.Errorf("%w: adjustment of %d would leave %q at %d", ErrValidation, delta, item.Name, next)
	}

	item.Quantity = next
	item.StockHistory = append(item.StockHistory, model.StockEntry{
		Delta:     delta,
		Reason:    reason,
		JobID:     jobID,
		Quantity:  next,
		UserID:    actor.UserID,
		Timestamp: time.Now().UTC(),
	})
	if err := tx.Model(item).Select("quantity", "stock_history").Updates(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UsageRecord is one consumption fact joined with job display data, for the
// usage-history view.
type UsageRecord struct {
	JobID        uint      `json:"job_id"`
	JobNumber    string    `json:"job_number"`
	QuantityUsed int       `json:"quantity_used"`
	UnitPrice    float64   `json:"unit_price"`
	CustomerName string    `json:"customer_name"`
	Device       string    `json:"device"`
	UsedByName   string    `json:"used_by_name"`
	UsedAt       time.Time `json:"used_at"`
}

// UsageHistoryResult pairs the item with its consumption records,
// most-recent-first.
type UsageHistoryResult struct {
	Item         *model.InventoryItem `json:"item"`
	UsageHistory []UsageRecord        `json:"usage_history"`
	TotalUsed    int                  `json:"total_used"`
}

// UsageHistory returns the item's repair consumption, newest first, enriched
// with the consuming job's number, customer and device.
func (s *InventoryService) UsageHistory(tenantID, itemID uint) (*UsageHistoryResult, error) {
	item, err := s.GetItem(tenantID, itemID)
	if err != nil {
		return nil, err
	}

	var usages []model.InventoryUsage
	err = s.db.Where("tenant_id = ? AND inventory_id = ?", tenantID, itemID).
		Order("used_at desc").Find(&usages).Error
	if err != nil {
		return nil, err
	}

	result := &UsageHistoryResult{Item: item, UsageHistory: make([]UsageRecord, 0, len(usages))}
	for _, usage := range usages {
		record := UsageRecord{
			JobID:        usage.JobID,
			QuantityUsed: usage.QuantityUsed,
			UnitPrice:    usage.UnitPriceAtTime,
			UsedByName:   usage.UsedByName,
			UsedAt:       usage.UsedAt,
		}
		var job model.Job
		if err := s.db.Where("id = ? AND tenant_id = ?", usage.JobID, tenantID).First(&job).Error; err == nil {
			record.JobNumber = job.JobNumber
			record.CustomerName = job.Customer.Name
			record.Device = fmt.Sprintf("%s %s", job.Device.Brand, job.Device.Model)
		}
		result.UsageHistory = append(result.UsageHistory, record)
		result.TotalUsed += usage.QuantityUsed
	}
	return result, nil
}
