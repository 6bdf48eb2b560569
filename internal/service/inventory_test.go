package service

import (
	"errors"
	"testing"
)

func newInventoryFixture(t *testing.T) (*InventoryService, Actor) {
	t.Helper()
	db := newTestDB(t)
	registry := NewPlanRegistry(db)
	_, actor := newTestTenant(t, db, "pro")
	return NewInventoryService(db, registry), actor
}

func TestCreateItem(t *testing.T) {
	inventory, actor := newInventoryFixture(t)

	item, err := inventory.CreateItem(actor, CreateItemInput{
		Name: "Screen Protector", Quantity: 20, MinStockLevel: 5, CostPrice: 50, SellingPrice: 120,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.SKU != "PART-0001" {
		t.Errorf("auto SKU = %q, want PART-0001", item.SKU)
	}
	if len(item.StockHistory) != 1 || item.StockHistory[0].Reason != "Initial stock" {
		t.Error("initial stock movement missing from history")
	}

	second, err := inventory.CreateItem(actor, CreateItemInput{Name: "Battery", SKU: "BAT-01"})
	if err != nil {
		t.Fatalf("create with explicit sku: %v", err)
	}
	if second.SKU != "BAT-01" {
		t.Errorf("sku = %q", second.SKU)
	}
	if len(second.StockHistory) != 0 {
		t.Error("zero-quantity item should start with empty history")
	}

	if _, err := inventory.CreateItem(actor, CreateItemInput{Name: "Other", SKU: "BAT-01"}); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate sku err = %v, want ErrValidation", err)
	}
	if _, err := inventory.CreateItem(actor, CreateItemInput{Name: "", Quantity: 1}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty name err = %v, want ErrValidation", err)
	}
	if _, err := inventory.CreateItem(actor, CreateItemInput{Name: "Neg", Quantity: -1}); !errors.Is(err, ErrValidation) {
		t.Errorf("negative quantity err = %v, want ErrValidation", err)
	}
}

func TestInventoryFeatureGate(t *testing.T) {
	db := newTestDB(t)
	registry := NewPlanRegistry(db)
	inventory := NewInventoryService(db, registry)
	_, actor := newTestTenant(t, db, "free")

	_, err := inventory.CreateItem(actor, CreateItemInput{Name: "Battery", Quantity: 5})
	var featErr *FeatureNotAvailableError
	if !errors.As(err, &featErr) {
		t.Fatalf("free-plan inventory err = %v, want FeatureNotAvailableError", err)
	}
	if featErr.PlanName != "Free" {
		t.Errorf("error carries plan %q, want Free", featErr.PlanName)
	}
}

func TestAdjustStock(t *testing.T) {
	inventory, actor := newInventoryFixture(t)

	item, err := inventory.CreateItem(actor, CreateItemInput{Name: "Display", Quantity: 5, MinStockLevel: 3})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	item, err = inventory.Adjust(actor, item.ID, 10, "Restocked", nil)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if item.Quantity != 15 {
		t.Errorf("quantity = %d, want 15", item.Quantity)
	}

	item, err = inventory.Adjust(actor, item.ID, -15, "Stock audit", nil)
	if err != nil {
		t.Fatalf("adjust to zero: %v", err)
	}
	if item.Quantity != 0 {
		t.Errorf("quantity = %d, want 0", item.Quantity)
	}
	if !item.IsLowStock() {
		t.Error("zero quantity under min level should be low stock")
	}

	if _, err := inventory.Adjust(actor, item.ID, -1, "oops", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("negative-result adjust err = %v, want ErrValidation", err)
	}
	item, _ = inventory.GetItem(actor.TenantID, item.ID)
	if item.Quantity != 0 {
		t.Errorf("failed adjust changed quantity to %d", item.Quantity)
	}

	// History carries every applied movement with running quantities
	if len(item.StockHistory) != 3 {
		t.Fatalf("history length = %d, want 3", len(item.StockHistory))
	}
	last := item.StockHistory[len(item.StockHistory)-1]
	if last.Delta != -15 || last.Quantity != 0 || last.Reason != "Stock audit" {
		t.Errorf("last movement = %+v", last)
	}
}

func TestListItems(t *testing.T) {
	inventory, actor := newInventoryFixture(t)

	if _, err := inventory.CreateItem(actor, CreateItemInput{Name: "Battery Pack", Quantity: 2, MinStockLevel: 5}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := inventory.CreateItem(actor, CreateItemInput{Name: "Display", Quantity: 50, MinStockLevel: 5}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := inventory.ListItems(actor.TenantID, false, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all items = %d, want 2", len(all))
	}

	low, err := inventory.ListItems(actor.TenantID, true, "")
	if err != nil {
		t.Fatalf("list low: %v", err)
	}
	if len(low) != 1 || low[0].Name != "Battery Pack" {
		t.Errorf("low stock items = %+v", low)
	}

	found, err := inventory.ListItems(actor.TenantID, false, "Batt")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("search hits = %d, want 1", len(found))
	}
}

func TestUpdateItemMasterData(t *testing.T) {
	inventory, actor := newInventoryFixture(t)

	item, err := inventory.CreateItem(actor, CreateItemInput{Name: "Display", Quantity: 5, CostPrice: 400})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "OLED Display"
	cost := 450.0
	item, err = inventory.UpdateItem(actor, item.ID, UpdateItemInput{Name: &name, CostPrice: &cost})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if item.Name != "OLED Display" || item.CostPrice != 450 {
		t.Errorf("updated item = %+v", item)
	}
	if item.Quantity != 5 {
		t.Error("master-data update must not touch quantity")
	}
}

func TestInventoryCrossTenant(t *testing.T) {
	db := newTestDB(t)
	registry := NewPlanRegistry(db)
	inventory := NewInventoryService(db, registry)
	_, actorA := newTestTenant(t, db, "pro")
	_, actorB := newTestTenant(t, db, "enterprise")

	item, err := inventory.CreateItem(actorA, CreateItemInput{Name: "Display", Quantity: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := inventory.GetItem(actorB.TenantID, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-tenant get err = %v, want ErrNotFound", err)
	}
	if _, err := inventory.Adjust(actorB, item.ID, -1, "steal", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-tenant adjust err = %v, want ErrNotFound", err)
	}
}
