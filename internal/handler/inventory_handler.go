package handler

import (
	"net/http"

	"repairshop-service/internal/middleware"
	"repairshop-service/internal/service"
	"repairshop-service/pkg/logger"
	"repairshop-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// InventoryHandler exposes the inventory ledger over HTTP.
type InventoryHandler struct {
	inventory *service.InventoryService
}

func NewInventoryHandler(inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// ListItems handles retrieving the tenant's inventory
func (h *InventoryHandler) ListItems(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)

	lowStockOnly := c.QueryParam("low_stock") == "true"
	items, err := h.inventory.ListItems(actor.TenantID, lowStockOnly, c.QueryParam("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// GetItem handles retrieving a single inventory item
func (h *InventoryHandler) GetItem(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	itemID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	item, err := h.inventory.GetItem(actor.TenantID, itemID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// CreateItem handles adding a part to inventory
func (h *InventoryHandler) CreateItem(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)

	var req service.CreateItemInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	item, err := h.inventory.CreateItem(actor, req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Inventory item created",
		zap.String("name", item.Name),
		zap.String("sku", item.SKU),
		zap.Int("quantity", item.Quantity))
	return c.JSON(http.StatusCreated, item)
}

// UpdateItem handles updating item master data
func (h *InventoryHandler) UpdateItem(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	itemID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	var req service.UpdateItemInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	item, err := h.inventory.UpdateItem(actor, itemID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// DeleteItem handles removing an item from inventory
func (h *InventoryHandler) DeleteItem(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	itemID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	if err := h.inventory.DeleteItem(actor, itemID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Item deleted"})
}

// AdjustStock handles a manual stock adjustment
func (h *InventoryHandler) AdjustStock(c echo.Context) error {
	log := logger.FromContext(c)
	actor, _ := middleware.ActorFromContext(c)
	itemID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	var req struct {
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
		JobID  *uint  `json:"job_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	item, err := h.inventory.Adjust(actor, itemID, req.Delta, req.Reason, req.JobID)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordStockAdjustment(req.Delta)
	log.Info("Stock adjusted",
		zap.String("sku", item.SKU),
		zap.Int("delta", req.Delta),
		zap.Int("quantity", item.Quantity))
	return c.JSON(http.StatusOK, item)
}

// UsageHistory handles the item consumption report
func (h *InventoryHandler) UsageHistory(c echo.Context) error {
	actor, _ := middleware.ActorFromContext(c)
	itemID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	result, err := h.inventory.UsageHistory(actor.TenantID, itemID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
