package handlers

import (
	"errors"
	"net/http"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/store"

	"github.com/gin-gonic/gin"
)

// MarketplaceHandler serves marketplace listings and purchases
type MarketplaceHandler struct {
	store store.Store
}

// NewMarketplaceHandler creates a MarketplaceHandler over s
func NewMarketplaceHandler(s store.Store) *MarketplaceHandler {
	return &MarketplaceHandler{store: s}
}

// ListItems handles GET /api/marketplace/items?is_active=true&limit=100
func (h *MarketplaceHandler) ListItems(c *gin.Context) {
	log := requestLogger(c, "marketplace")

	items, err := h.store.MarketplaceItems(c.Request.Context(), queryBool(c, "is_active", true), queryLimit(c, store.MaxListSize))
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load marketplace items", err), log)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetItem handles GET /api/marketplace/items/:id
func (h *MarketplaceHandler) GetItem(c *gin.Context) {
	log := requestLogger(c, "marketplace")

	item, err := h.store.MarketplaceItem(c.Request.Context(), c.Param("id"))
	if errors.Is(err, models.ErrNotFound) {
		models.HandleError(c, models.NewNotFoundError("Item not found"), log)
		return
	}
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load marketplace item", err), log)
		return
	}
	c.JSON(http.StatusOK, item)
}

// CreateItem handles POST /api/marketplace/items
func (h *MarketplaceHandler) CreateItem(c *gin.Context) {
	log := requestLogger(c, "marketplace")

	var req models.MarketplaceItemCreate
	if !bindJSON(c, &req, log) || !requireField(c, "name", req.Name, log) {
		return
	}

	item := NewMarketplaceItem(req)
	if err := h.store.InsertMarketplaceItem(c.Request.Context(), item); err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to create marketplace item", err), log)
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetPurchases handles GET /api/marketplace/purchases/:wallet
func (h *MarketplaceHandler) GetPurchases(c *gin.Context) {
	log := requestLogger(c, "marketplace")

	purchases, err := h.store.Purchases(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load purchases", err), log)
		return
	}
	c.JSON(http.StatusOK, purchases)
}

// NewMarketplaceItem builds an active listing from req with the marketplace defaults
func NewMarketplaceItem(req models.MarketplaceItemCreate) *models.MarketplaceItem {
	price := models.DefaultDraftPrice
	if req.Price != nil {
		price = *req.Price
	}
	category := req.Category
	if category == "" {
		category = models.DefaultDraftCategory
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	now := models.Now()
	return &models.MarketplaceItem{
		ID:              models.NewID(),
		Name:            req.Name,
		Description:     req.Description,
		FullDescription: req.FullDescription,
		Category:        category,
		Type:            "agent",
		Price:           price,
		Currency:        "USDC (SPL)",
		Blockchain:      "Solana",
		X402Ready:       true,
		APIEndpoint:     req.APIEndpoint,
		Tags:            tags,
		CreatedBy:       req.CreatedBy,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
