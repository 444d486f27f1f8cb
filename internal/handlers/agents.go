package handlers

import (
	"net/http"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AgentHandler serves agent builder drafts, reviews and listing fees
type AgentHandler struct {
	store store.Store
}

// NewAgentHandler creates an AgentHandler over s
func NewAgentHandler(s store.Store) *AgentHandler {
	return &AgentHandler{store: s}
}

// GetDrafts handles GET /api/agents/drafts/:wallet
func (h *AgentHandler) GetDrafts(c *gin.Context) {
	log := requestLogger(c, "agents")

	drafts, err := h.store.AgentDrafts(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load drafts", err), log)
		return
	}
	c.JSON(http.StatusOK, drafts)
}

// CreateDraft handles POST /api/agents/drafts
func (h *AgentHandler) CreateDraft(c *gin.Context) {
	log := requestLogger(c, "agents")

	var req models.AgentDraftCreate
	if !bindJSON(c, &req, log) || !requireField(c, "creator_wallet", req.CreatorWallet, log) {
		return
	}

	draft := NewAgentDraft(req)
	if err := h.store.InsertAgentDraft(c.Request.Context(), draft); err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to create draft", err), log)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// GetReviews handles GET /api/agents/reviews/:item
func (h *AgentHandler) GetReviews(c *gin.Context) {
	log := requestLogger(c, "agents")

	reviews, err := h.store.Reviews(c.Request.Context(), c.Param("item"))
	if err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to load reviews", err), log)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// RecordListingFee handles POST /api/agents/listing-fees
func (h *AgentHandler) RecordListingFee(c *gin.Context) {
	log := requestLogger(c, "agents")

	var req models.ListingFee
	if !bindJSON(c, &req, log) ||
		!requireField(c, "creator_wallet", req.CreatorWallet, log) ||
		!requireField(c, "transaction_signature", req.TransactionSignature, log) {
		return
	}
	if req.Status == "" {
		req.Status = models.TransactionStatusPending
	}
	if !req.Status.Valid() {
		models.HandleError(c, models.NewValidationError("Invalid status", string(req.Status)), log)
		return
	}

	req.ID = models.NewID()
	req.CreatedAt = models.Now()
	if err := h.store.InsertListingFee(c.Request.Context(), &req); err != nil {
		models.HandleError(c, models.NewDatabaseError("Failed to record listing fee", err), log)
		return
	}

	log.Info("Listing fee recorded",
		zap.String("creator_wallet", req.CreatorWallet),
		zap.Float64("fee_amount", req.FeeAmount),
		zap.String("signature", req.TransactionSignature),
	)
	c.JSON(http.StatusOK, req)
}

// NewAgentDraft builds a draft from req with the builder defaults
func NewAgentDraft(req models.AgentDraftCreate) *models.AgentDraft {
	price := models.DefaultDraftPrice
	if req.Price != nil {
		price = *req.Price
	}
	category := req.Category
	if category == "" {
		category = models.DefaultDraftCategory
	}

	now := models.Now()
	return &models.AgentDraft{
		ID:            models.NewID(),
		CreatorWallet: req.CreatorWallet,
		Name:          req.Name,
		Description:   req.Description,
		Category:      category,
		Price:         price,
		Tags:          []string{},
		Capabilities:  []string{},
		PreviewImages: []string{},
		LastSavedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
