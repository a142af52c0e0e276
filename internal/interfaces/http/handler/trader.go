package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	traderapp "github.com/storefront/backend/internal/application/trader"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// TraderHandler handles trader application and moderation endpoints
type TraderHandler struct {
	BaseHandler
	traderService *traderapp.Service
}

// NewTraderHandler creates a new TraderHandler
func NewTraderHandler(traderService *traderapp.Service) *TraderHandler {
	return &TraderHandler{traderService: traderService}
}

// TraderListQuery holds trader listing query parameters
type TraderListQuery struct {
	dto.ListRequest
	Status string `form:"status"`
}

// Apply submits a trader application for the caller's account
func (h *TraderHandler) Apply(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req traderapp.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trader, err := h.traderService.Apply(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, trader)
}

// GetMine returns the caller's trader profile
func (h *TraderHandler) GetMine(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	trader, err := h.traderService.GetMine(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trader)
}

// UpdateMine updates the caller's trader profile
func (h *TraderHandler) UpdateMine(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req traderapp.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trader, err := h.traderService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trader)
}

// List returns trader applications for moderation
func (h *TraderHandler) List(c *gin.Context) {
	var query TraderListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := traderapp.TraderListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
		Search:   query.Search,
		Status:   query.Status,
	}

	traders, total, err := h.traderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, traders, total, pageOf(filter.Page), pageSizeOf(filter.PageSize))
}

// Get returns one trader profile
func (h *TraderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid trader ID")
		return
	}

	trader, err := h.traderService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trader)
}

// Approve approves a trader application and promotes the account
func (h *TraderHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid trader ID")
		return
	}

	trader, err := h.traderService.Approve(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trader)
}

// Reject rejects a pending trader application
func (h *TraderHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid trader ID")
		return
	}

	var req traderapp.ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trader, err := h.traderService.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trader)
}

// Suspend suspends an approved trader
func (h *TraderHandler) Suspend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid trader ID")
		return
	}

	var req traderapp.ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trader, err := h.traderService.Suspend(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trader)
}
