package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/application/admin"
)

// AdminHandler handles the admin overview endpoints
type AdminHandler struct {
	BaseHandler
	dashboard *admin.DashboardService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(dashboard *admin.DashboardService) *AdminHandler {
	return &AdminHandler{dashboard: dashboard}
}

// Dashboard returns storefront totals and moderation backlogs
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.dashboard.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
