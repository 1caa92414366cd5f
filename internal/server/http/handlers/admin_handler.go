package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/server/http/dto"
	"github.com/dominatehq/payportal/internal/server/http/middleware"
)

// AdminHandler manages administrative order endpoints.
type AdminHandler struct {
	facade AdminFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade AdminFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// UpdateStatus handles PATCH /api/order-admin/:id.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	token := middleware.Token(c)
	orderCode := c.Param("id")
	newStatus := c.Query("newStatus")
	if orderCode == "" || newStatus == "" {
		missingParams(c)
		return
	}

	result, err := h.facade.UpdateOrderStatus(c.Request.Context(), token, orderCode, model.PaymentStatus(newStatus))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.AdminUpdateResponse{Order: toOrderResponse(result.Order)}
	if result.License != nil {
		resp.License = toLicenseResponse(result.License)
	}
	if result.LicenseErr != nil {
		resp.LicenseError = result.LicenseErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// Issuances handles GET /api/order-admin/:id/issuances.
func (h *AdminHandler) Issuances(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		missingParams(c)
		return
	}

	records, err := h.facade.IssuanceHistory(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.IssuanceRecordResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, toIssuanceResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}
