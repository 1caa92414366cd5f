package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/server/http/dto"
	"github.com/dominatehq/payportal/internal/server/http/middleware"
)

// OrderHandler manages order-facing endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Get handles GET /api/order/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	token := middleware.Token(c)
	orderCode := c.Param("id")
	if orderCode == "" {
		missingParams(c)
		return
	}

	order, err := h.facade.RefreshOrder(c.Request.Context(), token, orderCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// SubmitPayment handles POST /api/order/:id/payment.
func (h *OrderHandler) SubmitPayment(c *gin.Context) {
	token := middleware.Token(c)
	orderCode := c.Param("id")

	var req dto.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PaymentMethod == "" {
		missingParams(c)
		return
	}

	method := model.PaymentMethod(req.PaymentMethod)
	var bank *model.BankTransfer
	if method == model.PaymentMethodBank {
		bank = &model.BankTransfer{
			AccountName:   req.AccountName,
			AccountNumber: req.AccountNumber,
			BankBIN:       req.Bin,
			DateTransfer:  req.DateTransfer,
		}
	}

	order, err := h.facade.SubmitPayment(c.Request.Context(), token, orderCode, method, bank)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}
