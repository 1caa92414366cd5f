package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dominatehq/payportal/internal/adapter/backend"
	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/server/http/dto"
)

// missingParams is the error payload of the original proxy routes.
func missingParams(c *gin.Context) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Missing parameter(s)"})
}

// respondError converts failures to user-facing payloads at the boundary.
// Errors never bubble past the handler.
func respondError(c *gin.Context, err error) {
	var statusErr backend.StatusError
	var rateLimited backend.TooManyRequestsError

	switch {
	case errors.Is(err, domainErrors.ErrMissingParameter):
		missingParams(c)
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Not found"})
	case errors.Is(err, domainErrors.ErrInvalidStatus),
		errors.Is(err, domainErrors.ErrInvalidMethod):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrPaymentSubmitted),
		errors.Is(err, domainErrors.ErrOrderTerminal),
		errors.Is(err, domainErrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrSchemaMismatch):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "Invalid backend response"})
	case errors.As(err, &statusErr):
		status := statusErr.Code
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}
		c.JSON(status, dto.ErrorResponse{Error: statusErr.Message})
	case errors.As(err, &rateLimited):
		c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal error"})
	}
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:            order.ID,
		OrderID:       order.Code,
		PaymentStatus: string(order.PaymentStatus),
		Price:         order.Price,
		CreatedAt:     order.CreatedAt,
	}
	if order.PaymentMethod != nil {
		method := string(*order.PaymentMethod)
		resp.PaymentMethod = &method
	}
	if order.Subscription != nil {
		sub := &dto.SubscriptionResponse{
			Name:         order.Subscription.Name,
			Price:        order.Subscription.Price,
			Discount:     order.Subscription.Discount,
			BillingCycle: order.Subscription.BillingCycle,
			TypePackage:  order.Subscription.TypePackage,
			IsActive:     order.Subscription.IsActive,
		}
		for _, opt := range order.Subscription.Options {
			sub.Options = append(sub.Options, dto.OptionResponse{ID: opt.ID, Name: opt.Name})
		}
		resp.Subscription = sub
	}
	if order.Buyer != nil {
		resp.Buyer = &dto.BuyerResponse{
			UserName:    order.Buyer.UserName,
			FirstName:   order.Buyer.FirstName,
			LastName:    order.Buyer.LastName,
			Email:       order.Buyer.Email,
			PhoneNumber: order.Buyer.PhoneNumber,
		}
	}
	if order.BankTransfer != nil {
		resp.AccountName = order.BankTransfer.AccountName
		resp.AccountNumber = order.BankTransfer.AccountNumber
		resp.Bin = order.BankTransfer.BankBIN
		resp.DateTransfer = order.BankTransfer.DateTransfer
	}
	if order.License != nil {
		resp.License = toLicenseResponse(order.License)
	}
	return resp
}

func toLicenseResponse(license *model.License) *dto.LicenseResponse {
	return &dto.LicenseResponse{
		ID:          license.ID,
		OrderID:     license.OrderID,
		LicenseKey:  license.LicenseKey,
		DaysLeft:    license.DaysLeft,
		CanUsed:     license.CanUsed,
		ActivatedAt: license.ActivatedAt,
	}
}

func toIssuanceResponse(record model.IssuanceRecord) dto.IssuanceRecordResponse {
	return dto.IssuanceRecordResponse{
		OrderID:     record.OrderID,
		Succeeded:   record.Succeeded,
		Message:     record.Message,
		AttemptedAt: record.AttemptedAt,
	}
}

func toLicensePageResponse(page *model.LicensePage) dto.LicensePageResponse {
	resp := dto.LicensePageResponse{
		Number:        page.Page,
		Size:          page.Size,
		TotalElements: page.TotalItems,
		TotalPages:    page.TotalPages,
	}
	for i := range page.Items {
		resp.Content = append(resp.Content, *toLicenseResponse(&page.Items[i]))
	}
	return resp
}
