package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dominatehq/payportal/internal/server/http/dto"
	"github.com/dominatehq/payportal/internal/server/http/middleware"
)

// LicenseHandler manages license proxy endpoints.
type LicenseHandler struct {
	facade LicenseFacade
}

// NewLicenseHandler constructs LicenseHandler.
func NewLicenseHandler(facade LicenseFacade) *LicenseHandler {
	return &LicenseHandler{facade: facade}
}

// Create handles POST /api/licenses.
func (h *LicenseHandler) Create(c *gin.Context) {
	token := middleware.Token(c)

	var req dto.CreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == 0 {
		missingParams(c)
		return
	}

	license, err := h.facade.IssueLicense(c.Request.Context(), token, req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLicenseResponse(license))
}

// ListForUser handles GET /api/licenses/user/:id.
func (h *LicenseHandler) ListForUser(c *gin.Context) {
	token := middleware.Token(c)
	userID := c.Param("id")
	pageStr := c.Query("page")
	sizeStr := c.Query("size")
	if userID == "" || pageStr == "" || sizeStr == "" {
		missingParams(c)
		return
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		missingParams(c)
		return
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		missingParams(c)
		return
	}

	result, err := h.facade.UserLicenses(c.Request.Context(), token, userID, page, size, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLicensePageResponse(result))
}

// AssignToUser handles POST /api/licenses/user/:id.
func (h *LicenseHandler) AssignToUser(c *gin.Context) {
	token := middleware.Token(c)
	userID := c.Param("id")

	var req dto.CreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == 0 || userID == "" {
		missingParams(c)
		return
	}

	license, err := h.facade.AssignLicense(c.Request.Context(), token, userID, req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLicenseResponse(license))
}

// ActivateNext handles POST /api/licenses/activate-next/:id.
func (h *LicenseHandler) ActivateNext(c *gin.Context) {
	token := middleware.Token(c)
	userID := c.Param("id")
	licenseType := c.Query("type")
	if userID == "" || licenseType == "" {
		missingParams(c)
		return
	}

	license, err := h.facade.ActivateNextLicense(c.Request.Context(), token, userID, licenseType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLicenseResponse(license))
}
