// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlot/openlot-backend/internal/i18n"
	"github.com/openlot/openlot-backend/internal/middleware"
	"github.com/openlot/openlot-backend/internal/services"
	"github.com/openlot/openlot-backend/internal/utils"
)

// AdminHandler exposes the arbiter operations. Authorization is the arbiter
// capability secret, not a JWT role claim.
type AdminHandler struct {
	marketService *services.MarketService
}

func NewAdminHandler(marketService *services.MarketService) *AdminHandler {
	return &AdminHandler{marketService: marketService}
}

type resolveDisputeRequest struct {
	ForConsumer *bool `json:"for_consumer" validate:"required"`
}

type creditAccountRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// POST /admin/complaints/:id/resolution
func (h *AdminHandler) ResolveDispute(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	complaintID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid complaint ID", nil)
		return
	}

	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	complaint, err := h.marketService.ResolveDispute(complaintID, middleware.Capability(c), *req.ForConsumer)
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyComplaintResolved),
		"complaint": complaint,
	})
}

// POST /admin/accounts/:id/credits
func (h *AdminHandler) CreditAccount(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	principal, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid account ID", nil)
		return
	}

	var req creditAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	account, err := h.marketService.CreditAccount(principal, req.Amount, middleware.Capability(c))
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAccountCredited),
		"account": account,
	})
}
