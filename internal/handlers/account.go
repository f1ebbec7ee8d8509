// internal/handlers/account.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlot/openlot-backend/internal/services"
	"github.com/openlot/openlot-backend/internal/utils"
)

type AccountHandler struct {
	marketService       *services.MarketService
	notificationService *services.NotificationService
}

func NewAccountHandler(marketService *services.MarketService, notificationService *services.NotificationService) *AccountHandler {
	return &AccountHandler{
		marketService:       marketService,
		notificationService: notificationService,
	}
}

// GET /accounts/me
func (h *AccountHandler) GetMyAccount(c *gin.Context) {
	principal, ok := principalID(c)
	if !ok {
		return
	}

	account, err := h.marketService.GetAccount(principal)
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"account": account})
}

// GET /accounts/me/bids
func (h *AccountHandler) GetMyBids(c *gin.Context) {
	principal, ok := principalID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	bids, total, err := h.marketService.BidsByBidder(principal, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(bids, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /accounts/me/notifications
func (h *AccountHandler) GetMyNotifications(c *gin.Context) {
	principal, ok := principalID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	notifications, total, err := h.notificationService.ListForRecipient(principal, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(notifications, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /accounts/me/notifications/:id
func (h *AccountHandler) MarkNotificationRead(c *gin.Context) {
	principal, ok := principalID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid notification ID", nil)
		return
	}

	if err := h.notificationService.MarkRead(principal, id); err != nil {
		utils.NotFoundResponse(c, "notification")
		return
	}

	utils.SuccessResponse(c, gin.H{"status": "read"})
}
