// internal/handlers/complaint.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlot/openlot-backend/internal/services"
	"github.com/openlot/openlot-backend/internal/utils"
)

type ComplaintHandler struct {
	marketService *services.MarketService
}

func NewComplaintHandler(marketService *services.MarketService) *ComplaintHandler {
	return &ComplaintHandler{marketService: marketService}
}

// GET /complaints/:id
func (h *ComplaintHandler) GetComplaint(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid complaint ID", nil)
		return
	}

	complaint, err := h.marketService.GetComplaint(id)
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"complaint": complaint})
}

// GET /complaints
func (h *ComplaintHandler) GetOpenComplaints(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	complaints, total, err := h.marketService.ListOpenComplaints(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(complaints, total, params)
	utils.PaginatedResponse(c, result)
}
