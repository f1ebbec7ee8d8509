// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlot/openlot-backend/internal/i18n"
	"github.com/openlot/openlot-backend/internal/middleware"
	"github.com/openlot/openlot-backend/internal/services"
	"github.com/openlot/openlot-backend/internal/utils"
)

type ProductHandler struct {
	marketService *services.MarketService
}

func NewProductHandler(marketService *services.MarketService) *ProductHandler {
	return &ProductHandler{marketService: marketService}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.ProductSearchParams{
		PaginationParams: params,
	}

	if supplierStr := c.Query("supplier_id"); supplierStr != "" {
		if supplierID, err := uuid.Parse(supplierStr); err == nil {
			searchParams.SupplierID = &supplierID
		}
	}

	if openStr := c.Query("open"); openStr != "" {
		if open, err := strconv.ParseBool(openStr); err == nil {
			searchParams.Open = &open
		}
	}

	if minStr := c.Query("price_min"); minStr != "" {
		if min, err := strconv.ParseInt(minStr, 10, 64); err == nil {
			searchParams.PriceMin = &min
		}
	}

	if maxStr := c.Query("price_max"); maxStr != "" {
		if max, err := strconv.ParseInt(maxStr, 10, 64); err == nil {
			searchParams.PriceMax = &max
		}
	}

	products, total, err := h.marketService.SearchProducts(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /products
//
// The response carries the capability secret exactly once; it is never
// retrievable again.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	supplierID, ok := principalID(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, secret, err := h.marketService.CreateProduct(supplierID, &req)
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":           i18n.T(lang, i18n.KeyProductCreated),
		"product":           product,
		"capability_secret": secret,
	})
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.marketService.GetProduct(id)
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"product": product})
}

// POST /products/:id/bids
func (h *ProductHandler) PlaceBid(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	bidderID, ok := principalID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req services.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	bid, err := h.marketService.PlaceBid(productID, bidderID, &req)
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBidPlaced),
		"bid":     bid,
	})
}

// GET /products/:id/bids
func (h *ProductHandler) GetBids(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	bids, err := h.marketService.ListBids(productID, middleware.Capability(c))
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"bids": bids})
}

// POST /products/:id/selection
func (h *ProductHandler) ChooseConsumer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req services.ChooseConsumerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	winner, err := h.marketService.ChooseConsumer(productID, middleware.Capability(c), &req)
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyBidSelected),
		"bid":     winner,
	})
}

// POST /products/:id/order
func (h *ProductHandler) SubmitOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	callerID, ok := principalID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.marketService.SubmitOrder(productID, callerID)
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderSubmitted),
		"product": product,
	})
}

// POST /products/:id/confirmation
func (h *ProductHandler) ConfirmOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.marketService.ConfirmOrder(productID, middleware.Capability(c))
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderConfirmed),
		"product": product,
	})
}

// POST /products/:id/complaints
func (h *ProductHandler) FileComplaint(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	callerID, ok := principalID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req services.FileComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	complaint, err := h.marketService.FileComplaint(productID, callerID, &req)
	if err != nil {
		handleMarketError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyComplaintFiled),
		"complaint": complaint,
	})
}

// principalID pulls the authenticated principal out of the request context.
// Writes the 401 response itself when missing.
func principalID(c *gin.Context) (uuid.UUID, bool) {
	idStr, exists := utils.GetPrincipalFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid principal ID", nil)
		return uuid.Nil, false
	}
	return id, true
}
