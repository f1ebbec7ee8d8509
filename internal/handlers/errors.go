// internal/handlers/errors.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlot/openlot-backend/internal/market"
	"github.com/openlot/openlot-backend/internal/utils"
)

// statusFor maps lifecycle error codes to HTTP statuses. Unknown codes fall
// through to 500 so persistence failures never masquerade as client errors.
var statusFor = map[string]int{
	"INVALID_CAPABILITY":   http.StatusForbidden,
	"WRONG_ADDRESS":        http.StatusForbidden,
	"UNAUTHORIZED_PARTY":   http.StatusForbidden,
	"OUT_OF_STOCK":         http.StatusConflict,
	"DUPLICATE_BID":        http.StatusConflict,
	"DISPUTE_PENDING":      http.StatusConflict,
	"COMPLAINT_RESOLVED":   http.StatusConflict,
	"ESCROW_EMPTY":         http.StatusConflict,
	"NO_SUCH_BID":          http.StatusNotFound,
	"PRODUCT_NOT_FOUND":    http.StatusNotFound,
	"COMPLAINT_NOT_FOUND":  http.StatusNotFound,
	"ACCOUNT_NOT_FOUND":    http.StatusNotFound,
	"ORDER_NOT_SUBMITTED":  http.StatusBadRequest,
	"DISPUTE_FALSE":        http.StatusBadRequest,
	"NO_CONSUMER_SELECTED": http.StatusBadRequest,
	"PRODUCT_MISMATCH":     http.StatusBadRequest,
	"DEADLINE_EXPIRED":     http.StatusBadRequest,
	"DEADLINE_NOT_REACHED": http.StatusBadRequest,
	"REQUIREMENTS_NOT_MET": http.StatusBadRequest,
	"INVALID_QUALITY":      http.StatusBadRequest,
	"INVALID_PRICE":        http.StatusBadRequest,
	"INVALID_DURATION":     http.StatusBadRequest,
	"INSUFFICIENT_FUNDS":   http.StatusPaymentRequired,
	"INSUFFICIENT_BALANCE": http.StatusPaymentRequired,
}

// handleMarketError translates a service error into the API envelope,
// surfacing the stable lifecycle code verbatim.
func handleMarketError(c *gin.Context, err error) {
	code := market.CodeOf(err)
	if code == "" {
		utils.InternalErrorResponse(c, err.Error())
		return
	}
	status, ok := statusFor[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	utils.ErrorResponse(c, status, code, err.Error(), nil)
}
