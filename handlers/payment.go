package handlers

import (
	"net/http"

	"penaltybox-backend/models"
	"penaltybox-backend/services"
	"penaltybox-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/payments
func (h *Handler) RecordPayment(c *gin.Context) {
	actingID := utils.GetCurrentUserID(c)

	var req models.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	payerID, err := utils.ParseUUID(req.UserID)
	if err != nil {
		utils.BadRequest(c, "Invalid user_id")
		return
	}

	allocations := make([]services.Allocation, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		penaltyID, err := utils.ParseUUID(a.PenaltyID)
		if err != nil {
			utils.BadRequest(c, "Invalid penalty_id in allocations")
			return
		}
		allocations = append(allocations, services.Allocation{
			PenaltyID: penaltyID,
			Amount:    a.Amount,
		})
	}

	payment, err := h.payments.RecordPayment(actingID, payerID, req.Amount,
		req.PaymentMethod, req.ReferenceID, req.Notes, allocations)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Payment recorded", payment)
}

// POST /api/payments/cash/:penalty_id
func (h *Handler) RecordCashPayment(c *gin.Context) {
	actingID := utils.GetCurrentUserID(c)
	penaltyID, err := utils.ParseUUID(c.Param("penalty_id"))
	if err != nil {
		utils.BadRequest(c, "Invalid penalty ID")
		return
	}

	var req models.CashPaymentRequest
	c.ShouldBindJSON(&req) // note is optional

	payment, err := h.payments.RecordCashPayment(actingID, penaltyID, req.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	if payment == nil {
		utils.SuccessResponse(c, http.StatusOK, "Penalty already paid", nil)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Cash payment recorded", payment)
}

// GET /api/payments?user_id=
func (h *Handler) GetPayments(c *gin.Context) {
	actingID := utils.GetCurrentUserID(c)

	var userID *uuid.UUID
	if v := c.Query("user_id"); v != "" {
		id, err := utils.ParseUUID(v)
		if err != nil {
			utils.BadRequest(c, "Invalid user_id")
			return
		}
		userID = &id
	}

	payments, err := h.payments.ListPayments(actingID, userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", payments)
}
