package handlers

import (
	"net/http"

	"penaltybox-backend/models"
	"penaltybox-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/penalties?group_id=
func (h *Handler) CreatePenalty(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := utils.ParseUUID(c.Query("group_id"))
	if err != nil {
		utils.BadRequest(c, "Invalid or missing group_id")
		return
	}

	var req models.CreatePenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	targetID, err := utils.ParseUUID(req.UserID)
	if err != nil {
		utils.BadRequest(c, "Invalid user_id")
		return
	}
	ruleID, err := utils.ParseUUID(req.RuleID)
	if err != nil {
		utils.BadRequest(c, "Invalid rule_id")
		return
	}

	penalty, err := h.penalties.CreatePenalty(userID, groupID, targetID, ruleID, req.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Penalty created", penalty)
}

// GET /api/penalties?group_id=&user_id=
func (h *Handler) GetPenalties(c *gin.Context) {
	var groupID, userID *uuid.UUID

	if v := c.Query("group_id"); v != "" {
		id, err := utils.ParseUUID(v)
		if err != nil {
			utils.BadRequest(c, "Invalid group_id")
			return
		}
		groupID = &id
	}
	if v := c.Query("user_id"); v != "" {
		id, err := utils.ParseUUID(v)
		if err != nil {
			utils.BadRequest(c, "Invalid user_id")
			return
		}
		userID = &id
	}

	penalties, err := h.penalties.ListPenalties(groupID, userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", penalties)
}

// GET /api/penalties/user/:id
func (h *Handler) GetUserPenalties(c *gin.Context) {
	targetID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	penalties, err := h.penalties.ListPenalties(nil, &targetID)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", penalties)
}

// PUT /api/penalties/:id/status
func (h *Handler) UpdatePenaltyStatus(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	penaltyID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid penalty ID")
		return
	}

	var req models.UpdatePenaltyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	penalty, err := h.penalties.UpdateStatus(userID, penaltyID, models.PenaltyStatus(req.Status))
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Penalty status updated", penalty)
}
