package handlers

import (
	"net/http"

	"penaltybox-backend/models"
	"penaltybox-backend/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/groups/:id/rules
func (h *Handler) CreateRule(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	var req models.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	rule, err := h.rules.CreateRule(userID, groupID, req.Title, req.Amount)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Rule created", rule)
}

// GET /api/groups/:id/rules
func (h *Handler) GetRules(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	rules, err := h.rules.ListRules(userID, groupID)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", rules)
}

// PUT /api/groups/:id/rules/:rule_id
func (h *Handler) UpdateRule(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	ruleID, err := utils.ParseUUID(c.Param("rule_id"))
	if err != nil {
		utils.BadRequest(c, "Invalid rule ID")
		return
	}

	var req models.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	rule, err := h.rules.UpdateRule(userID, ruleID, req.Title, req.Amount)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Rule updated", rule)
}

// DELETE /api/groups/:id/rules/:rule_id
func (h *Handler) DeleteRule(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	ruleID, err := utils.ParseUUID(c.Param("rule_id"))
	if err != nil {
		utils.BadRequest(c, "Invalid rule ID")
		return
	}

	if err := h.rules.DeleteRule(userID, ruleID); err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Rule deleted", nil)
}
