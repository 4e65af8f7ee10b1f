package handlers

import (
	"net/http"

	"penaltybox-backend/models"
	"penaltybox-backend/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/groups
func (h *Handler) CreateGroup(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	if !utils.IsPlatformAdmin(c) {
		utils.Forbidden(c, "Only platform admins can create groups")
		return
	}

	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	group, err := h.members.CreateGroup(userID, req.Name, req.Description)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Group created", group)
}

// GET /api/groups
func (h *Handler) GetGroups(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	summaries, err := h.members.ListGroupsForUser(userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", summaries)
}

// GET /api/groups/:id
func (h *Handler) GetGroup(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	group, err := h.members.GetGroup(userID, groupID)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", group)
}

// POST /api/groups/:id/members
func (h *Handler) AddMember(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	targetID, err := utils.ParseUUID(req.UserID)
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	member, err := h.members.AddMember(userID, groupID, targetID, models.Role(req.Role))
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Member added", member)
}

// DELETE /api/groups/:id/members/:uid
func (h *Handler) RemoveMember(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}
	targetID, err := utils.ParseUUID(c.Param("uid"))
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.members.RemoveMember(userID, groupID, targetID); err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Member removed", nil)
}

// GET /api/groups/:id/leaderboard
func (h *Handler) GetLeaderboard(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	entries, err := h.members.Leaderboard(userID, groupID, c.Query("sort_by"))
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", entries)
}
