package handlers

import (
	"net/http"
	"strings"

	"penaltybox-backend/models"
	"penaltybox-backend/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/users
func (h *Handler) ListUsers(c *gin.Context) {
	if !utils.IsPlatformAdmin(c) {
		utils.Forbidden(c, "Only platform admins can list users")
		return
	}

	var users []models.User
	if err := h.db.Order("created_at DESC").Find(&users).Error; err != nil {
		utils.InternalError(c, "Failed to list users")
		return
	}

	responses := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// PUT /api/users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	actingID := utils.GetCurrentUserID(c)
	targetID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid user ID")
		return
	}

	if actingID != targetID && !utils.IsPlatformAdmin(c) {
		utils.Forbidden(c, "You can only update your own profile")
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", targetID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = strings.ToLower(strings.TrimSpace(req.Email))
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			utils.InternalError(c, "Failed to update user")
			return
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "User updated", user.ToResponse())
}
