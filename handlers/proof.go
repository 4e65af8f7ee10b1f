package handlers

import (
	"net/http"

	"penaltybox-backend/models"
	"penaltybox-backend/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/proofs/upload/:penalty_id
func (h *Handler) UploadProof(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	penaltyID, err := utils.ParseUUID(c.Param("penalty_id"))
	if err != nil {
		utils.BadRequest(c, "Invalid penalty ID")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "Missing file upload")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.InternalError(c, "Could not read uploaded file")
		return
	}
	defer file.Close()

	proof, err := h.proofs.SubmitProof(userID, penaltyID, fileHeader.Filename, file)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Proof uploaded", proof)
}

// GET /api/proofs/penalty/:id
func (h *Handler) GetProofsForPenalty(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	penaltyID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid penalty ID")
		return
	}

	proofs, err := h.proofs.ListForPenalty(userID, penaltyID)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", proofs)
}

// GET /api/proofs?status=
func (h *Handler) GetProofs(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	proofs, err := h.proofs.ListAll(userID, models.ProofStatus(c.Query("status")))
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", proofs)
}

// POST /api/proofs/:id/approve
func (h *Handler) ApproveProof(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	proofID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid proof ID")
		return
	}

	var req models.ReviewProofRequest
	c.ShouldBindJSON(&req) // note is optional

	proof, err := h.proofs.ApproveProof(userID, proofID, req.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Proof approved", proof)
}

// POST /api/proofs/:id/decline
func (h *Handler) DeclineProof(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	proofID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid proof ID")
		return
	}

	var req models.ReviewProofRequest
	c.ShouldBindJSON(&req) // note is optional

	proof, err := h.proofs.DeclineProof(userID, proofID, req.Note)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Proof declined", proof)
}

// DELETE /api/proofs/:id
func (h *Handler) DeleteProof(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	proofID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid proof ID")
		return
	}

	if err := h.proofs.DeleteProof(userID, proofID); err != nil {
		respondErr(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Proof deleted", nil)
}
