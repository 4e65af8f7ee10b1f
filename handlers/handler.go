package handlers

import (
	"errors"

	"penaltybox-backend/config"
	"penaltybox-backend/services"
	"penaltybox-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler carries the injected collaborators; one instance serves all
// routes.
type Handler struct {
	cfg       *config.Config
	db        *gorm.DB
	members   *services.MembershipService
	rules     *services.RuleService
	penalties *services.PenaltyService
	proofs    *services.ProofService
	payments  *services.PaymentService
	tokens    *services.TokenStore
}

func New(
	cfg *config.Config,
	db *gorm.DB,
	members *services.MembershipService,
	rules *services.RuleService,
	penalties *services.PenaltyService,
	proofs *services.ProofService,
	payments *services.PaymentService,
	tokens *services.TokenStore,
) *Handler {
	return &Handler{
		cfg:       cfg,
		db:        db,
		members:   members,
		rules:     rules,
		penalties: penalties,
		proofs:    proofs,
		payments:  payments,
		tokens:    tokens,
	}
}

// respondErr maps domain errors to HTTP statuses.
func respondErr(c *gin.Context, err error) {
	var domainErr *services.Error
	if !errors.As(err, &domainErr) {
		utils.InternalError(c, "Something went wrong")
		return
	}

	switch domainErr.Kind {
	case services.KindNotFound:
		utils.NotFound(c, domainErr.Message)
	case services.KindForbidden:
		utils.Forbidden(c, domainErr.Message)
	case services.KindValidation:
		utils.BadRequest(c, domainErr.Message)
	case services.KindConflict:
		utils.Conflict(c, domainErr.Message)
	default:
		utils.InternalError(c, domainErr.Message)
	}
}
