package services

import (
	"sort"

	"penaltybox-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentService creates immutable payment records and splits them across
// penalties through the penalty_payments allocation table.
type PaymentService struct {
	db *gorm.DB

	// allowAdminCross lets platform admins allocate against penalties
	// that do not belong to the paying user.
	allowAdminCross bool
}

func NewPaymentService(db *gorm.DB, allowAdminCross bool) *PaymentService {
	return &PaymentService{db: db, allowAdminCross: allowAdminCross}
}

type Allocation struct {
	PenaltyID uuid.UUID
	Amount    float64
}

// RecordPayment writes the payment row and one allocation row per entry in
// a single transaction, then flips every penalty whose cumulative
// allocations now cover its amount. Allocations are recorded in full even
// past a penalty's amount; only the status flip caps at coverage.
func (s *PaymentService) RecordPayment(actingUserID, payerID uuid.UUID, amount float64, method, referenceID, notes string, allocations []Allocation) (*models.Payment, error) {
	if amount <= 0 {
		return nil, Validation("payment amount must be greater than zero")
	}
	if len(allocations) == 0 {
		return nil, Validation("at least one allocation is required")
	}

	seen := make(map[uuid.UUID]bool, len(allocations))
	var total float64
	for _, a := range allocations {
		if a.Amount <= 0 {
			return nil, Validation("allocation amount must be greater than zero")
		}
		if seen[a.PenaltyID] {
			return nil, Validation("duplicate penalty in allocations")
		}
		seen[a.PenaltyID] = true
		total += a.Amount
	}
	if total > amount {
		return nil, Validation("allocations exceed payment amount")
	}

	actingIsAdmin := isPlatformAdmin(s.db, actingUserID)
	if actingUserID != payerID && !actingIsAdmin {
		return nil, Forbidden("only platform admins can record payments for other users")
	}

	var payer models.User
	if err := s.db.First(&payer, "id = ?", payerID).Error; err != nil {
		return nil, NotFound("payer not found")
	}

	if method == "" {
		method = "ONLINE"
	}

	payment := models.Payment{
		UserID:        payerID,
		Amount:        amount,
		PaymentMethod: method,
		ReferenceID:   referenceID,
		Notes:         notes,
	}
	if actingIsAdmin {
		adminID := actingUserID
		payment.ApprovedByAdminID = &adminID
	}

	// Lock order is fixed so two payments allocating against overlapping
	// penalties cannot deadlock.
	ordered := make([]Allocation, len(allocations))
	copy(ordered, allocations)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].PenaltyID.String() < ordered[j].PenaltyID.String()
	})

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, a := range ordered {
			// Write-lock the penalty row for the rest of the transaction;
			// the coverage sum in settleIfCovered must not race a
			// concurrent allocator against the same penalty.
			res := tx.Exec(`UPDATE penalties SET updated_at = updated_at WHERE id = ?`, a.PenaltyID)
			if res.Error != nil {
				return StorageError("failed to lock penalty", res.Error)
			}
			if res.RowsAffected == 0 {
				return NotFound("penalty not found")
			}

			var penalty models.Penalty
			if err := tx.First(&penalty, "id = ?", a.PenaltyID).Error; err != nil {
				return NotFound("penalty not found")
			}
			if penalty.UserID != payerID && !(actingIsAdmin && s.allowAdminCross) {
				return Forbidden("penalty does not belong to the paying user")
			}
		}

		if err := tx.Create(&payment).Error; err != nil {
			return StorageError("failed to create payment", err)
		}

		for _, a := range ordered {
			row := models.PenaltyPayment{
				PenaltyID: a.PenaltyID,
				PaymentID: payment.ID,
				Amount:    a.Amount,
			}
			if err := tx.Create(&row).Error; err != nil {
				return StorageError("failed to create allocation", err)
			}
		}

		for _, a := range ordered {
			if err := settleIfCovered(tx, a.PenaltyID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// RecordCashPayment marks a single penalty settled outside the proof flow:
// a CASH payment of the penalty's exact amount with one full allocation.
// Calling it on an already-PAID penalty is a no-op and returns nil.
func (s *PaymentService) RecordCashPayment(actingUserID, penaltyID uuid.UUID, note string) (*models.Payment, error) {
	var penalty models.Penalty
	if err := s.db.First(&penalty, "id = ?", penaltyID).Error; err != nil {
		return nil, NotFound("penalty not found")
	}
	if !canAdminister(s.db, actingUserID, penalty.GroupID) {
		return nil, Forbidden("only group admins can record cash payments")
	}
	if penalty.Status == models.PenaltyPaid {
		return nil, nil
	}

	adminID := actingUserID
	payment := models.Payment{
		UserID:            penalty.UserID,
		Amount:            penalty.Amount,
		PaymentMethod:     "CASH",
		ApprovedByAdminID: &adminID,
		Notes:             note,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Re-check under the transaction; a concurrent settlement makes
		// this call a no-op without a second payment row.
		flippable, err := settlePenalty(tx, penaltyID)
		if err != nil {
			return err
		}
		if !flippable {
			return errAlreadyPaid
		}

		if err := tx.Create(&payment).Error; err != nil {
			return StorageError("failed to create payment", err)
		}
		row := models.PenaltyPayment{
			PenaltyID: penaltyID,
			PaymentID: payment.ID,
			Amount:    penalty.Amount,
		}
		if err := tx.Create(&row).Error; err != nil {
			return StorageError("failed to create allocation", err)
		}
		return nil
	})
	if err == errAlreadyPaid {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *PaymentService) ListPayments(actingUserID uuid.UUID, userID *uuid.UUID) ([]models.PaymentResponse, error) {
	if !isPlatformAdmin(s.db, actingUserID) {
		me := actingUserID
		userID = &me
	}

	query := s.db.Order("created_at DESC")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, StorageError("failed to list payments", err)
	}

	responses := make([]models.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		var allocs []models.PenaltyPayment
		s.db.Where("payment_id = ?", p.ID).Find(&allocs)
		responses = append(responses, models.PaymentResponse{Payment: p, Allocations: allocs})
	}
	return responses, nil
}

// errAlreadyPaid aborts the cash-payment transaction without surfacing an
// error to the caller.
var errAlreadyPaid = Conflict("penalty already paid")

// settleIfCovered flips the penalty to PAID once its cumulative
// allocations meet or exceed its amount. Callers hold the penalty's row
// lock, so the sum always includes every competing allocation.
func settleIfCovered(tx *gorm.DB, penaltyID uuid.UUID) error {
	res := tx.Exec(`
		UPDATE penalties SET status = 'PAID'
		WHERE id = ? AND status = 'UNPAID'
		AND (SELECT COALESCE(SUM(amount), 0) FROM penalty_payments
		     WHERE penalty_id = ?) >= penalties.amount`,
		penaltyID, penaltyID)
	if res.Error != nil {
		return StorageError("failed to settle penalty", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	return debitOwnerBalance(tx, penaltyID)
}
