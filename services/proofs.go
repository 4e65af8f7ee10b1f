package services

import (
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"penaltybox-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var allowedProofExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ProofService runs the proof review state machine:
// PENDING → APPROVED | DECLINED, both terminal.
type ProofService struct {
	db       *gorm.DB
	storage  Storage
	tasks    *TaskRunner
	notifier *Notifier
}

func NewProofService(db *gorm.DB, storage Storage, tasks *TaskRunner, notifier *Notifier) *ProofService {
	return &ProofService{db: db, storage: storage, tasks: tasks, notifier: notifier}
}

// SubmitProof stores the upload, creates the PENDING proof record and
// hands a thumbnail job to the pipeline. A failed enqueue is logged but
// never fails the submission; the proof keeps its original path.
func (s *ProofService) SubmitProof(actingUserID, penaltyID uuid.UUID, filename string, file io.Reader) (*models.Proof, error) {
	var penalty models.Penalty
	if err := s.db.First(&penalty, "id = ?", penaltyID).Error; err != nil {
		return nil, NotFound("penalty not found")
	}
	if actingUserID != penalty.UserID && !isPlatformAdmin(s.db, actingUserID) {
		return nil, Forbidden("only the penalty owner can submit proof")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedProofExtensions[ext] {
		return nil, Validation("file type not allowed, must be an image (jpg, jpeg, png, gif, webp)")
	}

	path, err := s.storage.Save("proofs", filename, file)
	if err != nil {
		return nil, StorageError("could not store uploaded file", err)
	}

	proof := models.Proof{
		PenaltyID: penaltyID,
		ImageURL:  path,
		Status:    models.ProofPending,
	}
	if err := s.db.Create(&proof).Error; err != nil {
		s.storage.Delete(path)
		return nil, StorageError("failed to create proof", err)
	}

	if err := s.tasks.Enqueue(ThumbnailJob{ProofID: proof.ID, OriginalPath: path}); err != nil {
		log.Printf("⚠️  Could not enqueue thumbnail job for proof %s: %v", proof.ID, err)
	}

	return &proof, nil
}

// ApproveProof is a conditional single-row transition out of PENDING;
// concurrent reviews resolve to exactly one winner. Approving an
// already-approved proof re-confirms without re-firing side effects.
func (s *ProofService) ApproveProof(actingUserID, proofID uuid.UUID, note string) (*models.Proof, error) {
	proof, penalty, err := s.loadForReview(actingUserID, proofID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var flipped bool
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Proof{}).
			Where("id = ? AND status = ?", proofID, models.ProofPending).
			Updates(map[string]interface{}{
				"status":      models.ProofApproved,
				"reviewed_by": actingUserID,
				"reviewed_at": now,
				"admin_note":  note,
			})
		if res.Error != nil {
			return StorageError("failed to approve proof", res.Error)
		}
		if res.RowsAffected == 0 {
			var current models.Proof
			if err := tx.First(&current, "id = ?", proofID).Error; err != nil {
				return NotFound("proof not found")
			}
			if current.Status == models.ProofApproved {
				*proof = current
				return nil // no-op re-confirmation
			}
			return Conflict("proof is already declined")
		}

		flipped = true
		proof.Status = models.ProofApproved
		proof.ReviewedBy = &actingUserID
		proof.ReviewedAt = &now
		proof.AdminNote = note

		_, err := settlePenalty(tx, penalty.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if flipped {
		var owner models.User
		if err := s.db.First(&owner, "id = ?", penalty.UserID).Error; err == nil {
			go s.notifier.ProofReviewed(owner, *proof, true)
		}
	}
	return proof, nil
}

// DeclineProof mirrors approval but leaves the penalty status untouched.
// Any decline on a terminal proof is a conflict.
func (s *ProofService) DeclineProof(actingUserID, proofID uuid.UUID, note string) (*models.Proof, error) {
	proof, penalty, err := s.loadForReview(actingUserID, proofID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res := s.db.Model(&models.Proof{}).
		Where("id = ? AND status = ?", proofID, models.ProofPending).
		Updates(map[string]interface{}{
			"status":      models.ProofDeclined,
			"reviewed_by": actingUserID,
			"reviewed_at": now,
			"admin_note":  note,
		})
	if res.Error != nil {
		return nil, StorageError("failed to decline proof", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, Conflict("proof has already been reviewed")
	}

	proof.Status = models.ProofDeclined
	proof.ReviewedBy = &actingUserID
	proof.ReviewedAt = &now
	proof.AdminNote = note

	var owner models.User
	if err := s.db.First(&owner, "id = ?", penalty.UserID).Error; err == nil {
		go s.notifier.ProofReviewed(owner, *proof, false)
	}
	return proof, nil
}

// DeleteProof removes the stored image, then the record. Penalty status is
// left as-is.
func (s *ProofService) DeleteProof(actingUserID, proofID uuid.UUID) error {
	proof, _, err := s.loadForReview(actingUserID, proofID)
	if err != nil {
		return err
	}

	if proof.ImageURL != "" {
		if err := s.storage.Delete(proof.ImageURL); err != nil {
			log.Printf("⚠️  Could not delete proof image %s: %v", proof.ImageURL, err)
		}
	}

	if err := s.db.Delete(&models.Proof{}, "id = ?", proofID).Error; err != nil {
		return StorageError("failed to delete proof", err)
	}
	return nil
}

func (s *ProofService) ListForPenalty(actingUserID, penaltyID uuid.UUID) ([]models.Proof, error) {
	var penalty models.Penalty
	if err := s.db.First(&penalty, "id = ?", penaltyID).Error; err != nil {
		return nil, NotFound("penalty not found")
	}
	if actingUserID != penalty.UserID &&
		!isMember(s.db, actingUserID, penalty.GroupID) &&
		!isPlatformAdmin(s.db, actingUserID) {
		return nil, Forbidden("you are not allowed to view these proofs")
	}

	var proofs []models.Proof
	if err := s.db.Where("penalty_id = ?", penaltyID).Order("created_at DESC").Find(&proofs).Error; err != nil {
		return nil, StorageError("failed to list proofs", err)
	}
	return proofs, nil
}

// ListAll is the admin review queue, optionally filtered by status.
func (s *ProofService) ListAll(actingUserID uuid.UUID, status models.ProofStatus) ([]models.Proof, error) {
	if !isPlatformAdmin(s.db, actingUserID) {
		return nil, Forbidden("only platform admins can list all proofs")
	}

	query := s.db.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var proofs []models.Proof
	if err := query.Find(&proofs).Error; err != nil {
		return nil, StorageError("failed to list proofs", err)
	}
	return proofs, nil
}

// loadForReview resolves the proof and its penalty and checks that the
// acting user administers the penalty's group.
func (s *ProofService) loadForReview(actingUserID, proofID uuid.UUID) (*models.Proof, *models.Penalty, error) {
	var proof models.Proof
	if err := s.db.First(&proof, "id = ?", proofID).Error; err != nil {
		return nil, nil, NotFound("proof not found")
	}
	var penalty models.Penalty
	if err := s.db.First(&penalty, "id = ?", proof.PenaltyID).Error; err != nil {
		return nil, nil, NotFound("penalty not found")
	}
	if !canAdminister(s.db, actingUserID, penalty.GroupID) {
		return nil, nil, Forbidden("only group admins can review proofs")
	}
	return &proof, &penalty, nil
}
