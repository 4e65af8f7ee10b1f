package services

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"penaltybox-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// proofFixture wires a proof service over a temp-dir storage and an
// unstarted task runner, so enqueued jobs sit in the queue until a test
// drains them explicitly.
type proofFixture struct {
	db        *gorm.DB
	members   *MembershipService
	penalties *PenaltyService
	proofs    *ProofService
	storage   Storage
	runner    *TaskRunner

	admin   models.User
	bob     models.User
	group   models.Group
	penalty models.Penalty
}

func newProofFixture(t *testing.T) *proofFixture {
	t.Helper()

	db := newTestDB(t)
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	runner := NewTaskRunner(db, storage, 100, 100, 16)

	members := NewMembershipService(db)
	rules := NewRuleService(db)
	penalties := NewPenaltyService(db, quietNotifier())
	proofs := NewProofService(db, storage, runner, quietNotifier())

	admin := createTestUser(t, db, "admin", true)
	group := createTestGroup(t, members, admin, "proofs")
	bob := createTestUser(t, db, "bob", false)
	if _, err := members.AddMember(admin.ID, group.ID, bob.ID, ""); err != nil {
		t.Fatal(err)
	}
	rule := createTestRule(t, rules, admin, group.ID, "late", 50)
	penalty, err := penalties.CreatePenalty(admin.ID, group.ID, bob.ID, rule.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	return &proofFixture{
		db:        db,
		members:   members,
		penalties: penalties,
		proofs:    proofs,
		storage:   storage,
		runner:    runner,
		admin:     admin,
		bob:       bob,
		group:     group,
		penalty:   *penalty,
	}
}

// testPNG returns a small encoded PNG.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestSubmitProof(t *testing.T) {
	f := newProofFixture(t)

	t.Run("png upload creates a pending proof", func(t *testing.T) {
		proof, err := f.proofs.SubmitProof(f.bob.ID, f.penalty.ID, "receipt.png", bytes.NewReader(testPNG(t, 300, 200)))
		if err != nil {
			t.Fatalf("SubmitProof failed: %v", err)
		}
		if proof.Status != models.ProofPending {
			t.Errorf("expected PENDING, got %s", proof.Status)
		}
		if !strings.HasPrefix(proof.ImageURL, "proofs/") {
			t.Errorf("expected original path under proofs/, got %s", proof.ImageURL)
		}
		if !f.storage.Exists(proof.ImageURL) {
			t.Error("uploaded blob not found in storage")
		}

		// Submission must not settle the penalty by itself.
		var penalty models.Penalty
		f.db.First(&penalty, "id = ?", f.penalty.ID)
		if penalty.Status != models.PenaltyUnpaid {
			t.Errorf("penalty flipped by submission: %s", penalty.Status)
		}
	})

	t.Run("disallowed extension is rejected before any rows", func(t *testing.T) {
		_, err := f.proofs.SubmitProof(f.bob.ID, f.penalty.ID, "notes.txt", strings.NewReader("hello"))
		if KindOf(err) != KindValidation {
			t.Fatalf("expected validation error, got %v", err)
		}

		var proofCount, taskCount int64
		f.db.Model(&models.Proof{}).Count(&proofCount)
		f.db.Model(&models.BackgroundTask{}).Count(&taskCount)
		if proofCount != 1 { // only the png from the previous subtest
			t.Errorf("expected 1 proof, got %d", proofCount)
		}
		if taskCount != 0 {
			t.Errorf("expected no background task rows, got %d", taskCount)
		}
	})

	t.Run("stranger cannot submit", func(t *testing.T) {
		stranger := createTestUser(t, f.db, "stranger", false)
		_, err := f.proofs.SubmitProof(stranger.ID, f.penalty.ID, "receipt.png", bytes.NewReader(testPNG(t, 10, 10)))
		if KindOf(err) != KindForbidden {
			t.Errorf("expected forbidden, got %v", err)
		}
	})

	t.Run("unknown penalty", func(t *testing.T) {
		_, err := f.proofs.SubmitProof(f.bob.ID, uuid.New(), "receipt.png", bytes.NewReader(testPNG(t, 10, 10)))
		if KindOf(err) != KindNotFound {
			t.Errorf("expected not found, got %v", err)
		}
	})
}

func TestApproveProof(t *testing.T) {
	f := newProofFixture(t)
	proof, err := f.proofs.SubmitProof(f.bob.ID, f.penalty.ID, "receipt.png", bytes.NewReader(testPNG(t, 40, 40)))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("approval settles the penalty", func(t *testing.T) {
		approved, err := f.proofs.ApproveProof(f.admin.ID, proof.ID, "looks good")
		if err != nil {
			t.Fatalf("ApproveProof failed: %v", err)
		}
		if approved.Status != models.ProofApproved {
			t.Errorf("expected APPROVED, got %s", approved.Status)
		}
		if approved.ReviewedBy == nil || *approved.ReviewedBy != f.admin.ID {
			t.Error("reviewer not stamped")
		}
		if approved.AdminNote != "looks good" {
			t.Errorf("note not stored: %q", approved.AdminNote)
		}

		var penalty models.Penalty
		f.db.First(&penalty, "id = ?", f.penalty.ID)
		if penalty.Status != models.PenaltyPaid {
			t.Errorf("expected penalty PAID, got %s", penalty.Status)
		}
	})

	t.Run("approving again is an idempotent no-op", func(t *testing.T) {
		var before models.User
		f.db.First(&before, "id = ?", f.bob.ID)

		again, err := f.proofs.ApproveProof(f.admin.ID, proof.ID, "re-check")
		if err != nil {
			t.Fatalf("second approval failed: %v", err)
		}
		if again.Status != models.ProofApproved {
			t.Errorf("expected APPROVED, got %s", again.Status)
		}
		if again.AdminNote != "looks good" {
			t.Errorf("re-approval overwrote the note: %q", again.AdminNote)
		}

		// No duplicate side effects on the owner's balance.
		var after models.User
		f.db.First(&after, "id = ?", f.bob.ID)
		if before.Balance != after.Balance {
			t.Errorf("balance changed on no-op approval: %.2f -> %.2f", before.Balance, after.Balance)
		}
	})

	t.Run("declining an approved proof conflicts", func(t *testing.T) {
		if _, err := f.proofs.DeclineProof(f.admin.ID, proof.ID, ""); KindOf(err) != KindConflict {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("member cannot review", func(t *testing.T) {
		second, err := f.proofs.SubmitProof(f.bob.ID, f.penalty.ID, "more.png", bytes.NewReader(testPNG(t, 10, 10)))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.proofs.ApproveProof(f.bob.ID, second.ID, ""); KindOf(err) != KindForbidden {
			t.Errorf("expected forbidden, got %v", err)
		}
	})
}

func TestDeclineProof(t *testing.T) {
	f := newProofFixture(t)
	proof, err := f.proofs.SubmitProof(f.bob.ID, f.penalty.ID, "receipt.png", bytes.NewReader(testPNG(t, 40, 40)))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("decline leaves the penalty unpaid", func(t *testing.T) {
		declined, err := f.proofs.DeclineProof(f.admin.ID, proof.ID, "too blurry")
		if err != nil {
			t.Fatalf("DeclineProof failed: %v", err)
		}
		if declined.Status != models.ProofDeclined {
			t.Errorf("expected DECLINED, got %s", declined.Status)
		}

		var penalty models.Penalty
		f.db.First(&penalty, "id = ?", f.penalty.ID)
		if penalty.Status != models.PenaltyUnpaid {
			t.Errorf("decline changed penalty status: %s", penalty.Status)
		}
	})

	t.Run("declined is terminal for both transitions", func(t *testing.T) {
		if _, err := f.proofs.ApproveProof(f.admin.ID, proof.ID, ""); KindOf(err) != KindConflict {
			t.Errorf("expected conflict on approve, got %v", err)
		}
		if _, err := f.proofs.DeclineProof(f.admin.ID, proof.ID, ""); KindOf(err) != KindConflict {
			t.Errorf("expected conflict on decline, got %v", err)
		}
	})

	t.Run("a fresh proof can still be submitted after decline", func(t *testing.T) {
		retry, err := f.proofs.SubmitProof(f.bob.ID, f.penalty.ID, "retry.png", bytes.NewReader(testPNG(t, 20, 20)))
		if err != nil {
			t.Fatalf("resubmission failed: %v", err)
		}
		if retry.Status != models.ProofPending {
			t.Errorf("expected PENDING, got %s", retry.Status)
		}
	})
}

func TestDeleteProof(t *testing.T) {
	f := newProofFixture(t)
	proof, err := f.proofs.SubmitProof(f.bob.ID, f.penalty.ID, "receipt.png", bytes.NewReader(testPNG(t, 40, 40)))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.proofs.DeleteProof(f.admin.ID, proof.ID); err != nil {
		t.Fatalf("DeleteProof failed: %v", err)
	}
	if f.storage.Exists(proof.ImageURL) {
		t.Error("blob still present after delete")
	}
	var count int64
	f.db.Model(&models.Proof{}).Where("id = ?", proof.ID).Count(&count)
	if count != 0 {
		t.Error("proof row still present after delete")
	}
}
