package services

import (
	"sync"
	"testing"

	"penaltybox-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type paymentFixture struct {
	db        *gorm.DB
	members   *MembershipService
	penalties *PenaltyService
	payments  *PaymentService

	admin models.User
	bob   models.User
	group models.Group
	rule  models.Rule
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	db := newTestDB(t)
	members := NewMembershipService(db)
	rules := NewRuleService(db)
	penalties := NewPenaltyService(db, quietNotifier())
	payments := NewPaymentService(db, true)

	admin := createTestUser(t, db, "admin", true)
	group := createTestGroup(t, members, admin, "payments")
	bob := createTestUser(t, db, "bob", false)
	if _, err := members.AddMember(admin.ID, group.ID, bob.ID, ""); err != nil {
		t.Fatal(err)
	}
	rule := createTestRule(t, rules, admin, group.ID, "late", 50)

	return &paymentFixture{
		db:        db,
		members:   members,
		penalties: penalties,
		payments:  payments,
		admin:     admin,
		bob:       bob,
		group:     group,
		rule:      rule,
	}
}

func (f *paymentFixture) newPenalty(t *testing.T) models.Penalty {
	t.Helper()

	penalty, err := f.penalties.CreatePenalty(f.admin.ID, f.group.ID, f.bob.ID, f.rule.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	return *penalty
}

func TestRecordCashPayment(t *testing.T) {
	f := newPaymentFixture(t)
	penalty := f.newPenalty(t)

	t.Run("settles the penalty with a full allocation", func(t *testing.T) {
		payment, err := f.payments.RecordCashPayment(f.admin.ID, penalty.ID, "paid at practice")
		if err != nil {
			t.Fatalf("RecordCashPayment failed: %v", err)
		}
		if payment == nil {
			t.Fatal("expected a payment record")
		}
		if payment.Amount != 50 || payment.PaymentMethod != "CASH" {
			t.Errorf("unexpected payment: %+v", payment)
		}
		if payment.ApprovedByAdminID == nil || *payment.ApprovedByAdminID != f.admin.ID {
			t.Error("approving admin not stamped")
		}

		var reloaded models.Penalty
		f.db.First(&reloaded, "id = ?", penalty.ID)
		if reloaded.Status != models.PenaltyPaid {
			t.Errorf("expected PAID, got %s", reloaded.Status)
		}

		var alloc models.PenaltyPayment
		if err := f.db.Where("payment_id = ?", payment.ID).First(&alloc).Error; err != nil {
			t.Fatalf("no allocation row: %v", err)
		}
		if alloc.PenaltyID != penalty.ID || alloc.Amount != 50 {
			t.Errorf("unexpected allocation: %+v", alloc)
		}
	})

	t.Run("second call is a no-op without a second payment row", func(t *testing.T) {
		payment, err := f.payments.RecordCashPayment(f.admin.ID, penalty.ID, "")
		if err != nil {
			t.Fatalf("repeat call errored: %v", err)
		}
		if payment != nil {
			t.Error("expected nil payment on already-paid penalty")
		}

		var count int64
		f.db.Model(&models.Payment{}).Count(&count)
		if count != 1 {
			t.Errorf("expected 1 payment row, got %d", count)
		}
	})

	t.Run("member cannot record cash payments", func(t *testing.T) {
		other := f.newPenalty(t)
		if _, err := f.payments.RecordCashPayment(f.bob.ID, other.ID, ""); KindOf(err) != KindForbidden {
			t.Errorf("expected forbidden, got %v", err)
		}
	})
}

func TestRecordPayment(t *testing.T) {
	f := newPaymentFixture(t)

	t.Run("partial allocations flip only at full coverage", func(t *testing.T) {
		penalty := f.newPenalty(t) // amount 50

		// First payment covers 30 of 50.
		_, err := f.payments.RecordPayment(f.bob.ID, f.bob.ID, 30, "ONLINE", "tx-1", "",
			[]Allocation{{PenaltyID: penalty.ID, Amount: 30}})
		if err != nil {
			t.Fatalf("first payment failed: %v", err)
		}
		var reloaded models.Penalty
		f.db.First(&reloaded, "id = ?", penalty.ID)
		if reloaded.Status != models.PenaltyUnpaid {
			t.Fatalf("under-covered penalty flipped: %s", reloaded.Status)
		}

		// Second payment pushes the cumulative coverage past the 50 owed.
		_, err = f.payments.RecordPayment(f.bob.ID, f.bob.ID, 25, "ONLINE", "tx-2", "",
			[]Allocation{{PenaltyID: penalty.ID, Amount: 25}})
		if err != nil {
			t.Fatalf("second payment failed: %v", err)
		}
		f.db.First(&reloaded, "id = ?", penalty.ID)
		if reloaded.Status != models.PenaltyPaid {
			t.Errorf("covered penalty not flipped: %s", reloaded.Status)
		}

		// Allocations are recorded in full, not capped to the penalty.
		var total float64
		f.db.Model(&models.PenaltyPayment{}).
			Where("penalty_id = ?", penalty.ID).
			Select("COALESCE(SUM(amount), 0)").Scan(&total)
		if total != 55 {
			t.Errorf("expected 55 allocated in total, got %.2f", total)
		}
	})

	t.Run("concurrent partial allocations still settle at coverage", func(t *testing.T) {
		penalty := f.newPenalty(t) // amount 50

		amounts := []float64{30, 25}
		errs := make([]error, len(amounts))
		var wg sync.WaitGroup
		for i, amt := range amounts {
			wg.Add(1)
			go func(i int, amt float64) {
				defer wg.Done()
				_, errs[i] = f.payments.RecordPayment(f.bob.ID, f.bob.ID, amt, "ONLINE", "", "",
					[]Allocation{{PenaltyID: penalty.ID, Amount: amt}})
			}(i, amt)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			}
		}
		if succeeded == 0 {
			t.Fatalf("no payment went through: %v / %v", errs[0], errs[1])
		}

		// Whatever landed, coverage and status must agree.
		var total float64
		f.db.Model(&models.PenaltyPayment{}).
			Where("penalty_id = ?", penalty.ID).
			Select("COALESCE(SUM(amount), 0)").Scan(&total)
		var reloaded models.Penalty
		f.db.First(&reloaded, "id = ?", penalty.ID)
		if total >= 50 && reloaded.Status != models.PenaltyPaid {
			t.Errorf("penalty covered with %.2f but left %s", total, reloaded.Status)
		}
		if total < 50 && reloaded.Status != models.PenaltyUnpaid {
			t.Errorf("penalty under-covered with %.2f but marked %s", total, reloaded.Status)
		}
	})

	t.Run("allocations above the payment amount are rejected", func(t *testing.T) {
		penalty := f.newPenalty(t)
		_, err := f.payments.RecordPayment(f.bob.ID, f.bob.ID, 20, "", "", "",
			[]Allocation{{PenaltyID: penalty.ID, Amount: 25}})
		if KindOf(err) != KindValidation {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("one payment across several penalties", func(t *testing.T) {
		first := f.newPenalty(t)
		second := f.newPenalty(t)

		payment, err := f.payments.RecordPayment(f.admin.ID, f.bob.ID, 100, "BANK", "tx-3", "monthly clearing",
			[]Allocation{
				{PenaltyID: first.ID, Amount: 50},
				{PenaltyID: second.ID, Amount: 50},
			})
		if err != nil {
			t.Fatalf("RecordPayment failed: %v", err)
		}

		for _, id := range []uuid.UUID{first.ID, second.ID} {
			var p models.Penalty
			f.db.First(&p, "id = ?", id)
			if p.Status != models.PenaltyPaid {
				t.Errorf("penalty %s not settled", id)
			}
		}

		var allocSum float64
		f.db.Model(&models.PenaltyPayment{}).
			Where("payment_id = ?", payment.ID).
			Select("COALESCE(SUM(amount), 0)").Scan(&allocSum)
		if allocSum > payment.Amount {
			t.Errorf("allocation invariant violated: %.2f > %.2f", allocSum, payment.Amount)
		}
	})

	t.Run("missing penalty rolls the whole payment back", func(t *testing.T) {
		penalty := f.newPenalty(t)

		var before int64
		f.db.Model(&models.Payment{}).Count(&before)

		_, err := f.payments.RecordPayment(f.bob.ID, f.bob.ID, 60, "", "", "",
			[]Allocation{
				{PenaltyID: penalty.ID, Amount: 30},
				{PenaltyID: uuid.New(), Amount: 30},
			})
		if KindOf(err) != KindNotFound {
			t.Fatalf("expected not found, got %v", err)
		}

		var after int64
		f.db.Model(&models.Payment{}).Count(&after)
		if after != before {
			t.Error("payment row written despite failed allocation")
		}
		var allocs int64
		f.db.Model(&models.PenaltyPayment{}).Where("penalty_id = ?", penalty.ID).Count(&allocs)
		if allocs != 0 {
			t.Error("allocation rows written despite rollback")
		}
	})

	t.Run("non-admin cannot pay for someone else", func(t *testing.T) {
		penalty := f.newPenalty(t)
		carol := createTestUser(t, f.db, "carol", false)
		_, err := f.payments.RecordPayment(carol.ID, f.bob.ID, 50, "", "", "",
			[]Allocation{{PenaltyID: penalty.ID, Amount: 50}})
		if KindOf(err) != KindForbidden {
			t.Errorf("expected forbidden, got %v", err)
		}
	})

	t.Run("duplicate penalties in one request are rejected", func(t *testing.T) {
		penalty := f.newPenalty(t)
		_, err := f.payments.RecordPayment(f.bob.ID, f.bob.ID, 50, "", "", "",
			[]Allocation{
				{PenaltyID: penalty.ID, Amount: 25},
				{PenaltyID: penalty.ID, Amount: 25},
			})
		if KindOf(err) != KindValidation {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}
