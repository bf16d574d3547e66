package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
	"github.com/mwangi2684/coachmarket/payments"
)

type stubPayoutLedger struct {
	settled map[uuid.UUID]bool
	payouts []models.Payout
	nextAt  map[uuid.UUID]time.Time
}

func newStubPayoutLedger() *stubPayoutLedger {
	return &stubPayoutLedger{
		settled: make(map[uuid.UUID]bool),
		nextAt:  make(map[uuid.UUID]time.Time),
	}
}

func (s *stubPayoutLedger) ExistsForPeriod(coachID uuid.UUID, periodStart, periodEnd time.Time) (bool, error) {
	return s.settled[coachID], nil
}

func (s *stubPayoutLedger) RecordSettlement(payout *models.Payout, purchaseIDs []uuid.UUID, nextPayoutAt time.Time) error {
	s.settled[payout.CoachID] = true
	s.payouts = append(s.payouts, *payout)
	s.nextAt[payout.CoachID] = nextPayoutAt
	return nil
}

type stubCandidateLister struct {
	coaches []models.Coach
}

func (s *stubCandidateLister) ListPayoutCandidates(minCents int64) ([]models.Coach, error) {
	return s.coaches, nil
}

type stubPendingReader struct {
	pending map[uuid.UUID]*models.PendingPayout
}

func (s *stubPendingReader) Get(coachID uuid.UUID) (*models.PendingPayout, error) {
	pending, ok := s.pending[coachID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return pending, nil
}

type stubFeeSummer struct {
	fees map[uuid.UUID]int64
}

func (s *stubFeeSummer) SumPlatformFeesInPeriod(coachID uuid.UUID, start, end time.Time) (int64, error) {
	return s.fees[coachID], nil
}

type payoutFixture struct {
	service    *PayoutService
	candidates *stubCandidateLister
	pending    *stubPendingReader
	ledger     *stubPayoutLedger
	fees       *stubFeeSummer
	processor  *stubProcessor
	now        time.Time
}

func newPayoutFixture() *payoutFixture {
	f := &payoutFixture{
		candidates: &stubCandidateLister{},
		pending:    &stubPendingReader{pending: make(map[uuid.UUID]*models.PendingPayout)},
		ledger:     newStubPayoutLedger(),
		fees:       &stubFeeSummer{fees: make(map[uuid.UUID]int64)},
		processor:  &stubProcessor{},
		// A Wednesday; the period is Mon Mar 9 back to Mon Mar 2.
		now: time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC),
	}
	f.service = NewPayoutService(f.candidates, f.pending, f.ledger, f.fees, f.processor)
	f.service.now = func() time.Time { return f.now }
	return f
}

func (f *payoutFixture) addCoach(balanceCents int64, purchases int) uuid.UUID {
	coachID := uuid.New()
	account := "acct_" + coachID.String()[:8]
	f.candidates.coaches = append(f.candidates.coaches, models.Coach{
		UserID:          coachID,
		Status:          models.CoachStatusActive,
		StripeAccountID: &account,
	})

	items := make([]models.PendingPayoutItem, 0, purchases)
	for i := 0; i < purchases; i++ {
		items = append(items, models.PendingPayoutItem{
			CoachID:        coachID,
			PurchaseID:     uuid.New(),
			RemainingCents: balanceCents / int64(purchases),
		})
	}
	f.pending.pending[coachID] = &models.PendingPayout{
		CoachID:     coachID,
		AmountCents: balanceCents,
		Items:       items,
	}
	return coachID
}

func TestWeeklyPeriodBoundaries(t *testing.T) {
	cases := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			"midweek",
			time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC),
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			"monday start of week",
			time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			"sunday end of week",
			time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC),
			time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := WeeklyPeriod(tc.now)
			if !start.Equal(tc.wantStart) || !end.Equal(tc.wantEnd) {
				t.Fatalf("WeeklyPeriod = %s..%s, want %s..%s", start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestRunWeeklyPayoutTransfersFullBalance(t *testing.T) {
	f := newPayoutFixture()
	coachID := f.addCoach(3000, 2)
	f.fees.fees[coachID] = 750

	result, err := f.service.RunWeeklyPayout()
	if err != nil {
		t.Fatalf("RunWeeklyPayout: %v", err)
	}
	if result.PaidCount != 1 || result.FailedCount != 0 {
		t.Fatalf("paid=%d failed=%d, want 1/0", result.PaidCount, result.FailedCount)
	}
	paid := result.Paid[0]
	if paid.CoachID != coachID || paid.AmountCents != 3000 || paid.PlatformFeeCents != 750 {
		t.Fatalf("unexpected outcome: %+v", paid)
	}
	if len(f.processor.transfers) != 1 || f.processor.transfers[0] != 3000 {
		t.Fatalf("transfer amounts = %v, want [3000]", f.processor.transfers)
	}
	if !strings.HasPrefix(f.processor.transferKeys[0], "payout:"+coachID.String()) {
		t.Fatalf("idempotency key = %q", f.processor.transferKeys[0])
	}
	if got := f.ledger.nextAt[coachID]; !got.Equal(result.PeriodEnd.AddDate(0, 0, 7)) {
		t.Fatalf("next payout at = %s", got)
	}
}

func TestRunWeeklyPayoutSkipsSettledPeriod(t *testing.T) {
	f := newPayoutFixture()
	coachID := f.addCoach(3000, 1)

	if _, err := f.service.RunWeeklyPayout(); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := f.service.RunWeeklyPayout()
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.PaidCount != 1 || !result.Paid[0].AlreadySettled {
		t.Fatalf("rerun should be a settled no-op, got %+v", result.Paid)
	}
	if result.Paid[0].CoachID != coachID {
		t.Fatalf("wrong coach in rerun outcome")
	}
	if len(f.processor.transfers) != 1 {
		t.Fatalf("rerun must not transfer again, got %d transfers", len(f.processor.transfers))
	}
}

func TestRunWeeklyPayoutIsolatesFailures(t *testing.T) {
	f := newPayoutFixture()
	healthy := f.addCoach(5000, 1)
	broken := f.addCoach(4000, 1)
	f.candidates.coaches[1].StripeAccountID = nil

	result, err := f.service.RunWeeklyPayout()
	if err != nil {
		t.Fatalf("RunWeeklyPayout: %v", err)
	}
	if result.PaidCount != 1 || result.Paid[0].CoachID != healthy {
		t.Fatalf("healthy coach should still be paid: %+v", result.Paid)
	}
	if result.FailedCount != 1 || result.Failed[0].CoachID != broken {
		t.Fatalf("broken coach should be reported: %+v", result.Failed)
	}
	if !strings.Contains(result.Failed[0].Reason, ErrNoPayoutAccount.Error()) {
		t.Fatalf("failure reason = %q", result.Failed[0].Reason)
	}
}

func TestPayCoachComplianceAndAccountGates(t *testing.T) {
	t.Run("flagged coach is skipped before any external call", func(t *testing.T) {
		f := newPayoutFixture()
		f.addCoach(5000, 1)
		f.candidates.coaches[0].Status = models.CoachStatusFlagged

		result, err := f.service.RunWeeklyPayout()
		if err != nil {
			t.Fatalf("RunWeeklyPayout: %v", err)
		}
		if result.FailedCount != 1 {
			t.Fatalf("expected one failure, got %+v", result)
		}
		if !strings.Contains(result.Failed[0].Reason, ErrInactiveAccount.Error()) {
			t.Fatalf("failure reason = %q", result.Failed[0].Reason)
		}
		if len(f.processor.transfers) != 0 {
			t.Fatalf("no transfer expected for flagged coach")
		}
	})

	t.Run("restricted processor account blocks the transfer", func(t *testing.T) {
		f := newPayoutFixture()
		f.addCoach(5000, 1)
		f.processor.account = &payments.Account{ID: "acct_restricted", ChargesEnabled: false, PayoutsEnabled: true}

		result, err := f.service.RunWeeklyPayout()
		if err != nil {
			t.Fatalf("RunWeeklyPayout: %v", err)
		}
		if result.FailedCount != 1 {
			t.Fatalf("expected one failure, got %+v", result)
		}
		if len(f.processor.transfers) != 0 {
			t.Fatalf("no transfer expected for restricted account")
		}
	})
}

// A balance that dropped below the minimum between candidate listing and
// settlement (for example through a refund) is skipped, not transferred.
func TestPayCoachBelowMinimumAfterRefunds(t *testing.T) {
	f := newPayoutFixture()
	f.addCoach(2000, 1)

	result, err := f.service.RunWeeklyPayout()
	if err != nil {
		t.Fatalf("RunWeeklyPayout: %v", err)
	}
	if result.FailedCount != 1 {
		t.Fatalf("expected below-minimum failure, got %+v", result)
	}
	if !strings.Contains(result.Failed[0].Reason, ErrBelowMinimumPayout.Error()) {
		t.Fatalf("failure reason = %q", result.Failed[0].Reason)
	}
	if len(f.processor.transfers) != 0 {
		t.Fatalf("no transfer expected below the minimum")
	}
}
