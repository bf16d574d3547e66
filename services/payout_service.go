package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mwangi2684/coachmarket/models"
)

// MinimumPayoutCents is the smallest pending balance that triggers a
// transfer; smaller balances roll over to the next weekly run.
const MinimumPayoutCents = 2500

type payoutCandidateLister interface {
	ListPayoutCandidates(minCents int64) ([]models.Coach, error)
}

type pendingReader interface {
	Get(coachID uuid.UUID) (*models.PendingPayout, error)
}

type payoutLedger interface {
	ExistsForPeriod(coachID uuid.UUID, periodStart, periodEnd time.Time) (bool, error)
	RecordSettlement(payout *models.Payout, purchaseIDs []uuid.UUID, nextPayoutAt time.Time) error
}

type feeSummer interface {
	SumPlatformFeesInPeriod(coachID uuid.UUID, start, end time.Time) (int64, error)
}

// PayoutService settles coaches' pending earnings once per weekly period
// (Monday 00:00 UTC to Monday 00:00 UTC). One coach's failure never aborts
// the run; failures are collected and reported for the next run or a manual
// rerun.
type PayoutService struct {
	coachRepo    payoutCandidateLister
	pendingRepo  pendingReader
	payoutRepo   payoutLedger
	purchaseRepo feeSummer
	processor    PaymentProcessor
	now          func() time.Time
}

func NewPayoutService(
	coachRepo payoutCandidateLister,
	pendingRepo pendingReader,
	payoutRepo payoutLedger,
	purchaseRepo feeSummer,
	processor PaymentProcessor,
) *PayoutService {
	return &PayoutService{
		coachRepo:    coachRepo,
		pendingRepo:  pendingRepo,
		payoutRepo:   payoutRepo,
		purchaseRepo: purchaseRepo,
		processor:    processor,
		now:          time.Now,
	}
}

// WeeklyPeriod returns the settlement window containing the most recent
// completed week: previous Monday 00:00 UTC up to this Monday 00:00 UTC.
func WeeklyPeriod(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -daysSinceMonday)
	return monday.AddDate(0, 0, -7), monday
}

type CoachPayoutOutcome struct {
	CoachID          uuid.UUID `json:"coach_id"`
	AmountCents      int64     `json:"amount_cents"`
	TransferID       string    `json:"transfer_id,omitempty"`
	PlatformFeeCents int64     `json:"platform_fee_cents"`
	AlreadySettled   bool      `json:"already_settled,omitempty"`
}

type CoachPayoutFailure struct {
	CoachID uuid.UUID `json:"coach_id"`
	Reason  string    `json:"reason"`
}

type PayoutRunResult struct {
	PeriodStart time.Time            `json:"period_start"`
	PeriodEnd   time.Time            `json:"period_end"`
	Paid        []CoachPayoutOutcome `json:"paid"`
	Failed      []CoachPayoutFailure `json:"failed"`
	PaidCount   int                  `json:"paid_count"`
	FailedCount int                  `json:"failed_count"`
}

// RunWeeklyPayout executes one settlement pass for the current period.
func (s *PayoutService) RunWeeklyPayout() (*PayoutRunResult, error) {
	periodStart, periodEnd := WeeklyPeriod(s.now())
	result := &PayoutRunResult{PeriodStart: periodStart, PeriodEnd: periodEnd}

	candidates, err := s.coachRepo.ListPayoutCandidates(MinimumPayoutCents)
	if err != nil {
		return nil, err
	}

	for _, coach := range candidates {
		outcome, err := s.payCoach(&coach, periodStart, periodEnd)
		if err != nil {
			result.Failed = append(result.Failed, CoachPayoutFailure{CoachID: coach.UserID, Reason: err.Error()})
			continue
		}
		result.Paid = append(result.Paid, *outcome)
	}

	result.PaidCount = len(result.Paid)
	result.FailedCount = len(result.Failed)
	log.Printf("Payout run %s..%s: %d paid, %d failed",
		periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"),
		result.PaidCount, result.FailedCount)
	return result, nil
}

func (s *PayoutService) payCoach(coach *models.Coach, periodStart, periodEnd time.Time) (*CoachPayoutOutcome, error) {
	settled, err := s.payoutRepo.ExistsForPeriod(coach.UserID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if settled {
		// Rerunning a settled period is a success no-op, not an error.
		return &CoachPayoutOutcome{CoachID: coach.UserID, AlreadySettled: true}, nil
	}

	// Consistency checks run before any external call.
	if coach.Status != models.CoachStatusActive {
		return nil, fmt.Errorf("%w: compliance status is %s", ErrInactiveAccount, coach.Status)
	}
	if coach.StripeAccountID == nil {
		return nil, ErrNoPayoutAccount
	}

	// Re-check the account live; it can be restricted between cycles.
	account, err := s.processor.RetrieveAccount(*coach.StripeAccountID)
	if err != nil {
		return nil, &ExternalServiceError{Service: "payment processor", Err: err}
	}
	if !account.ChargesEnabled || !account.PayoutsEnabled {
		return nil, ErrInactiveAccount
	}

	pending, err := s.pendingRepo.Get(coach.UserID)
	if err != nil {
		return nil, err
	}
	if pending.AmountCents < MinimumPayoutCents {
		return nil, ErrBelowMinimumPayout
	}

	feeCents, err := s.purchaseRepo.SumPlatformFeesInPeriod(coach.UserID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	idempotencyKey := fmt.Sprintf("payout:%s:%s:%s",
		coach.UserID, periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))
	transfer, err := s.processor.CreateTransfer(pending.AmountCents, "USD", *coach.StripeAccountID, map[string]string{
		"coach_id":     coach.UserID.String(),
		"period_start": periodStart.Format("2006-01-02"),
		"period_end":   periodEnd.Format("2006-01-02"),
	}, idempotencyKey)
	if err != nil {
		return nil, &ExternalServiceError{Service: "payment processor", Err: err}
	}

	payout := &models.Payout{
		CoachID:            coach.UserID,
		ExternalTransferID: transfer.ID,
		AmountCents:        pending.AmountCents,
		Currency:           "USD",
		PeriodStart:        periodStart,
		PeriodEnd:          periodEnd,
		PlatformFeeCents:   feeCents,
	}
	purchaseIDs := make([]uuid.UUID, 0, len(pending.Items))
	for _, item := range pending.Items {
		purchaseIDs = append(purchaseIDs, item.PurchaseID)
	}
	if err := s.payoutRepo.RecordSettlement(payout, purchaseIDs, periodEnd.AddDate(0, 0, 7)); err != nil {
		return nil, err
	}

	return &CoachPayoutOutcome{
		CoachID:          coach.UserID,
		AmountCents:      payout.AmountCents,
		TransferID:       transfer.ID,
		PlatformFeeCents: feeCents,
	}, nil
}
