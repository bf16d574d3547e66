package money

import (
	"fmt"
	"math"
	"time"
)

// All amounts are integer cents. Floating point never touches stored money;
// the only float is the transient fee/percent multiplication, rounded
// half-away-from-zero immediately.

const (
	PlatformFeeRate = 0.20
	MinimumFeeCents = 50
)

// RefundPolicy is the cancellation window policy. Zero value is not usable;
// call DefaultRefundPolicy.
type RefundPolicy struct {
	FullRefundHours    float64
	PartialRefundHours float64
	PartialPercent     int64
}

func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{
		FullRefundHours:    24,
		PartialRefundHours: 2,
		PartialPercent:     50,
	}
}

// PlatformFee returns the marketplace's cut of a paid amount:
// 20% rounded, floored at 50 cents. Callers must not pass free sessions
// through here; zero-price bookings never reach fee calculation.
func PlatformFee(amountCents int64) int64 {
	fee := int64(math.Round(float64(amountCents) * PlatformFeeRate))
	if fee < MinimumFeeCents {
		fee = MinimumFeeCents
	}
	return fee
}

// CoachEarnings is the remainder credited to the coach's pending balance.
func CoachEarnings(amountCents, feeCents int64) int64 {
	return amountCents - feeCents
}

// RefundAmount computes the policy-bound refund for a cancellation at
// cancelledAt of a session starting at scheduledStart. Returns the amount in
// cents and a human-readable reason for the band that applied.
func RefundAmount(scheduledStart, cancelledAt time.Time, originalAmountCents int64, policy RefundPolicy) (int64, string) {
	if originalAmountCents <= 0 {
		return 0, "no payment to refund"
	}

	hours := scheduledStart.Sub(cancelledAt).Hours()

	switch {
	case hours >= policy.FullRefundHours:
		return originalAmountCents, fmt.Sprintf("full refund: cancelled more than %.0f hours before start", policy.FullRefundHours)
	case hours >= policy.PartialRefundHours:
		amount := int64(math.Round(float64(originalAmountCents) * float64(policy.PartialPercent) / 100))
		return amount, fmt.Sprintf("partial refund (%d%%): cancelled between %.0f and %.0f hours before start", policy.PartialPercent, policy.PartialRefundHours, policy.FullRefundHours)
	default:
		return 0, fmt.Sprintf("no refund: cancelled less than %.0f hours before start", policy.PartialRefundHours)
	}
}
