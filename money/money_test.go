package money

import (
	"testing"
	"time"
)

func TestPlatformFeeSplitsBalance(t *testing.T) {
	amounts := []int64{1, 49, 50, 250, 251, 999, 5000, 12345, 1000000}
	for _, amount := range amounts {
		fee := PlatformFee(amount)
		earnings := CoachEarnings(amount, fee)
		if fee+earnings != amount {
			t.Errorf("amount %d: fee %d + earnings %d != amount", amount, fee, earnings)
		}
		if fee < MinimumFeeCents {
			t.Errorf("amount %d: fee %d below minimum", amount, fee)
		}
	}
}

func TestPlatformFeeRate(t *testing.T) {
	if got := PlatformFee(5000); got != 1000 {
		t.Errorf("PlatformFee(5000) = %d, want 1000", got)
	}
	if got := PlatformFee(10000); got != 2000 {
		t.Errorf("PlatformFee(10000) = %d, want 2000", got)
	}
	// Below the floor: 20% of 100 is 20, so the 50-cent minimum applies.
	if got := PlatformFee(100); got != 50 {
		t.Errorf("PlatformFee(100) = %d, want 50", got)
	}
}

func TestRefundAmountBands(t *testing.T) {
	policy := DefaultRefundPolicy()
	start := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		cancelledAt time.Time
		want        int64
	}{
		{"30 hours before", start.Add(-30 * time.Hour), 5000},
		{"exactly 24 hours before", start.Add(-24 * time.Hour), 5000},
		{"5 hours before", start.Add(-5 * time.Hour), 2500},
		{"exactly 2 hours before", start.Add(-2 * time.Hour), 2500},
		{"1 hour before", start.Add(-1 * time.Hour), 0},
		{"after start", start.Add(10 * time.Minute), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := RefundAmount(start, tt.cancelledAt, 5000, policy)
			if got != tt.want {
				t.Errorf("RefundAmount = %d (%q), want %d", got, reason, tt.want)
			}
		})
	}
}

func TestRefundAmountZeroOriginal(t *testing.T) {
	policy := DefaultRefundPolicy()
	start := time.Now().Add(48 * time.Hour)
	if got, _ := RefundAmount(start, time.Now(), 0, policy); got != 0 {
		t.Errorf("zero-amount booking refunded %d cents", got)
	}
}

// Refund is non-increasing as the cancellation instant approaches the start.
func TestRefundMonotonicity(t *testing.T) {
	policy := DefaultRefundPolicy()
	start := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	prev := int64(1 << 62)
	for h := 72.0; h >= 0; h -= 0.5 {
		cancelledAt := start.Add(-time.Duration(h * float64(time.Hour)))
		got, _ := RefundAmount(start, cancelledAt, 5000, policy)
		if got > prev {
			t.Fatalf("refund increased from %d to %d at %.1f hours before start", prev, got, h)
		}
		prev = got
	}
}
