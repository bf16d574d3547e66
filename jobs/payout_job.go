package jobs

import (
	"log"

	"github.com/mwangi2684/coachmarket/services"
)

// RunWeeklyPayouts settles every coach with a qualifying pending balance for
// the period that closed Monday 00:00 UTC. Per-coach failures are isolated;
// rerunning after a partial failure only touches the coaches that failed.
func RunWeeklyPayouts(payouts *services.PayoutService) {
	log.Println("Running job: RunWeeklyPayouts...")

	result, err := payouts.RunWeeklyPayout()
	if err != nil {
		log.Printf("Error running weekly payouts: %v", err)
		return
	}

	for _, failure := range result.Failed {
		log.Printf("Payout failed for coach %s: %s", failure.CoachID, failure.Reason)
	}
	log.Printf("Weekly payouts finished: %d paid, %d failed.", result.PaidCount, result.FailedCount)
}
