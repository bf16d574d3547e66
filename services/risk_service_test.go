package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mwangi2684/coachmarket/models"
)

type stubDisputeLister struct {
	disputes map[uuid.UUID][]models.Dispute
}

func (s *stubDisputeLister) ListByCoach(coachID uuid.UUID) ([]models.Dispute, error) {
	return s.disputes[coachID], nil
}

type riskFixture struct {
	service   *RiskService
	coaches   *stubCoachStore
	purchases *stubPurchaseStore
	disputes  *stubDisputeLister
	now       time.Time
}

func newRiskFixture() *riskFixture {
	f := &riskFixture{
		coaches:   newStubCoachStore(),
		purchases: newStubPurchaseStore(),
		disputes:  &stubDisputeLister{disputes: make(map[uuid.UUID][]models.Dispute)},
		now:       time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	f.service = NewRiskService(f.coaches, f.purchases, f.disputes)
	f.service.now = func() time.Time { return f.now }
	return f
}

func (f *riskFixture) addCoach(status string, avgRating float32, ratingCount int, age time.Duration) uuid.UUID {
	coachID := uuid.New()
	f.coaches.coaches[coachID] = &models.Coach{
		UserID:      coachID,
		Status:      status,
		AvgRating:   avgRating,
		RatingCount: ratingCount,
		CreatedAt:   f.now.Add(-age),
	}
	return coachID
}

func (f *riskFixture) addPurchases(coachID uuid.UUID, paid, refunded int) {
	for i := 0; i < paid; i++ {
		f.purchases.Create(&models.Purchase{CoachID: coachID, Status: models.PurchaseStatusPaid})
	}
	for i := 0; i < refunded; i++ {
		f.purchases.Create(&models.Purchase{CoachID: coachID, Status: models.PurchaseStatusRefunded})
	}
}

func (f *riskFixture) addDisputes(coachID uuid.UUID, count int) {
	for i := 0; i < count; i++ {
		f.disputes.disputes[coachID] = append(f.disputes.disputes[coachID], models.Dispute{CoachID: coachID})
	}
}

func factorByType(factors []RiskFactor, factorType string) *RiskFactor {
	for i := range factors {
		if factors[i].Type == factorType {
			return &factors[i]
		}
	}
	return nil
}

func TestRiskScoreCleanCoach(t *testing.T) {
	f := newRiskFixture()
	coachID := f.addCoach(models.CoachStatusActive, 4.8, 20, 180*24*time.Hour)
	f.addPurchases(coachID, 50, 0)

	score, err := f.service.ComputeCoachRiskScore(coachID)
	if err != nil {
		t.Fatalf("ComputeCoachRiskScore: %v", err)
	}
	if score.OverallScore != 0 || score.HighRisk {
		t.Fatalf("clean coach scored %d (high risk %v)", score.OverallScore, score.HighRisk)
	}
	if len(score.Recommendations) != 1 || score.Recommendations[0] != "No action required." {
		t.Fatalf("unexpected recommendations: %v", score.Recommendations)
	}
}

func TestRiskScoreDisputeTiers(t *testing.T) {
	cases := []struct {
		name         string
		purchases    int
		disputes     int
		wantSeverity string
		wantScore    float64
	}{
		{"above 5 percent is critical", 100, 6, SeverityCritical, 100},
		{"above 2 percent is high", 100, 3, SeverityHigh, 75},
		{"above 1 percent is medium", 100, 2, SeverityMedium, 50},
		{"nonzero below 1 percent is low", 200, 1, SeverityLow, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRiskFixture()
			coachID := f.addCoach(models.CoachStatusActive, 4.5, 10, 180*24*time.Hour)
			f.addPurchases(coachID, tc.purchases, 0)
			f.addDisputes(coachID, tc.disputes)

			score, err := f.service.ComputeCoachRiskScore(coachID)
			if err != nil {
				t.Fatalf("ComputeCoachRiskScore: %v", err)
			}
			factor := factorByType(score.Factors, FactorDisputeRate)
			if factor == nil {
				t.Fatalf("dispute factor missing")
			}
			if factor.Severity != tc.wantSeverity || factor.Score != tc.wantScore {
				t.Fatalf("dispute factor = %s/%v, want %s/%v",
					factor.Severity, factor.Score, tc.wantSeverity, tc.wantScore)
			}
		})
	}
}

func TestRiskScoreWeightsAndHighRiskFlag(t *testing.T) {
	f := newRiskFixture()
	// 6% disputes (critical, 100 * 0.40) + 12% refunds (critical, 100 * 0.20)
	// = 60 overall.
	coachID := f.addCoach(models.CoachStatusActive, 4.5, 10, 180*24*time.Hour)
	f.addPurchases(coachID, 88, 12)
	f.addDisputes(coachID, 6)

	score, err := f.service.ComputeCoachRiskScore(coachID)
	if err != nil {
		t.Fatalf("ComputeCoachRiskScore: %v", err)
	}
	if score.OverallScore != 60 {
		t.Fatalf("overall = %d, want 60", score.OverallScore)
	}
	if !score.HighRisk {
		t.Fatalf("score above 50 must flag high risk")
	}
}

func TestRiskScoreComplianceAndRating(t *testing.T) {
	f := newRiskFixture()
	coachID := f.addCoach(models.CoachStatusFlagged, 2.4, 8, 180*24*time.Hour)
	f.addPurchases(coachID, 20, 0)

	score, err := f.service.ComputeCoachRiskScore(coachID)
	if err != nil {
		t.Fatalf("ComputeCoachRiskScore: %v", err)
	}

	compliance := factorByType(score.Factors, FactorCompliance)
	if compliance == nil || compliance.Score != 80 || compliance.Severity != SeverityHigh {
		t.Fatalf("compliance factor = %+v", compliance)
	}
	rating := factorByType(score.Factors, FactorLowRating)
	if rating == nil || rating.Score != 60 {
		t.Fatalf("low rating factor = %+v", rating)
	}
	// 80*0.20 + 60*0.10 = 22.
	if score.OverallScore != 22 {
		t.Fatalf("overall = %d, want 22", score.OverallScore)
	}
}

func TestRiskScoreNewCoachFactor(t *testing.T) {
	f := newRiskFixture()
	fresh := f.addCoach(models.CoachStatusActive, 0, 0, 10*24*time.Hour)

	score, err := f.service.ComputeCoachRiskScore(fresh)
	if err != nil {
		t.Fatalf("ComputeCoachRiskScore: %v", err)
	}
	if factorByType(score.Factors, FactorNewCoach) == nil {
		t.Fatalf("new coach factor missing")
	}

	// Same age but with purchase history: no longer "new and unproven".
	proven := f.addCoach(models.CoachStatusActive, 0, 0, 10*24*time.Hour)
	f.addPurchases(proven, 3, 0)
	score, err = f.service.ComputeCoachRiskScore(proven)
	if err != nil {
		t.Fatalf("ComputeCoachRiskScore: %v", err)
	}
	if factorByType(score.Factors, FactorNewCoach) != nil {
		t.Fatalf("coach with purchases must not carry the new-coach factor")
	}
}

func TestRiskRecommendationsFollowFactorsNotScore(t *testing.T) {
	f := newRiskFixture()

	// Coach A: critical dispute rate only. 100 * 0.40 = 40.
	coachA := f.addCoach(models.CoachStatusActive, 4.5, 10, 180*24*time.Hour)
	f.addPurchases(coachA, 94, 0)
	f.addDisputes(coachA, 6)

	// Coach B: compliance + critical refund rate + low dispute rate, a very
	// different factor mix.
	coachB := f.addCoach(models.CoachStatusFlagged, 4.5, 10, 180*24*time.Hour)
	f.addPurchases(coachB, 89, 11)
	f.addDisputes(coachB, 1)

	scoreA, err := f.service.ComputeCoachRiskScore(coachA)
	if err != nil {
		t.Fatalf("coach A: %v", err)
	}
	scoreB, err := f.service.ComputeCoachRiskScore(coachB)
	if err != nil {
		t.Fatalf("coach B: %v", err)
	}

	if scoreA.OverallScore != 40 {
		t.Fatalf("coach A overall = %d, want 40", scoreA.OverallScore)
	}

	joinedA := strings.Join(scoreA.Recommendations, " | ")
	joinedB := strings.Join(scoreB.Recommendations, " | ")
	if !strings.Contains(joinedA, "suspending new bookings") {
		t.Fatalf("coach A recommendations missing dispute escalation: %v", scoreA.Recommendations)
	}
	if !strings.Contains(joinedB, "compliance documents") {
		t.Fatalf("coach B recommendations missing compliance step: %v", scoreB.Recommendations)
	}
	if joinedA == joinedB {
		t.Fatalf("different factor sets must not produce identical recommendations")
	}
}

func TestRiskScoreUnknownCoach(t *testing.T) {
	f := newRiskFixture()
	if _, err := f.service.ComputeCoachRiskScore(uuid.New()); !errors.Is(err, ErrCoachNotFound) {
		t.Fatalf("expected ErrCoachNotFound, got %v", err)
	}
}
