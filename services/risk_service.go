package services

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mwangi2684/coachmarket/models"
)

const (
	FactorDisputeRate = "dispute_rate"
	FactorRefundRate  = "refund_rate"
	FactorCompliance  = "compliance"
	FactorLowRating   = "low_rating"
	FactorNewCoach    = "new_coach"

	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

type RiskFactor struct {
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

type RiskScore struct {
	CoachID         uuid.UUID    `json:"coach_id"`
	OverallScore    int          `json:"overall_score"`
	HighRisk        bool         `json:"high_risk"`
	Factors         []RiskFactor `json:"factors"`
	Recommendations []string     `json:"recommendations"`
}

type coachReader interface {
	GetByUserID(userID uuid.UUID) (*models.Coach, error)
}

type purchaseLister interface {
	ListByCoach(coachID uuid.UUID) ([]models.Purchase, error)
}

type disputeLister interface {
	ListByCoach(coachID uuid.UUID) ([]models.Dispute, error)
}

// RiskService is a read-only aggregator over a coach's purchase and dispute
// history. It never mutates anything and is recomputed on demand.
type RiskService struct {
	coachRepo    coachReader
	purchaseRepo purchaseLister
	disputeRepo  disputeLister
	now          func() time.Time
}

func NewRiskService(coachRepo coachReader, purchaseRepo purchaseLister, disputeRepo disputeLister) *RiskService {
	return &RiskService{
		coachRepo:    coachRepo,
		purchaseRepo: purchaseRepo,
		disputeRepo:  disputeRepo,
		now:          time.Now,
	}
}

// Factor weights sum to 100%; factors that do not trigger contribute zero.
var riskWeights = map[string]float64{
	FactorDisputeRate: 0.40,
	FactorRefundRate:  0.20,
	FactorCompliance:  0.20,
	FactorLowRating:   0.10,
	FactorNewCoach:    0.10,
}

func rateTier(rate float64, critical, high, medium float64) (float64, string) {
	switch {
	case rate > critical:
		return 100, SeverityCritical
	case rate > high:
		return 75, SeverityHigh
	case rate > medium:
		return 50, SeverityMedium
	case rate > 0:
		return 25, SeverityLow
	default:
		return 0, ""
	}
}

// ComputeCoachRiskScore aggregates the weighted factors into a 0-100 score.
// Two coaches with the same score get different recommendations when
// different factors fired.
func (s *RiskService) ComputeCoachRiskScore(coachID uuid.UUID) (*RiskScore, error) {
	coach, err := s.coachRepo.GetByUserID(coachID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	purchases, err := s.purchaseRepo.ListByCoach(coachID)
	if err != nil {
		return nil, err
	}
	disputes, err := s.disputeRepo.ListByCoach(coachID)
	if err != nil {
		return nil, err
	}

	var factors []RiskFactor

	if len(purchases) > 0 {
		disputeRate := float64(len(disputes)) / float64(len(purchases)) * 100
		if score, severity := rateTier(disputeRate, 5, 2, 1); score > 0 {
			factors = append(factors, RiskFactor{
				Type:        FactorDisputeRate,
				Severity:    severity,
				Score:       score,
				Description: "chargebacks raised against this coach's sessions",
			})
		}

		refunded := 0
		for _, purchase := range purchases {
			if purchase.Status == models.PurchaseStatusRefunded {
				refunded++
			}
		}
		refundRate := float64(refunded) / float64(len(purchases)) * 100
		if score, severity := rateTier(refundRate, 10, 5, 2); score > 0 {
			factors = append(factors, RiskFactor{
				Type:        FactorRefundRate,
				Severity:    severity,
				Score:       score,
				Description: "purchases fully refunded",
			})
		}
	}

	if coach.Status == models.CoachStatusFlagged || coach.Status == models.CoachStatusRejected {
		factors = append(factors, RiskFactor{
			Type:        FactorCompliance,
			Severity:    SeverityHigh,
			Score:       80,
			Description: "coach account is " + coach.Status,
		})
	}

	if coach.AvgRating < 3.0 && coach.RatingCount >= 5 {
		factors = append(factors, RiskFactor{
			Type:        FactorLowRating,
			Severity:    SeverityMedium,
			Score:       60,
			Description: "average rating below 3.0 with at least 5 ratings",
		})
	}

	if s.now().Sub(coach.CreatedAt) < 30*24*time.Hour && len(purchases) == 0 {
		factors = append(factors, RiskFactor{
			Type:        FactorNewCoach,
			Severity:    SeverityLow,
			Score:       30,
			Description: "coach joined less than 30 days ago and has no purchase history",
		})
	}

	weighted := 0.0
	for _, factor := range factors {
		weighted += factor.Score * riskWeights[factor.Type]
	}
	overall := int(math.Round(weighted))
	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}

	return &RiskScore{
		CoachID:         coachID,
		OverallScore:    overall,
		HighRisk:        overall > 50,
		Factors:         factors,
		Recommendations: recommendations(factors),
	}, nil
}

// recommendations are keyed to which factors fired and how hard, not to the
// overall score.
func recommendations(factors []RiskFactor) []string {
	var recs []string
	for _, factor := range factors {
		switch factor.Type {
		case FactorDisputeRate:
			if factor.Severity == SeverityCritical {
				recs = append(recs, "Dispute rate exceeds 5%: consider suspending new bookings pending review.")
			} else {
				recs = append(recs, "Review recent disputes and the coach's session delivery.")
			}
		case FactorRefundRate:
			if factor.Severity == SeverityCritical || factor.Severity == SeverityHigh {
				recs = append(recs, "Refund rate is elevated: audit cancellation patterns for this coach.")
			} else {
				recs = append(recs, "Monitor refund volume over the next payout cycle.")
			}
		case FactorCompliance:
			recs = append(recs, "Re-verify the coach's compliance documents before the next payout.")
		case FactorLowRating:
			recs = append(recs, "Quality review recommended: sustained low session ratings.")
		case FactorNewCoach:
			recs = append(recs, "New coach with no history: monitor the first completed bookings.")
		}
	}
	if len(recs) == 0 {
		recs = append(recs, "No action required.")
	}
	return recs
}
