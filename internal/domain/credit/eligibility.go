package credit

import "time"

type Tier string

const (
	TierPrime    Tier = "prime"
	TierStandard Tier = "standard"
	TierSubprime Tier = "subprime"
	TierRejected Tier = "rejected"
)

const (
	standardRateFloor = 12.0
	subprimeRateFloor = 16.0

	// Share of monthly income that all active installments may take.
	affordabilityShare = 0.5
)

type Reason string

const (
	RejectLowCreditScore   Reason = "low credit score"
	RejectHighExistingDebt Reason = "high existing debt"
)

type Decision struct {
	CustomerID            int64
	Approved              bool
	Score                 Breakdown
	Tier                  Tier
	InterestRate          float64
	CorrectedInterestRate float64
	Tenure                int
	MonthlyInstallment    float64
	ActiveInstallments    float64
	Reason                Reason
}

// TierFor maps a score onto its approval tier.
//
//	score > 50        prime, rate unchanged
//	30 < score <= 50  standard, rate floored to 12
//	10 < score <= 30  subprime, rate floored to 16
//	score <= 10       rejected
func TierFor(score float64) Tier {
	switch {
	case score > 50:
		return TierPrime
	case score > 30:
		return TierStandard
	case score > 10:
		return TierSubprime
	default:
		return TierRejected
	}
}

// CorrectedRate applies the tier's rate floor to the requested rate.
func (t Tier) CorrectedRate(requested float64) float64 {
	switch t {
	case TierStandard:
		if requested <= standardRateFloor {
			return standardRateFloor
		}
	case TierSubprime:
		if requested <= subprimeRateFloor {
			return subprimeRateFloor
		}
	}
	return requested
}

// Evaluate decides whether req can be granted to the customer described by profile.
// It is a pure function of its inputs.
func Evaluate(profile Profile, history []LoanRecord, req Request, today time.Time) Decision {
	score := Score(history, profile.ApprovedLimit, today)
	tier := TierFor(score.Total)
	rate := tier.CorrectedRate(req.InterestRate)
	installment := MonthlyInstallment(req.LoanAmount, rate, req.Tenure)

	var active float64
	for _, l := range history {
		if l.IsActive(today) {
			active += l.MonthlyInstallment
		}
	}

	d := Decision{
		CustomerID:            req.CustomerID,
		Approved:              tier != TierRejected,
		Score:                 score,
		Tier:                  tier,
		InterestRate:          req.InterestRate,
		CorrectedInterestRate: rate,
		Tenure:                req.Tenure,
		MonthlyInstallment:    installment,
		ActiveInstallments:    active,
	}
	if !d.Approved {
		d.Reason = RejectLowCreditScore
	}

	if active+installment > affordabilityShare*profile.MonthlyIncome {
		if d.Approved {
			d.Reason = RejectHighExistingDebt
		}
		d.Approved = false
	}
	return d
}
