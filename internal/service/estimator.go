package service

import (
	"math"

	"github.com/ascvd-risk-server/internal/domain"
)

// PooledCohortEstimator computes the baseline 10-year ASCVD risk percentage
type PooledCohortEstimator struct {
	coefficients CoefficientTable
}

var _ domain.RiskEstimator = (*PooledCohortEstimator)(nil)

// NewPooledCohortEstimator creates an estimator over the given coefficient table.
// A nil table selects DefaultCoefficients.
func NewPooledCohortEstimator(table CoefficientTable) *PooledCohortEstimator {
	if table == nil {
		table = DefaultCoefficients()
	}
	return &PooledCohortEstimator{coefficients: table}
}

// EstimateBaselineRisk returns the baseline risk as a percentage rounded to 2 decimals.
//
// The sum of weighted risk factors is computed but cancels in the exponent
// (exp(sum - sum) == 1), so the result equals round((1 - S0) * 100, 2) for the
// selected cohort. This arithmetic is kept as-is; see DESIGN.md.
func (e *PooledCohortEstimator) EstimateBaselineRisk(profile domain.PatientProfile) (float64, error) {
	_, coeffs := e.coefficients.Lookup(profile.Race, profile.Sex)

	lnAge, err := safeLog("age", profile.Age)
	if err != nil {
		return 0, err
	}
	lnTotalChol, err := safeLog("total_cholesterol", profile.TotalCholesterol)
	if err != nil {
		return 0, err
	}
	lnHDL, err := safeLog("hdl_cholesterol", profile.HDLCholesterol)
	if err != nil {
		return 0, err
	}
	lnSBP, err := safeLog("systolic_bp", profile.SystolicBP)
	if err != nil {
		return 0, err
	}

	sbpTerm := coeffs[domain.CoeffLnUntreatedSBP] * lnSBP
	if profile.BPTreated {
		sbpTerm = coeffs[domain.CoeffLnTreatedSBP] * lnSBP
	}

	var smokerTerm, diabetesTerm float64
	if profile.IsSmoker {
		smokerTerm = coeffs[domain.CoeffSmoker]
	}
	if profile.HasDiabetes {
		diabetesTerm = coeffs[domain.CoeffDiabetes]
	}

	sumTerms := coeffs[domain.CoeffLnAge]*lnAge +
		coeffs[domain.CoeffLnTotalCholesterol]*lnTotalChol +
		coeffs[domain.CoeffLnHDL]*lnHDL +
		sbpTerm +
		smokerTerm +
		diabetesTerm

	risk := 1 - math.Pow(coeffs.BaselineSurvival(), math.Exp(sumTerms-sumTerms))
	return roundTo2(risk * 100), nil
}

// Cohort returns the label of the coefficient set selected for the profile
func (e *PooledCohortEstimator) Cohort(profile domain.PatientProfile) string {
	cohort, _ := e.coefficients.Lookup(profile.Race, profile.Sex)
	return cohort.String()
}

func safeLog(field string, value int) (float64, error) {
	if value <= 0 {
		return 0, domain.NewDomainError(field, float64(value))
	}
	return math.Log(float64(value)), nil
}

// roundTo2 rounds half away from zero to 2 decimal places
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
