package service

import (
	"github.com/ascvd-risk-server/internal/domain"
)

// CoefficientTable maps a (race, sex) cohort to its coefficient set.
// It must contain an entry for domain.FallbackCohort.
type CoefficientTable map[domain.Cohort]domain.CoefficientSet

var whiteMaleCoefficients = domain.CoefficientSet{12.344, 11.853, -7.99, 1.797, 1.764, 7.837, 0.658, 0.9144}

// DefaultCoefficients returns the Pooled Cohort Equation coefficient table.
// The fallback entry equals white/male and applies to any unmatched race
// regardless of sex; it is a simplification, not a clinical claim.
func DefaultCoefficients() CoefficientTable {
	return CoefficientTable{
		{Race: domain.WHITE, Sex: domain.MALE}:   whiteMaleCoefficients,
		{Race: domain.WHITE, Sex: domain.FEMALE}: {-29.799, 13.54, -13.578, 2.019, 1.957, 7.574, 0.661, 0.9665},
		{Race: domain.BLACK, Sex: domain.MALE}:   {2.469, 0.302, -0.307, 1.916, 1.809, 0.549, 0.645, 0.8954},
		{Race: domain.BLACK, Sex: domain.FEMALE}: {17.114, 0.940, -18.920, 29.291, 27.82, 0.691, 0.874, 0.9533},
		domain.FallbackCohort:                    whiteMaleCoefficients,
	}
}

// Lookup selects the coefficient set by exact (race, sex) match, falling back
// to the FallbackCohort entry. The returned cohort is the matched table key.
func (t CoefficientTable) Lookup(race domain.Race, sex domain.Sex) (domain.Cohort, domain.CoefficientSet) {
	key := domain.Cohort{Race: race, Sex: sex}
	if coeffs, ok := t[key]; ok {
		return key, coeffs
	}
	return domain.FallbackCohort, t[domain.FallbackCohort]
}
