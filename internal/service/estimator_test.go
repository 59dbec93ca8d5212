package service

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascvd-risk-server/internal/domain"
)

func defaultProfile() domain.PatientProfile {
	return domain.PatientProfile{
		Age:              55,
		Sex:              domain.MALE,
		Race:             domain.WHITE,
		TotalCholesterol: 200,
		HDLCholesterol:   50,
		SystolicBP:       130,
	}
}

func TestEstimateBaselineRisk_CohortConstants(t *testing.T) {
	estimator := NewPooledCohortEstimator(nil)

	tests := []struct {
		name     string
		race     domain.Race
		sex      domain.Sex
		expected float64
	}{
		{"White male", domain.WHITE, domain.MALE, 8.56},
		{"White female", domain.WHITE, domain.FEMALE, 3.35},
		{"Black male", domain.BLACK, domain.MALE, 10.46},
		{"Black female", domain.BLACK, domain.FEMALE, 4.67},
		{"Other male uses fallback", domain.OTHER, domain.MALE, 8.56},
		{"Other female uses fallback", domain.OTHER, domain.FEMALE, 8.56},
		{"Unknown race uses fallback", domain.Race("asian"), domain.FEMALE, 8.56},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := defaultProfile()
			profile.Race = tt.race
			profile.Sex = tt.sex

			risk, err := estimator.EstimateBaselineRisk(profile)

			require.NoError(t, err)
			assert.InDelta(t, tt.expected, risk, 1e-9)
		})
	}
}

func TestEstimateBaselineRisk_InvariantToRiskFactors(t *testing.T) {
	estimator := NewPooledCohortEstimator(nil)
	table := DefaultCoefficients()

	for cohort, coeffs := range table {
		if cohort == domain.FallbackCohort {
			continue
		}
		expected := math.Round((1-coeffs.BaselineSurvival())*100*100) / 100

		for _, age := range []int{40, 55, 79} {
			for _, tc := range []int{100, 250, 400} {
				for _, sbp := range []int{90, 200} {
					for _, flags := range []int{0, 1, 2, 3, 4, 5, 6, 7} {
						profile := domain.PatientProfile{
							Age:              age,
							Sex:              cohort.Sex,
							Race:             cohort.Race,
							TotalCholesterol: tc,
							HDLCholesterol:   20 + age,
							SystolicBP:       sbp,
							BPTreated:        flags&1 != 0,
							HasDiabetes:      flags&2 != 0,
							IsSmoker:         flags&4 != 0,
						}

						risk, err := estimator.EstimateBaselineRisk(profile)

						require.NoError(t, err)
						assert.InDelta(t, expected, risk, 1e-9, "cohort %s profile %+v", cohort, profile)
					}
				}
			}
		}
	}
}

func TestEstimateBaselineRisk_DomainError(t *testing.T) {
	estimator := NewPooledCohortEstimator(nil)

	tests := []struct {
		name   string
		mutate func(p *domain.PatientProfile)
		field  string
	}{
		{"Zero age", func(p *domain.PatientProfile) { p.Age = 0 }, "age"},
		{"Negative total cholesterol", func(p *domain.PatientProfile) { p.TotalCholesterol = -1 }, "total_cholesterol"},
		{"Zero HDL", func(p *domain.PatientProfile) { p.HDLCholesterol = 0 }, "hdl_cholesterol"},
		{"Negative systolic BP", func(p *domain.PatientProfile) { p.SystolicBP = -120 }, "systolic_bp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := defaultProfile()
			tt.mutate(&profile)

			_, err := estimator.EstimateBaselineRisk(profile)

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrDomain))

			var domainErr *domain.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, tt.field, domainErr.Field)
		})
	}
}

func TestCoefficientTable_Lookup(t *testing.T) {
	table := DefaultCoefficients()

	cohort, coeffs := table.Lookup(domain.BLACK, domain.FEMALE)
	assert.Equal(t, domain.Cohort{Race: domain.BLACK, Sex: domain.FEMALE}, cohort)
	assert.Equal(t, 29.291, coeffs[domain.CoeffLnTreatedSBP])
	assert.Equal(t, 27.82, coeffs[domain.CoeffLnUntreatedSBP])

	cohort, coeffs = table.Lookup(domain.OTHER, domain.FEMALE)
	assert.Equal(t, domain.FallbackCohort, cohort)
	assert.Equal(t, "fallback", cohort.String())
	assert.Equal(t, table[domain.Cohort{Race: domain.WHITE, Sex: domain.MALE}], coeffs)

	// Unknown sex with a known race also falls back
	cohort, _ = table.Lookup(domain.WHITE, domain.Sex("unknown"))
	assert.Equal(t, domain.FallbackCohort, cohort)
}

func TestEstimator_Cohort(t *testing.T) {
	estimator := NewPooledCohortEstimator(nil)

	profile := defaultProfile()
	assert.Equal(t, "white/male", estimator.Cohort(profile))

	profile.Race = domain.OTHER
	assert.Equal(t, "fallback", estimator.Cohort(profile))
}

func TestEstimator_CustomTable(t *testing.T) {
	table := CoefficientTable{
		domain.FallbackCohort: {0, 0, 0, 0, 0, 0, 0, 0.5},
	}
	estimator := NewPooledCohortEstimator(table)

	risk, err := estimator.EstimateBaselineRisk(defaultProfile())

	require.NoError(t, err)
	assert.InDelta(t, 50.0, risk, 1e-9)
}

func TestRiskPipeline_ThroughDomainInterfaces(t *testing.T) {
	var (
		estimator  domain.RiskEstimator  = NewPooledCohortEstimator(nil)
		adjuster   domain.RiskAdjuster   = NewMarkerAdjuster()
		classifier domain.RiskClassifier = NewBandClassifier()
	)

	baseline, err := estimator.EstimateBaselineRisk(defaultProfile())
	require.NoError(t, err)
	assert.Equal(t, 8.56, baseline)

	adjusted := adjuster.ApplyAdjustments(baseline, domain.AuxiliaryMarkers{FamilyHistory: true, HSCRP: 3, CACScore: 150})
	assert.InDelta(t, 16.56, adjusted, 1e-9)

	category, color := classifier.Classify(adjusted)
	assert.Equal(t, domain.INTERMEDIATE_RISK, category)
	assert.Equal(t, domain.COLOR_ORANGE, color)
}
