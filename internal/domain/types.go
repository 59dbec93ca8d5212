// Package domain contains core entities and types for 10-year atherosclerotic
// cardiovascular disease (ASCVD) risk estimation modeled on the ACC/AHA Pooled
// Cohort Equations, with secondary adjustments from auxiliary risk markers.
//
// Reference: Goff DC Jr, et al. (2014) 2013 ACC/AHA guideline on the assessment
// of cardiovascular risk. Circulation. 129(25 Suppl 2):S49-73.
package domain

import (
	"fmt"
	"time"
)

// Sex represents the biological sex used to select a coefficient set
type Sex string

const (
	MALE   Sex = "male"
	FEMALE Sex = "female"
)

// Race represents the race category used to select a coefficient set.
// Any value other than WHITE or BLACK selects the fallback cohort.
type Race string

const (
	WHITE Race = "white"
	BLACK Race = "black"
	OTHER Race = "other"
)

// RiskCategory represents the 10-year ASCVD risk band
type RiskCategory string

const (
	LOW_RISK          RiskCategory = "Low Risk (<5%)"
	BORDERLINE_RISK   RiskCategory = "Borderline Risk (5–7.5%)"
	INTERMEDIATE_RISK RiskCategory = "Intermediate Risk (7.5–20%)"
	HIGH_RISK         RiskCategory = "High Risk (≥20%)"
)

// String returns the display label of the category
func (c RiskCategory) String() string {
	return string(c)
}

// Presentation color tokens for risk categories
const (
	COLOR_GREEN  = "green"
	COLOR_YELLOW = "yellow"
	COLOR_ORANGE = "orange"
	COLOR_RED    = "red"
)

// PatientProfile holds the demographic and clinical inputs of a risk estimate.
// Ranges are enforced at the boundary by the caller, not by the estimator.
type PatientProfile struct {
	Age              int  `json:"age" validate:"min=40,max=79"`
	Sex              Sex  `json:"sex" validate:"required,oneof=male female"`
	Race             Race `json:"race" validate:"required,oneof=white black other"`
	TotalCholesterol int  `json:"total_cholesterol" validate:"min=100,max=400"`
	HDLCholesterol   int  `json:"hdl_cholesterol" validate:"min=20,max=100"`
	SystolicBP       int  `json:"systolic_bp" validate:"min=90,max=200"`
	BPTreated        bool `json:"bp_treated"`
	HasDiabetes      bool `json:"has_diabetes"`
	IsSmoker         bool `json:"is_smoker"`
}

// AuxiliaryMarkers holds the optional markers used to adjust the baseline risk
type AuxiliaryMarkers struct {
	FamilyHistory bool    `json:"family_history"`
	HSCRP         float64 `json:"hs_crp" validate:"gte=0,lte=10"`
	CACScore      int     `json:"cac_score" validate:"gte=0,lte=1000"`
}

// CoefficientIndex names the positions of a CoefficientSet
const (
	CoeffLnAge = iota
	CoeffLnTotalCholesterol
	CoeffLnHDL
	CoeffLnTreatedSBP
	CoeffLnUntreatedSBP
	CoeffSmoker
	CoeffDiabetes
	CoeffBaselineSurvival
)

// CoefficientSet is the ordered 8-tuple of Pooled Cohort Equation coefficients
// for one cohort. The last element is the cohort's baseline 10-year survival.
type CoefficientSet [8]float64

// BaselineSurvival returns the cohort's baseline survival coefficient
func (c CoefficientSet) BaselineSurvival() float64 {
	return c[CoeffBaselineSurvival]
}

// Cohort identifies a (race, sex) coefficient table entry
type Cohort struct {
	Race Race `json:"race"`
	Sex  Sex  `json:"sex"`
}

// FallbackCohort is the table key used for any (race, sex) pair without an exact entry
var FallbackCohort = Cohort{Race: "*", Sex: "*"}

// String returns the cohort label, e.g. "white/male" or "fallback"
func (c Cohort) String() string {
	if c == FallbackCohort {
		return "fallback"
	}
	return fmt.Sprintf("%s/%s", c.Race, c.Sex)
}

// RiskResult is the outcome of one calculation
type RiskResult struct {
	BaselineRiskPercent float64      `json:"baseline_risk_percent"`
	AdjustedRiskPercent float64      `json:"adjusted_risk_percent"`
	Category            RiskCategory `json:"category"`
	CategoryColor       string       `json:"category_color"`
}

// Assessment is the structured record of a calculation handed to report
// collaborators and persisted in history
type Assessment struct {
	ID        string           `json:"id"`
	Profile   PatientProfile   `json:"profile"`
	Markers   AuxiliaryMarkers `json:"markers"`
	Cohort    string           `json:"cohort"`
	Result    RiskResult       `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}
