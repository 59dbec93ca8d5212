package service

import (
	"math"

	"github.com/ascvd-risk-server/internal/domain"
)

// Adjustment thresholds and deltas for auxiliary markers
const (
	FamilyHistoryDelta = 2.0
	HSCRPThreshold     = 2.0
	HSCRPDelta         = 1.0
	CACHighThreshold   = 100
	CACDelta           = 5.0
)

// MarkerAdjuster applies additive corrections from auxiliary markers
type MarkerAdjuster struct{}

var _ domain.RiskAdjuster = (*MarkerAdjuster)(nil)

// NewMarkerAdjuster creates a new marker adjuster
func NewMarkerAdjuster() *MarkerAdjuster {
	return &MarkerAdjuster{}
}

// ApplyAdjustments returns the adjusted risk rounded to 2 decimals.
// A CAC score above 100 adds 5; a CAC score of exactly 0 subtracts 5 floored
// at 0; scores from 1 to 100 leave the risk unchanged.
func (a *MarkerAdjuster) ApplyAdjustments(baselineRisk float64, markers domain.AuxiliaryMarkers) float64 {
	adjusted := baselineRisk

	if markers.FamilyHistory {
		adjusted += FamilyHistoryDelta
	}
	if markers.HSCRP > HSCRPThreshold {
		adjusted += HSCRPDelta
	}
	if markers.CACScore > CACHighThreshold {
		adjusted += CACDelta
	} else if markers.CACScore == 0 {
		adjusted = math.Max(adjusted-CACDelta, 0)
	}

	return roundTo2(adjusted)
}
