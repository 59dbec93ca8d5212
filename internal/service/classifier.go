package service

import (
	"github.com/ascvd-risk-server/internal/domain"
)

// RiskBand is one half-open [Lower, Upper) percentage band
type RiskBand struct {
	Upper    float64
	Category domain.RiskCategory
	Color    string
}

// riskBands are ordered by upper bound; anything past the last bound is HIGH_RISK
var riskBands = []RiskBand{
	{Upper: 5, Category: domain.LOW_RISK, Color: domain.COLOR_GREEN},
	{Upper: 7.5, Category: domain.BORDERLINE_RISK, Color: domain.COLOR_YELLOW},
	{Upper: 20, Category: domain.INTERMEDIATE_RISK, Color: domain.COLOR_ORANGE},
}

// BandClassifier maps adjusted risk percentages to categories
type BandClassifier struct{}

var _ domain.RiskClassifier = (*BandClassifier)(nil)

// NewBandClassifier creates a new band classifier
func NewBandClassifier() *BandClassifier {
	return &BandClassifier{}
}

// Classify returns the category and color token for an adjusted risk.
// Band lower bounds are inclusive: 5.0 is Borderline, 7.5 Intermediate, 20.0 High.
func (c *BandClassifier) Classify(adjustedRisk float64) (domain.RiskCategory, string) {
	for _, band := range riskBands {
		if adjustedRisk < band.Upper {
			return band.Category, band.Color
		}
	}
	return domain.HIGH_RISK, domain.COLOR_RED
}
