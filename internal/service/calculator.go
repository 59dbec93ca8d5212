package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ascvd-risk-server/internal/domain"
	"github.com/ascvd-risk-server/internal/metrics"
)

// CalculatorService runs the full assessment pipeline:
// validate, estimate, adjust, classify, record.
type CalculatorService struct {
	logger     *logrus.Logger
	estimator  *PooledCohortEstimator
	adjuster   domain.RiskAdjuster
	classifier domain.RiskClassifier
	repository domain.AssessmentRepository
	metrics    *metrics.Metrics
	now        func() time.Time
}

// CalculatorOption configures a CalculatorService
type CalculatorOption func(*CalculatorService)

// WithRepository persists every successful assessment
func WithRepository(repo domain.AssessmentRepository) CalculatorOption {
	return func(c *CalculatorService) {
		c.repository = repo
	}
}

// WithMetrics records assessment outcomes
func WithMetrics(m *metrics.Metrics) CalculatorOption {
	return func(c *CalculatorService) {
		c.metrics = m
	}
}

// WithCoefficients replaces the default coefficient table
func WithCoefficients(table CoefficientTable) CalculatorOption {
	return func(c *CalculatorService) {
		c.estimator = NewPooledCohortEstimator(table)
	}
}

// WithClock overrides the assessment timestamp source
func WithClock(now func() time.Time) CalculatorOption {
	return func(c *CalculatorService) {
		c.now = now
	}
}

// NewCalculatorService creates a new calculator service
func NewCalculatorService(logger *logrus.Logger, opts ...CalculatorOption) *CalculatorService {
	c := &CalculatorService{
		logger:     logger,
		estimator:  NewPooledCohortEstimator(nil),
		adjuster:   NewMarkerAdjuster(),
		classifier: NewBandClassifier(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate runs the pure computation stages and returns the result with the
// selected cohort label. Inputs are not range-validated here.
func (c *CalculatorService) Evaluate(profile domain.PatientProfile, markers domain.AuxiliaryMarkers) (domain.RiskResult, string, error) {
	baseline, err := c.estimator.EstimateBaselineRisk(profile)
	if err != nil {
		return domain.RiskResult{}, "", err
	}

	adjusted := c.adjuster.ApplyAdjustments(baseline, markers)
	category, color := c.classifier.Classify(adjusted)

	return domain.RiskResult{
		BaselineRiskPercent: baseline,
		AdjustedRiskPercent: adjusted,
		Category:            category,
		CategoryColor:       color,
	}, c.estimator.Cohort(profile), nil
}

// Calculate validates the inputs, runs the pipeline and records the assessment
func (c *CalculatorService) Calculate(ctx context.Context, profile domain.PatientProfile, markers domain.AuxiliaryMarkers) (*domain.Assessment, error) {
	startTime := time.Now()

	if err := ValidateInputs(profile, markers); err != nil {
		c.metrics.IncrementError("validation")
		c.logger.WithError(err).Debug("Rejected assessment input")
		return nil, fmt.Errorf("invalid input parameters: %w", err)
	}

	result, cohort, err := c.Evaluate(profile, markers)
	if err != nil {
		c.metrics.IncrementError("domain")
		c.logger.WithError(err).Warn("Baseline risk estimation failed")
		return nil, fmt.Errorf("estimating baseline risk: %w", err)
	}

	assessment := &domain.Assessment{
		ID:        uuid.New().String(),
		Profile:   profile,
		Markers:   markers,
		Cohort:    cohort,
		Result:    result,
		CreatedAt: c.now().UTC(),
	}

	if c.repository != nil {
		if err := c.repository.Save(ctx, assessment); err != nil {
			c.metrics.IncrementError("storage")
			c.logger.WithError(err).WithField("assessment_id", assessment.ID).Error("Failed to save assessment")
			return nil, fmt.Errorf("%w: saving assessment: %w", domain.ErrStorageFailure, err)
		}
	}

	c.metrics.IncrementOutcome(string(result.Category), cohort, result.AdjustedRiskPercent)
	c.metrics.ObserveCalculateLatency(time.Since(startTime))

	c.logger.WithFields(logrus.Fields{
		"assessment_id":   assessment.ID,
		"cohort":          cohort,
		"baseline_risk":   result.BaselineRiskPercent,
		"adjusted_risk":   result.AdjustedRiskPercent,
		"category":        result.Category,
		"processing_time": time.Since(startTime),
	}).Info("Risk assessment completed")

	return assessment, nil
}

// Classify exposes the band lookup for callers holding an adjusted percentage
func (c *CalculatorService) Classify(adjustedRisk float64) (domain.RiskCategory, string) {
	return c.classifier.Classify(adjustedRisk)
}

// Get retrieves a stored assessment by ID
func (c *CalculatorService) Get(ctx context.Context, id string) (*domain.Assessment, error) {
	if c.repository == nil {
		return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	assessment, err := c.repository.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		c.logger.WithError(err).WithField("assessment_id", id).Error("Failed to load assessment")
		return nil, fmt.Errorf("%w: loading assessment: %w", domain.ErrStorageFailure, err)
	}
	return assessment, nil
}

// List returns stored assessments newest first together with the total count
func (c *CalculatorService) List(ctx context.Context, limit, offset int) ([]*domain.Assessment, int64, error) {
	if c.repository == nil {
		return []*domain.Assessment{}, 0, nil
	}
	items, err := c.repository.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing assessments: %w", domain.ErrStorageFailure, err)
	}
	total, err := c.repository.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: counting assessments: %w", domain.ErrStorageFailure, err)
	}
	return items, total, nil
}

// Delete removes a stored assessment
func (c *CalculatorService) Delete(ctx context.Context, id string) error {
	if c.repository == nil {
		return fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	if err := c.repository.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: deleting assessment: %w", domain.ErrStorageFailure, err)
	}
	c.logger.WithField("assessment_id", id).Info("Assessment deleted")
	return nil
}

// HasRepository reports whether assessments are persisted
func (c *CalculatorService) HasRepository() bool {
	return c.repository != nil
}
