package domain

import (
	"context"
)

// RiskEstimator maps demographic and clinical inputs to a baseline percentage risk
type RiskEstimator interface {
	EstimateBaselineRisk(profile PatientProfile) (float64, error)
}

// RiskAdjuster applies auxiliary marker corrections to a baseline risk
type RiskAdjuster interface {
	ApplyAdjustments(baselineRisk float64, markers AuxiliaryMarkers) float64
}

// RiskClassifier maps an adjusted percentage to a risk band and color token
type RiskClassifier interface {
	Classify(adjustedRisk float64) (RiskCategory, string)
}

// AssessmentRepository defines the interface for assessment persistence
type AssessmentRepository interface {
	Save(ctx context.Context, assessment *Assessment) error
	Get(ctx context.Context, id string) (*Assessment, error)
	List(ctx context.Context, limit, offset int) ([]*Assessment, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetDatabaseURL() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
