package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascvd-risk-server/internal/domain"
	"github.com/ascvd-risk-server/internal/history"
	"github.com/ascvd-risk-server/internal/service"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests
	return logger
}

func newTestServer(t *testing.T, saveByDefault bool) (*Server, *history.SQLiteStore) {
	t.Helper()
	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := testLogger()
	calc := service.NewCalculatorService(logger, service.WithRepository(store))
	s := NewServer(domain.MCPConfig{SaveByDefault: saveByDefault}, domain.ReportConfig{}, calc, logger)
	return s, store
}

func samplePatient() CalculateRiskParams {
	return CalculateRiskParams{
		Profile: domain.PatientProfile{
			Age:              55,
			Sex:              domain.MALE,
			Race:             domain.WHITE,
			TotalCholesterol: 200,
			HDLCholesterol:   50,
			SystolicBP:       130,
			BPTreated:        true,
		},
		Markers: domain.AuxiliaryMarkers{FamilyHistory: true, HSCRP: 3.0, CACScore: 150},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestNewServer(t *testing.T) {
	s, _ := newTestServer(t, false)

	assert.NotNil(t, s.MCPServer())
	assert.NotNil(t, s.logger)
	assert.False(t, s.evaluator.HasRepository())
	assert.True(t, s.calculator.HasRepository())
}

func TestHandleCalculateRisk(t *testing.T) {
	s, store := newTestServer(t, false)
	ctx := context.Background()

	result, out, err := s.handleCalculateRisk(ctx, nil, samplePatient())
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "16.56%")

	calc, ok := out.(CalculateRiskResult)
	require.True(t, ok)
	assert.Equal(t, 8.56, calc.Assessment.Result.BaselineRiskPercent)
	assert.Equal(t, domain.INTERMEDIATE_RISK, calc.Assessment.Result.Category)
	assert.False(t, calc.Saved)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "save defaults to off")
}

func TestHandleCalculateRisk_Save(t *testing.T) {
	s, store := newTestServer(t, false)
	ctx := context.Background()

	params := samplePatient()
	save := true
	params.Save = &save

	_, out, err := s.handleCalculateRisk(ctx, nil, params)
	require.NoError(t, err)

	calc := out.(CalculateRiskResult)
	assert.True(t, calc.Saved)

	stored, err := store.Get(ctx, calc.Assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, 16.56, stored.Result.AdjustedRiskPercent)
}

func TestHandleCalculateRisk_SaveByDefault(t *testing.T) {
	s, store := newTestServer(t, true)
	ctx := context.Background()

	_, _, err := s.handleCalculateRisk(ctx, nil, samplePatient())
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestHandleCalculateRisk_InvalidInput(t *testing.T) {
	s, _ := newTestServer(t, false)

	params := samplePatient()
	params.Profile.Age = 90
	params.Profile.Race = "asian"

	result, out, err := s.handleCalculateRisk(context.Background(), nil, params)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.True(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Invalid patient inputs")
	assert.Contains(t, text, "age")
	assert.Contains(t, text, "race")
}

func TestHandleClassifyRisk(t *testing.T) {
	s, _ := newTestServer(t, false)

	tests := []struct {
		pct      float64
		category domain.RiskCategory
		color    string
	}{
		{0, domain.LOW_RISK, domain.COLOR_GREEN},
		{6, domain.BORDERLINE_RISK, domain.COLOR_YELLOW},
		{19.99, domain.INTERMEDIATE_RISK, domain.COLOR_ORANGE},
		{35, domain.HIGH_RISK, domain.COLOR_RED},
	}

	for _, tt := range tests {
		result, out, err := s.handleClassifyRisk(context.Background(), nil, ClassifyRiskParams{AdjustedRiskPercent: tt.pct})
		require.NoError(t, err)
		assert.Contains(t, resultText(t, result), string(tt.category))

		classified := out.(ClassifyRiskResult)
		assert.Equal(t, tt.category, classified.Category)
		assert.Equal(t, tt.color, classified.CategoryColor)
	}
}

func TestHandleGetAssessment(t *testing.T) {
	s, _ := newTestServer(t, true)
	ctx := context.Background()

	_, out, err := s.handleCalculateRisk(ctx, nil, samplePatient())
	require.NoError(t, err)
	id := out.(CalculateRiskResult).Assessment.ID

	result, got, err := s.handleGetAssessment(ctx, nil, GetAssessmentParams{ID: id})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, id, got.(*domain.Assessment).ID)

	result, got, err = s.handleGetAssessment(ctx, nil, GetAssessmentParams{ID: "missing"})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not found")

	result, _, err = s.handleGetAssessment(ctx, nil, GetAssessmentParams{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleAssessmentReport(t *testing.T) {
	s, _ := newTestServer(t, true)
	ctx := context.Background()

	_, out, err := s.handleCalculateRisk(ctx, nil, samplePatient())
	require.NoError(t, err)
	id := out.(CalculateRiskResult).Assessment.ID

	result, _, err := s.handleAssessmentReport(ctx, nil, AssessmentReportParams{ID: id})
	require.NoError(t, err)
	text := resultText(t, result)
	assert.True(t, strings.HasPrefix(text, "ASCVD 10-Year Risk Report"))
	assert.Contains(t, text, "Final Adjusted Risk: 16.56%")

	result, _, err = s.handleAssessmentReport(ctx, nil, AssessmentReportParams{ID: id, Format: "json"})
	require.NoError(t, err)
	var decoded domain.Assessment
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, id, decoded.ID)

	result, _, err = s.handleAssessmentReport(ctx, nil, AssessmentReportParams{ID: id, Format: "pdf"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
