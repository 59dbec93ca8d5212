package mcp

import (
	"bytes"
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/ascvd-risk-server/internal/domain"
	"github.com/ascvd-risk-server/internal/report"
)

// CalculateRiskParams defines parameters for the calculate_ascvd_risk tool
type CalculateRiskParams struct {
	Profile domain.PatientProfile   `json:"profile"`
	Markers domain.AuxiliaryMarkers `json:"markers"`
	Save    *bool                   `json:"save,omitempty"`
}

// CalculateRiskResult defines the result of the calculate_ascvd_risk tool
type CalculateRiskResult struct {
	Assessment *domain.Assessment `json:"assessment"`
	Summary    string             `json:"summary"`
	Saved      bool               `json:"saved"`
}

// ClassifyRiskParams defines parameters for the classify_risk tool
type ClassifyRiskParams struct {
	AdjustedRiskPercent float64 `json:"adjusted_risk_percent"`
}

// ClassifyRiskResult defines the result of the classify_risk tool
type ClassifyRiskResult struct {
	AdjustedRiskPercent float64             `json:"adjusted_risk_percent"`
	Category            domain.RiskCategory `json:"category"`
	CategoryColor       string              `json:"category_color"`
}

// GetAssessmentParams identifies a stored assessment
type GetAssessmentParams struct {
	ID string `json:"id"`
}

// AssessmentReportParams selects a stored assessment and report format
type AssessmentReportParams struct {
	ID     string `json:"id"`
	Format string `json:"format,omitempty"` // "text" (default) or "json"
}

// handleCalculateRisk handles the calculate_ascvd_risk tool invocation
func (s *Server) handleCalculateRisk(ctx context.Context, req *mcp.CallToolRequest, params CalculateRiskParams) (*mcp.CallToolResult, any, error) {
	save := s.saveByDef
	if params.Save != nil {
		save = *params.Save
	}
	s.logger.WithFields(logrus.Fields{
		"tool": "calculate_ascvd_risk",
		"save": save,
	}).Info("Tool invoked")

	calc := s.evaluator
	if save {
		calc = s.calculator
	}

	assessment, err := calc.Calculate(ctx, params.Profile, params.Markers)
	if err != nil {
		var validationErrs domain.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			return s.createErrorResult("Invalid patient inputs", validationErrs), nil, nil
		case errors.Is(err, domain.ErrDomain):
			return s.createErrorResult("Input outside the domain of the risk equation", err), nil, nil
		default:
			return s.createErrorResult("Risk calculation failed", err), nil, nil
		}
	}

	result := CalculateRiskResult{
		Assessment: assessment,
		Summary:    report.Summary(assessment),
		Saved:      save && calc.HasRepository(),
	}

	return textResult(result.Summary + "\n" + report.InitialRiskLine(assessment)), result, nil
}

// handleClassifyRisk handles the classify_risk tool invocation
func (s *Server) handleClassifyRisk(ctx context.Context, req *mcp.CallToolRequest, params ClassifyRiskParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "classify_risk").Info("Tool invoked")

	category, color := s.evaluator.Classify(params.AdjustedRiskPercent)
	result := ClassifyRiskResult{
		AdjustedRiskPercent: params.AdjustedRiskPercent,
		Category:            category,
		CategoryColor:       color,
	}

	return textResult(report.FormatNumber(params.AdjustedRiskPercent) + "%: " + string(category)), result, nil
}

// handleGetAssessment handles the get_assessment tool invocation
func (s *Server) handleGetAssessment(ctx context.Context, req *mcp.CallToolRequest, params GetAssessmentParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":          "get_assessment",
		"assessment_id": params.ID,
	}).Info("Tool invoked")

	assessment, errResult := s.lookup(ctx, params.ID)
	if errResult != nil {
		return errResult, nil, nil
	}

	return textResult(report.Summary(assessment)), assessment, nil
}

// handleAssessmentReport handles the assessment_report tool invocation
func (s *Server) handleAssessmentReport(ctx context.Context, req *mcp.CallToolRequest, params AssessmentReportParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":          "assessment_report",
		"assessment_id": params.ID,
		"format":        params.Format,
	}).Info("Tool invoked")

	format := report.FormatText
	if params.Format != "" {
		f, err := report.ParseFormat(params.Format)
		if err != nil {
			return s.createErrorResult("Unsupported format", err), nil, nil
		}
		format = f
	}
	if format != report.FormatText && format != report.FormatJSON {
		return s.createErrorResult("Only text and json reports are available over MCP", nil), nil, nil
	}

	assessment, errResult := s.lookup(ctx, params.ID)
	if errResult != nil {
		return errResult, nil, nil
	}

	var buf bytes.Buffer
	if err := s.assembler.Render(&buf, format, assessment); err != nil {
		return s.createErrorResult("Failed to render report", err), nil, nil
	}

	return textResult(buf.String()), nil, nil
}

func (s *Server) lookup(ctx context.Context, id string) (*domain.Assessment, *mcp.CallToolResult) {
	if id == "" {
		return nil, s.createErrorResult("Missing required parameter", errors.New("id is required"))
	}

	assessment, err := s.calculator.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, s.createErrorResult("Assessment not found", err)
	}
	if err != nil {
		return nil, s.createErrorResult("Failed to load assessment", err)
	}
	return assessment, nil
}
