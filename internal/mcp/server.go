// Package mcp exposes the risk calculator as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/ascvd-risk-server/internal/domain"
	"github.com/ascvd-risk-server/internal/report"
	"github.com/ascvd-risk-server/internal/service"
)

// Server represents the ASCVD risk MCP server
type Server struct {
	mcpServer  *mcp.Server
	calculator *service.CalculatorService
	evaluator  *service.CalculatorService
	assembler  *report.Assembler
	saveByDef  bool
	logger     *logrus.Logger
}

// NewServer creates the MCP server and registers every tool.
// calculator persists assessments when it carries a repository; saving can
// be switched off per call.
func NewServer(cfg domain.MCPConfig, reportCfg domain.ReportConfig, calculator *service.CalculatorService, logger *logrus.Logger) *Server {
	name := cfg.ServerName
	if name == "" {
		name = "ascvd-risk-mcp-server"
	}
	version := cfg.ServerVersion
	if version == "" {
		version = "v0.1.0"
	}

	s := &Server{
		mcpServer:  mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		calculator: calculator,
		evaluator:  service.NewCalculatorService(logger),
		assembler:  report.NewAssembler(reportCfg),
		saveByDef:  cfg.SaveByDefault,
		logger:     logger,
	}
	s.registerTools()

	return s
}

// MCPServer returns the underlying SDK server
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting ASCVD risk MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: "calculate_ascvd_risk",
		Description: "Estimate 10-year ASCVD risk from a patient profile and auxiliary markers " +
			"(family history, hs-CRP, coronary calcium). Returns baseline and adjusted risk, " +
			"risk category and color.",
	}, s.handleCalculateRisk)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "classify_risk",
		Description: "Map an adjusted 10-year risk percentage to its risk category and color.",
	}, s.handleClassifyRisk)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_assessment",
		Description: "Retrieve a stored risk assessment by ID.",
	}, s.handleGetAssessment)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "assessment_report",
		Description: "Render a stored risk assessment as a plain text or JSON report.",
	}, s.handleAssessmentReport)

	s.logger.WithField("tool_count", 4).Debug("Registered MCP tools")
}

// createErrorResult creates an error tool result
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
