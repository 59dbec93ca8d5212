package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ascvd-risk-server/internal/cache"
	"github.com/ascvd-risk-server/internal/domain"
	"github.com/ascvd-risk-server/internal/middleware"
	"github.com/ascvd-risk-server/internal/report"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// AssessmentRequest is the body of POST /api/v1/assessments
type AssessmentRequest struct {
	Profile *domain.PatientProfile  `json:"profile" binding:"required"`
	Markers domain.AuxiliaryMarkers `json:"markers"`
}

// AssessmentResponse wraps an assessment with its one-line summary
type AssessmentResponse struct {
	Assessment *domain.Assessment `json:"assessment"`
	Summary    string             `json:"summary"`
}

// AssessmentListResponse is one page of stored assessments
type AssessmentListResponse struct {
	Items  []*domain.Assessment `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// ClassifyRequest is the body of POST /api/v1/classify
type ClassifyRequest struct {
	AdjustedRiskPercent *float64 `json:"adjusted_risk_percent" binding:"required"`
}

// ClassifyResponse reports the band for a percentage
type ClassifyResponse struct {
	AdjustedRiskPercent float64             `json:"adjusted_risk_percent"`
	Category            domain.RiskCategory `json:"category"`
	CategoryColor       string              `json:"category_color"`
}

func (s *Server) handleCreateAssessment(c *gin.Context) {
	var req AssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid request body", err)
		return
	}

	assessment, err := s.calculator.Calculate(c.Request.Context(), *req.Profile, req.Markers)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.Header("Location", "/api/v1/assessments/"+assessment.ID)
	c.JSON(http.StatusCreated, AssessmentResponse{
		Assessment: assessment,
		Summary:    report.Summary(assessment),
	})
}

func (s *Server) handleListAssessments(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageLimit)
	if err != nil || limit < 1 || limit > maxPageLimit {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "limit must be between 1 and 200", err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "offset must be a non-negative integer", err)
		return
	}

	items, total, err := s.calculator.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}
	if items == nil {
		items = []*domain.Assessment{}
	}

	c.JSON(http.StatusOK, AssessmentListResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) handleGetAssessment(c *gin.Context) {
	assessment, err := s.calculator.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, AssessmentResponse{
		Assessment: assessment,
		Summary:    report.Summary(assessment),
	})
}

func (s *Server) handleDeleteAssessment(c *gin.Context) {
	id := c.Param("id")
	if err := s.calculator.Delete(c.Request.Context(), id); err != nil {
		s.handleServiceError(c, err)
		return
	}

	if s.reportCache != nil {
		for _, format := range []report.Format{report.FormatPDF, report.FormatChart, report.FormatText, report.FormatJSON} {
			if err := s.reportCache.Delete(c.Request.Context(), cache.Key(id, string(format))); err != nil {
				s.logger.WithError(err).WithField("assessment_id", id).Warn("Failed to evict cached report")
			}
		}
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) handleReport(c *gin.Context) {
	format, err := report.ParseFormat(c.DefaultQuery("format", string(report.FormatText)))
	if err != nil {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Unsupported report format", err)
		return
	}
	s.serveReport(c, format)
}

func (s *Server) handlePDFReport(c *gin.Context) {
	s.serveReport(c, report.FormatPDF)
}

func (s *Server) handleChart(c *gin.Context) {
	s.serveReport(c, report.FormatChart)
}

// serveReport renders an assessment, reading through the report cache
func (s *Server) serveReport(c *gin.Context, format report.Format) {
	ctx := c.Request.Context()
	id := c.Param("id")

	assessment, err := s.calculator.Get(ctx, id)
	if err != nil {
		s.handleServiceError(c, err)
		return
	}

	key := cache.Key(id, string(format))
	cacheResult := "bypass"
	var body []byte

	if s.reportCache != nil {
		data, ok, err := s.reportCache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.WithError(err).WithField("key", key).Warn("Report cache read failed")
		case ok:
			body = data
			cacheResult = "hit"
		default:
			cacheResult = "miss"
		}
	}

	if body == nil {
		var buf bytes.Buffer
		if err := s.assembler.Render(&buf, format, assessment); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"assessment_id": id,
				"format":        format,
			}).Error("Failed to render report")
			s.abortWithError(c, http.StatusInternalServerError, domain.ErrInternalServer, "Failed to render report", nil)
			return
		}
		body = buf.Bytes()

		if s.reportCache != nil {
			if err := s.reportCache.Set(ctx, key, body); err != nil {
				s.logger.WithError(err).WithField("key", key).Warn("Report cache write failed")
			}
		}
	}

	s.metrics.IncrementReportRender(string(format), cacheResult)

	if format == report.FormatPDF {
		c.Header("Content-Disposition", `attachment; filename="`+s.assembler.PDFFileName()+`"`)
	}
	c.Header("X-Report-Cache", cacheResult)
	c.Data(http.StatusOK, format.ContentType(), body)
}

func (s *Server) handleClassify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "adjusted_risk_percent is required", err)
		return
	}

	category, color := s.calculator.Classify(*req.AdjustedRiskPercent)
	c.JSON(http.StatusOK, ClassifyResponse{
		AdjustedRiskPercent: *req.AdjustedRiskPercent,
		Category:            category,
		CategoryColor:       color,
	})
}

// handleServiceError maps service errors onto HTTP responses
func (s *Server) handleServiceError(c *gin.Context, err error) {
	var validationErrs domain.ValidationErrors
	var domainErr *domain.DomainError

	switch {
	case errors.As(err, &validationErrs):
		apiErr := domain.NewAPIError(domain.ErrValidation, "Input validation failed", "", c.GetString(middleware.CorrelationIDKey))
		apiErr.Fields = validationErrs
		c.AbortWithStatusJSON(http.StatusBadRequest, apiErr)
	case errors.As(err, &domainErr):
		s.abortWithError(c, http.StatusUnprocessableEntity, domain.ErrDomainCode, "Input is outside the domain of the risk equation", domainErr)
	case errors.Is(err, domain.ErrNotFound):
		s.abortWithError(c, http.StatusNotFound, domain.ErrNotFoundCode, "Assessment not found", nil)
	case errors.Is(err, domain.ErrStorageFailure):
		_ = c.Error(err)
		s.abortWithError(c, http.StatusInternalServerError, domain.ErrStorage, "Assessment storage unavailable", nil)
	default:
		_ = c.Error(err)
		s.abortWithError(c, http.StatusInternalServerError, domain.ErrInternalServer, "Internal server error", nil)
	}
}

func (s *Server) abortWithError(c *gin.Context, status int, code, message string, cause error) {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, c.GetString(middleware.CorrelationIDKey)))
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
