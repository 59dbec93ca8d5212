// Package report renders risk assessments into human-readable artifacts:
// a labeled field list, a horizontal bar chart page, a PDF document and plain text.
// It sits outside the computation path; nothing in the service package imports it.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ascvd-risk-server/internal/domain"
)

// Format identifies a rendered artifact type
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatChart Format = "chart"
	FormatText  Format = "text"
	FormatJSON  Format = "json"
)

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatChart:
		return "text/html; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ParseFormat converts a user supplied format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatChart, FormatText, FormatJSON:
		return f, nil
	case "html":
		return FormatChart, nil
	default:
		return "", fmt.Errorf("unsupported report format: %q", s)
	}
}

// Default report settings
const (
	DefaultTitle       = "ASCVD 10-Year Risk Report"
	DefaultChartMaxPct = 30.0
	DefaultPDFFileName = "ascvd_risk_report.pdf"
	ChartTitle         = "Adjusted ASCVD Risk Level"
	ChartAxisName      = "Risk (%)"
)

// Field is one labeled line of the patient section
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Assembler builds report artifacts from assessments
type Assembler struct {
	title       string
	chartMaxPct float64
	pdfFileName string
}

// NewAssembler creates an assembler; zero config values fall back to defaults
func NewAssembler(cfg domain.ReportConfig) *Assembler {
	a := &Assembler{
		title:       cfg.Title,
		chartMaxPct: cfg.ChartMaxPct,
		pdfFileName: cfg.PDFFileName,
	}
	if a.title == "" {
		a.title = DefaultTitle
	}
	if a.chartMaxPct <= 0 {
		a.chartMaxPct = DefaultChartMaxPct
	}
	if a.pdfFileName == "" {
		a.pdfFileName = DefaultPDFFileName
	}
	return a
}

// PDFFileName returns the download file name for PDF reports
func (a *Assembler) PDFFileName() string {
	return a.pdfFileName
}

// Fields returns the labeled patient and marker fields in display order
func (a *Assembler) Fields(assessment *domain.Assessment) []Field {
	p := assessment.Profile
	m := assessment.Markers
	return []Field{
		{"Age", strconv.Itoa(p.Age)},
		{"Sex", string(p.Sex)},
		{"Race", string(p.Race)},
		{"Total Cholesterol", strconv.Itoa(p.TotalCholesterol)},
		{"HDL Cholesterol", strconv.Itoa(p.HDLCholesterol)},
		{"Systolic BP", strconv.Itoa(p.SystolicBP)},
		{"BP Treated", yesNo(p.BPTreated)},
		{"Diabetes", yesNo(p.HasDiabetes)},
		{"Current Smoker", yesNo(p.IsSmoker)},
		{"Family History", yesNo(m.FamilyHistory)},
		{"hs-CRP", FormatNumber(m.HSCRP)},
		{"CAC Score", strconv.Itoa(m.CACScore)},
	}
}

// Summary returns the one-line result message
func Summary(assessment *domain.Assessment) string {
	return fmt.Sprintf("Final Adjusted 10-Year ASCVD Risk: %s%% — %s",
		FormatNumber(assessment.Result.AdjustedRiskPercent), assessment.Result.Category)
}

// InitialRiskLine returns the baseline risk line of the results section
func InitialRiskLine(assessment *domain.Assessment) string {
	return fmt.Sprintf("Initial Risk Estimate: %s%%", FormatNumber(assessment.Result.BaselineRiskPercent))
}

// FinalRiskLine returns the adjusted risk line of the results section
func FinalRiskLine(assessment *domain.Assessment) string {
	return fmt.Sprintf("Final Adjusted Risk: %s%% (%s)",
		FormatNumber(assessment.Result.AdjustedRiskPercent), assessment.Result.Category)
}

// Render writes the assessment in the requested format
func (a *Assembler) Render(w io.Writer, format Format, assessment *domain.Assessment) error {
	switch format {
	case FormatPDF:
		return a.WritePDF(w, assessment)
	case FormatChart:
		return a.WriteChartHTML(w, assessment)
	case FormatText:
		return a.WriteText(w, assessment)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(assessment)
	default:
		return fmt.Errorf("unsupported report format: %q", format)
	}
}

// WriteText writes a plain-text rendition of the report
func (a *Assembler) WriteText(w io.Writer, assessment *domain.Assessment) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", a.title)
	fmt.Fprintf(&b, "Date: %s\n\n", assessment.CreatedAt.Format("2006-01-02"))
	for _, f := range a.Fields(assessment) {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	fmt.Fprintf(&b, "\n%s\n%s\n", InitialRiskLine(assessment), FinalRiskLine(assessment))

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatNumber prints a float the way the intake form displays it: shortest
// representation, always with a decimal point (3 prints as "3.0")
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
