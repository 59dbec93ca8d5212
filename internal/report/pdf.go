package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/ascvd-risk-server/internal/domain"
)

var pdfGlyphs = strings.NewReplacer("≥", ">=", "≤", "<=")

// WritePDF writes the A4 report document: title, date, patient fields,
// initial and final risk
func (a *Assembler) WritePDF(w io.Writer, assessment *domain.Assessment) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(assessment.CreatedAt)
	pdf.SetTitle(a.title, true)

	// Core fonts are cp1252: the en dash maps, the ≥ sign has no glyph
	cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
	tr := func(s string) string { return cp1252(pdfGlyphs.Replace(s)) }

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(200, 10, tr(a.title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(200, 10, "Date: "+assessment.CreatedAt.Format("2006-01-02"), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	for _, f := range a.Fields(assessment) {
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("%s: %s", f.Label, f.Value)), "", 1, "", false, 0, "")
	}

	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, tr(InitialRiskLine(assessment)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, tr(FinalRiskLine(assessment)), "", 1, "", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf report: %w", err)
	}
	return nil
}
