package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ascvd-risk-server/internal/domain"
	"github.com/ascvd-risk-server/internal/report"
	"github.com/ascvd-risk-server/internal/service"
)

// calculateFlags holds the parsed flags for the calculate command.
type calculateFlags struct {
	profile domain.PatientProfile
	markers domain.AuxiliaryMarkers
	sex     string
	race    string

	format   string
	pdfOut   string
	chartOut string
	save     bool
}

func newCalculateCmd(global *globalFlags) *cobra.Command {
	var flags calculateFlags

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate baseline and adjusted 10-year risk",
		Example: `  ascvd calculate --age 55 --sex male --race white --total-chol 200 --hdl 50 --sbp 130 --bp-treated
  ascvd calculate --age 62 --sex female --race black --total-chol 230 --hdl 45 --sbp 150 --cac 120 --pdf report.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalculate(cmd, global, flags)
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.profile.Age, "age", 0, "Age in years (40-79)")
	f.StringVar(&flags.sex, "sex", "", "Sex: male or female")
	f.StringVar(&flags.race, "race", "", "Race: white, black or other")
	f.IntVar(&flags.profile.TotalCholesterol, "total-chol", 0, "Total cholesterol in mg/dL (100-400)")
	f.IntVar(&flags.profile.HDLCholesterol, "hdl", 0, "HDL cholesterol in mg/dL (20-100)")
	f.IntVar(&flags.profile.SystolicBP, "sbp", 0, "Systolic blood pressure in mmHg (90-200)")
	f.BoolVar(&flags.profile.BPTreated, "bp-treated", false, "On blood pressure treatment")
	f.BoolVar(&flags.profile.HasDiabetes, "diabetes", false, "Has diabetes")
	f.BoolVar(&flags.profile.IsSmoker, "smoker", false, "Current smoker")
	f.BoolVar(&flags.markers.FamilyHistory, "family-history", false, "Family history of premature ASCVD")
	f.Float64Var(&flags.markers.HSCRP, "hs-crp", 0, "hs-CRP in mg/L (0-10)")
	f.IntVar(&flags.markers.CACScore, "cac", 0, "Coronary artery calcium score (0-1000)")

	f.StringVar(&flags.format, "format", "text", "Output format: text or json")
	f.StringVar(&flags.pdfOut, "pdf", "", "Also write a PDF report to this path")
	f.StringVar(&flags.chartOut, "chart", "", "Also write an HTML risk chart to this path")
	f.BoolVar(&flags.save, "save", false, "Store the assessment in the history")

	for _, name := range []string{"age", "sex", "race", "total-chol", "hdl", "sbp"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runCalculate(cmd *cobra.Command, global *globalFlags, flags calculateFlags) error {
	format, err := report.ParseFormat(flags.format)
	if err != nil || (format != report.FormatText && format != report.FormatJSON) {
		return codeError(exitInvalid, "invalid --format %q: use text or json", flags.format)
	}

	profile := flags.profile
	profile.Sex = domain.Sex(flags.sex)
	profile.Race = domain.Race(flags.race)

	logger := global.newLogger(cmd)
	var opts []service.CalculatorOption
	if flags.save {
		store, err := global.openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, service.WithRepository(store))
	}
	calculator := service.NewCalculatorService(logger, opts...)

	assessment, err := calculator.Calculate(cmd.Context(), profile, flags.markers)
	if err != nil {
		var validationErrs domain.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			return codeError(exitInvalid, "invalid inputs: %s", validationErrs)
		case errors.Is(err, domain.ErrDomain):
			return codeError(exitInvalid, "%s", err)
		default:
			return codeError(exitFailure, "calculating risk: %s", err)
		}
	}

	assembler := report.NewAssembler(domain.ReportConfig{})
	if err := assembler.Render(cmd.OutOrStdout(), format, assessment); err != nil {
		return codeError(exitFailure, "rendering report: %s", err)
	}

	if flags.pdfOut != "" {
		if err := writeArtifact(flags.pdfOut, assembler, report.FormatPDF, assessment); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "PDF report written to %s\n", flags.pdfOut)
	}
	if flags.chartOut != "" {
		if err := writeArtifact(flags.chartOut, assembler, report.FormatChart, assessment); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Risk chart written to %s\n", flags.chartOut)
	}
	if flags.save {
		fmt.Fprintf(cmd.ErrOrStderr(), "Assessment saved as %s\n", assessment.ID)
	}

	return nil
}

func writeArtifact(path string, assembler *report.Assembler, format report.Format, assessment *domain.Assessment) error {
	f, err := os.Create(path)
	if err != nil {
		return codeError(exitFailure, "creating %s: %s", path, err)
	}
	if err := assembler.Render(f, format, assessment); err != nil {
		f.Close()
		return codeError(exitFailure, "rendering %s report: %s", format, err)
	}
	if err := f.Close(); err != nil {
		return codeError(exitFailure, "writing %s: %s", path, err)
	}
	return nil
}
