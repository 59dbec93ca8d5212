package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ascvd-risk-server/internal/domain"
	"github.com/ascvd-risk-server/internal/history"
	"github.com/ascvd-risk-server/internal/report"
)

func newHistoryCmd(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and move stored assessments",
	}

	cmd.AddCommand(
		newHistoryListCmd(global),
		newHistoryShowCmd(global),
		newHistoryDeleteCmd(global),
		newHistoryExportCmd(global),
		newHistoryImportCmd(global),
	)
	return cmd
}

func newHistoryListCmd(global *globalFlags) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored assessments, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(global, func(store history.Store) error {
				total, err := store.Count(cmd.Context())
				if err != nil {
					return codeError(exitFailure, "counting assessments: %s", err)
				}
				assessments, err := store.List(cmd.Context(), limit, offset)
				if err != nil {
					return codeError(exitFailure, "listing assessments: %s", err)
				}
				return printAssessments(cmd.OutOrStdout(), assessments, total)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", history.DefaultListLimit, "Maximum assessments to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Assessments to skip")
	return cmd
}

func newHistoryShowCmd(global *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored assessment report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil || (f != report.FormatText && f != report.FormatJSON) {
				return codeError(exitInvalid, "invalid --format %q: use text or json", format)
			}
			return withStore(global, func(store history.Store) error {
				assessment, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, domain.ErrNotFound) {
					return codeError(exitFailure, "assessment %s not found", args[0])
				}
				if err != nil {
					return codeError(exitFailure, "loading assessment: %s", err)
				}
				return report.NewAssembler(domain.ReportConfig{}).Render(cmd.OutOrStdout(), f, assessment)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

func newHistoryDeleteCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(global, func(store history.Store) error {
				err := store.Delete(cmd.Context(), args[0])
				if errors.Is(err, domain.ErrNotFound) {
					return codeError(exitFailure, "assessment %s not found", args[0])
				}
				if err != nil {
					return codeError(exitFailure, "deleting assessment: %s", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newHistoryExportCmd(global *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all stored assessments as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(global, func(store history.Store) error {
				if out == "" {
					if err := store.ExportJSON(cmd.Context(), cmd.OutOrStdout()); err != nil {
						return codeError(exitFailure, "exporting assessments: %s", err)
					}
					return nil
				}
				if err := exportToFile(cmd.Context(), store, out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported assessments to %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the export to this file instead of stdout")
	return cmd
}

func newHistoryImportCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import assessments from a JSON export, skipping known IDs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return codeError(exitFailure, "opening %s: %s", args[0], err)
			}
			defer f.Close()

			return withStore(global, func(store history.Store) error {
				imported, skipped, err := store.ImportJSON(cmd.Context(), f)
				if err != nil {
					return codeError(exitFailure, "importing assessments: %s", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d assessments, skipped %d\n", imported, skipped)
				return nil
			})
		},
	}
}

func withStore(global *globalFlags, fn func(store history.Store) error) error {
	store, err := global.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func printAssessments(w io.Writer, assessments []*domain.Assessment, total int64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tBASELINE\tADJUSTED\tCATEGORY")
	for _, a := range assessments {
		fmt.Fprintf(tw, "%s\t%s\t%s%%\t%s%%\t%s\n",
			a.ID,
			a.CreatedAt.Format("2006-01-02 15:04"),
			report.FormatNumber(a.Result.BaselineRiskPercent),
			report.FormatNumber(a.Result.AdjustedRiskPercent),
			a.Result.Category,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d assessments\n", len(assessments), total)
	return err
}

func exportToFile(ctx context.Context, store history.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return codeError(exitFailure, "creating %s: %s", path, err)
	}
	if err := store.ExportJSON(ctx, f); err != nil {
		f.Close()
		return codeError(exitFailure, "exporting assessments: %s", err)
	}
	if err := f.Close(); err != nil {
		return codeError(exitFailure, "writing %s: %s", path, err)
	}
	return nil
}
