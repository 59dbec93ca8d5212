// Command ascvd estimates 10-year ASCVD risk from the command line and
// manages the local assessment history.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ascvd-risk-server/internal/config"
	"github.com/ascvd-risk-server/internal/domain"
	"github.com/ascvd-risk-server/internal/history"
	"github.com/ascvd-risk-server/internal/logging"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// Exit codes
const (
	exitFailure = 1
	exitInvalid = 2
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dataDir     string
	databaseURL string
	verbose     bool
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ee *exitErr
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(exitFailure)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	lite := config.LoadLiteConfig()
	flags := &globalFlags{
		dataDir:     lite.DataDir,
		databaseURL: os.Getenv("ASCVD_DATABASE_URL"),
	}

	root := &cobra.Command{
		Use:           "ascvd",
		Short:         "Estimate 10-year ASCVD risk",
		Long:          "ascvd computes baseline and marker-adjusted 10-year atherosclerotic cardiovascular disease risk and renders reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.dataDir, "data-dir", flags.dataDir, "Directory holding the local history database")
	pf.StringVar(&flags.databaseURL, "database-url", flags.databaseURL, "PostgreSQL URL; overrides the local history database")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Log processing steps to stderr")

	root.AddCommand(
		newCalculateCmd(flags),
		newHistoryCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ascvd %s\n", version)
		},
	}
}

// newLogger logs to the command's stderr; quiet unless --verbose.
func (f *globalFlags) newLogger(cmd *cobra.Command) *logrus.Logger {
	level := "warn"
	if f.verbose {
		level = "debug"
	}
	logger, err := logging.New(domain.LoggingConfig{Level: level, Format: "text", Output: "stderr"})
	if err != nil {
		logger = logrus.New()
	}
	logger.SetOutput(cmd.ErrOrStderr())
	return logger
}

// openStore opens PostgreSQL when a URL is given, otherwise the local SQLite history.
func (f *globalFlags) openStore() (history.Store, error) {
	if f.databaseURL != "" {
		store, err := history.NewPostgresStoreFromURL(f.databaseURL)
		if err != nil {
			return nil, codeError(exitFailure, "opening postgres history: %s", err)
		}
		return store, nil
	}

	lite := &config.LiteConfig{DataDir: f.dataDir}
	if err := lite.EnsureDataDir(); err != nil {
		return nil, codeError(exitFailure, "creating data directory: %s", err)
	}
	store, err := history.NewSQLiteStore(lite.HistoryDBPath())
	if err != nil {
		return nil, codeError(exitFailure, "opening history: %s", err)
	}
	return store, nil
}
