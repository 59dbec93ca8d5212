package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascvd-risk-server/internal/domain"
)

var patientArgs = []string{
	"--age", "55", "--sex", "male", "--race", "white",
	"--total-chol", "200", "--hdl", "50", "--sbp", "130", "--bp-treated",
	"--family-history", "--hs-crp", "3", "--cac", "150",
}

// runCLI executes the root command and returns stdout, stderr and the error.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("ASCVD_DATABASE_URL", "")

	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCalculate_Text(t *testing.T) {
	out, _, err := runCLI(t, append([]string{"calculate", "--data-dir", t.TempDir()}, patientArgs...)...)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "ASCVD 10-Year Risk Report\n"))
	assert.Contains(t, out, "Initial Risk Estimate: 8.56%")
	assert.Contains(t, out, "Final Adjusted Risk: 16.56% (Intermediate Risk")
	assert.Contains(t, out, "CAC Score: 150")
}

func TestCalculate_JSON(t *testing.T) {
	out, _, err := runCLI(t, append([]string{"calculate", "--format", "json"}, patientArgs...)...)
	require.NoError(t, err)

	var assessment domain.Assessment
	require.NoError(t, json.Unmarshal([]byte(out), &assessment))
	assert.Equal(t, 8.56, assessment.Result.BaselineRiskPercent)
	assert.Equal(t, 16.56, assessment.Result.AdjustedRiskPercent)
	assert.Equal(t, domain.INTERMEDIATE_RISK, assessment.Result.Category)
}

func TestCalculate_InvalidInputs(t *testing.T) {
	args := []string{"calculate",
		"--age", "90", "--sex", "male", "--race", "asian",
		"--total-chol", "200", "--hdl", "50", "--sbp", "130"}

	_, _, err := runCLI(t, args...)
	require.Error(t, err)

	var ee *exitErr
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, exitInvalid, ee.code)
	assert.Contains(t, ee.msg, "age")
	assert.Contains(t, ee.msg, "race")
}

func TestCalculate_BadFormat(t *testing.T) {
	_, _, err := runCLI(t, append([]string{"calculate", "--format", "pdf"}, patientArgs...)...)

	var ee *exitErr
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, exitInvalid, ee.code)
}

func TestCalculate_MissingRequiredFlag(t *testing.T) {
	_, _, err := runCLI(t, "calculate", "--age", "55")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestCalculate_Artifacts(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "risk.pdf")
	chartPath := filepath.Join(dir, "risk.html")

	_, stderr, err := runCLI(t, append([]string{"calculate", "--pdf", pdfPath, "--chart", chartPath}, patientArgs...)...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "PDF report written to")

	pdf, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	chart, err := os.ReadFile(chartPath)
	require.NoError(t, err)
	assert.Contains(t, string(chart), "Adjusted ASCVD Risk Level")
}

func TestHistory_SaveListExportImport(t *testing.T) {
	dataDir := t.TempDir()

	_, stderr, err := runCLI(t, append([]string{"calculate", "--save", "--data-dir", dataDir}, patientArgs...)...)
	require.NoError(t, err)
	match := regexp.MustCompile(`Assessment saved as (\S+)`).FindStringSubmatch(stderr)
	require.Len(t, match, 2)
	id := match[1]

	out, _, err := runCLI(t, "history", "list", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "16.56%")
	assert.Contains(t, out, "1 of 1 assessments")

	out, _, err = runCLI(t, "history", "show", id, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Final Adjusted Risk: 16.56%")

	exportPath := filepath.Join(t.TempDir(), "export.json")
	_, _, err = runCLI(t, "history", "export", "--out", exportPath, "--data-dir", dataDir)
	require.NoError(t, err)

	otherDir := t.TempDir()
	out, _, err = runCLI(t, "history", "import", exportPath, "--data-dir", otherDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 assessments, skipped 0")

	out, _, err = runCLI(t, "history", "import", exportPath, "--data-dir", otherDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 assessments, skipped 1")

	out, _, err = runCLI(t, "history", "delete", id, "--data-dir", otherDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)

	_, _, err = runCLI(t, "history", "delete", id, "--data-dir", otherDir)
	var ee *exitErr
	require.True(t, errors.As(err, &ee))
	assert.Contains(t, ee.msg, "not found")
}

func TestVersion(t *testing.T) {
	out, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ascvd dev\n", out)
}

func TestHistoryExport_WriteFailureIsReported(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	dataDir := t.TempDir()
	_, _, err := runCLI(t, append([]string{"calculate", "--save", "--data-dir", dataDir}, patientArgs...)...)
	require.NoError(t, err)

	_, stderr, err := runCLI(t, "history", "export", "--out", "/dev/full", "--data-dir", dataDir)

	var ee *exitErr
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, exitFailure, ee.code)
	assert.NotContains(t, stderr, "Exported assessments")
}

func TestHistoryExport_UncreatableFile(t *testing.T) {
	dataDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "missing", "export.json")

	_, _, err := runCLI(t, "history", "export", "--out", out, "--data-dir", dataDir)

	var ee *exitErr
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, exitFailure, ee.code)
	assert.Contains(t, ee.msg, "creating")
}
