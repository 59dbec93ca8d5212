package history

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascvd-risk-server/internal/domain"
)

var assessmentColumns = []string{
	"id", "cohort", "profile", "markers", "baseline_risk", "adjusted_risk",
	"category", "category_color", "created_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewPostgresStore(db)
	require.NoError(t, err)
	return store, mock
}

func TestNewPostgresStore_NilDB(t *testing.T) {
	store, err := NewPostgresStore(nil)
	assert.Nil(t, store)
	assert.Error(t, err)
}

func TestPostgresStore_Save_Mock(t *testing.T) {
	store, mock := newMockStore(t)
	a := newAssessment("pg-1", time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC))

	mock.ExpectExec("INSERT INTO assessments").
		WithArgs("pg-1", "white/male", sqlmock.AnyArg(), sqlmock.AnyArg(), 8.56, 16.56,
			string(domain.INTERMEDIATE_RISK), domain.COLOR_ORANGE, a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Save(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_Error(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO assessments").
		WillReturnError(errors.New("connection reset"))

	err := store.Save(context.Background(), newAssessment("pg-err", time.Now().UTC()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save assessment")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_Mock(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows(assessmentColumns).AddRow(
		"pg-1", "black/female",
		[]byte(`{"age":60,"sex":"female","race":"black","total_cholesterol":180,"hdl_cholesterol":55,"systolic_bp":125,"bp_treated":false,"has_diabetes":false,"is_smoker":false}`),
		[]byte(`{"family_history":false,"hs_crp":0,"cac_score":0}`),
		4.67, 0.0, string(domain.LOW_RISK), domain.COLOR_GREEN, created,
	)
	mock.ExpectQuery("SELECT (.+) FROM assessments WHERE id = \\$1").
		WithArgs("pg-1").
		WillReturnRows(rows)

	got, err := store.Get(context.Background(), "pg-1")
	require.NoError(t, err)
	assert.Equal(t, domain.FEMALE, got.Profile.Sex)
	assert.Equal(t, domain.BLACK, got.Profile.Race)
	assert.Equal(t, 60, got.Profile.Age)
	assert.Equal(t, domain.LOW_RISK, got.Result.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM assessments WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(assessmentColumns))

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresStore_Count_Mock(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM assessments").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestPostgresStore_Delete_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM assessments WHERE id = \\$1").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.Delete(context.Background(), "missing"), domain.ErrNotFound)
}

func TestPostgresStore_List_QueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM assessments").
		WithArgs(DefaultListLimit, 0).
		WillReturnError(sql.ErrConnDone)

	_, err := store.List(context.Background(), 0, 0)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

// getTestDB returns a database connection for testing.
// Skip test if TEST_DATABASE_URL is not set.
func getTestDB(t *testing.T) *sql.DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL tests")
	}

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			cohort TEXT NOT NULL,
			profile JSONB NOT NULL,
			markers JSONB NOT NULL,
			baseline_risk DOUBLE PRECISION NOT NULL,
			adjusted_risk DOUBLE PRECISION NOT NULL,
			category TEXT NOT NULL,
			category_color TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	require.NoError(t, err)

	// Clean up before test
	_, err = db.Exec("DELETE FROM assessments")
	require.NoError(t, err)

	return db
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, newAssessment("rt-1", time.Now().UTC())))
	require.NoError(t, store.Save(ctx, newAssessment("rt-2", time.Now().UTC().Add(time.Second))))

	got, err := store.Get(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, 16.56, got.Result.AdjustedRiskPercent)
	assert.True(t, got.Markers.FamilyHistory)

	list, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "rt-2", list[0].ID)

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))

	imported, skipped, err := store.ImportJSON(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 2, skipped)

	require.NoError(t, store.Delete(ctx, "rt-1"))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
