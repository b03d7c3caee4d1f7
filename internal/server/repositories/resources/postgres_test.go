package resources

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/studyportal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "title", "file_url", "file_type", "unit_id", "name", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestListDownloadable_SingleUnit(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	q := `(?s)SELECT r\.id, r\.title.*FROM resources r\s+JOIN units u ON u\.id = r\.unit_id\s+WHERE r\.file_type <> \$1 AND r\.unit_id = \$2\s+ORDER BY r\.created_at, r\.id`
	rows := sqlmock.NewRows(columns).
		AddRow("r1", "Notes", "https://blob/notes.pdf", "pdf", "unit-a", "Unit A", ts, ts).
		AddRow("r2", "Slides", "https://blob/w1.pptx", "slides", "unit-a", "Unit A", ts, ts.Add(time.Hour))

	mock.ExpectQuery(q).WithArgs("youtube", "unit-a").WillReturnRows(rows)

	got, err := repo.ListDownloadable(context.Background(), "unit-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, &models.Resource{
		ID: "r1", Title: "Notes", FileURL: "https://blob/notes.pdf", FileType: "pdf",
		UnitID: "unit-a", UnitName: "Unit A", CreatedAt: ts, UpdatedAt: ts,
	}, got[0])
	assert.Equal(t, "r2", got[1].ID)
	assert.Equal(t, ts.Add(time.Hour), got[1].UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDownloadable_AllUnits(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Now()
	q := `(?s)WHERE r\.file_type <> \$1\s+ORDER BY u\.name, u\.id, r\.created_at, r\.id`
	mock.ExpectQuery(q).WithArgs("youtube").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("r1", "Notes", "https://b/n.pdf", "pdf", "u1", "Algebra", ts, ts))

	got, err := repo.ListDownloadable(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Algebra", got[0].UnitName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDownloadable_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT r\.id`).WithArgs("youtube", "nothing").WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.ListDownloadable(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListDownloadable_QueryErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT r\.id`).WillReturnError(errors.New("db err"))

	_, err := repo.ListDownloadable(context.Background(), "")
	if err == nil || !regexp.MustCompile(`failed to select resources: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped select error, got %v", err)
	}
}

func TestListDownloadable_ScanErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(columns).AddRow("r1", "Notes", "u", "pdf", "u1", "A", "not-a-time", time.Now())
	mock.ExpectQuery(`SELECT r\.id`).WillReturnRows(rows)

	_, err := repo.ListDownloadable(context.Background(), "")
	require.Error(t, err)
}

func TestListDownloadable_RowsErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow("r1", "Notes", "u", "pdf", "u1", "A", ts, ts).
		AddRow("r2", "Notes", "u", "pdf", "u1", "A", ts, ts).
		RowError(1, errors.New("row-err"))
	mock.ExpectQuery(`SELECT r\.id`).WillReturnRows(rows)

	_, err := repo.ListDownloadable(context.Background(), "")
	if err == nil || err.Error() != "row-err" {
		t.Fatalf("expected rows.Err 'row-err', got %v", err)
	}
}

func TestUpsert(t *testing.T) {
	q := `(?s)^\s*INSERT\s+INTO\s+resources\b.*ON\s+CONFLICT\s*\(id\)\s*DO\s+UPDATE\s+SET\b.*updated_at\s*=\s*now\(\);?\s*$`
	res := &models.Resource{ID: "r1", Title: "Notes", FileURL: "https://b/n.pdf", FileType: "pdf", UnitID: "u1"}

	tests := []struct {
		name    string
		result  sql.Result
		execErr error
		wantErr string
	}{
		{name: "ok", result: sqlmock.NewResult(0, 1)},
		{name: "db error", execErr: errors.New("db down"), wantErr: `db error: .*db down`},
		{name: "rows affected error", result: sqlmock.NewErrorResult(errors.New("rows-err")), wantErr: `rows affected error: .*rows-err`},
		{name: "unexpected count", result: sqlmock.NewResult(0, 0), wantErr: `unexpected rows affected: 0`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			exp := mock.ExpectExec(q).WithArgs("r1", "Notes", "https://b/n.pdf", "pdf", "u1")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.Upsert(context.Background(), res)
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.NoError(t, mock.ExpectationsWereMet())
				return
			}
			if err == nil || !regexp.MustCompile(tt.wantErr).MatchString(err.Error()) {
				t.Fatalf("expected error matching %q, got %v", tt.wantErr, err)
			}
		})
	}
}
