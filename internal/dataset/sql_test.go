package dataset

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "crimecast/internal/errors"
	"crimecast/pkg/contracts/domain"
)

const fakeDriverName = "crimecast-fake"

var registerFake sync.Once

// fakeDriver serves a fixed result set per DSN and records the last query
type fakeDriver struct {
	mu      sync.Mutex
	results map[string][][]driver.Value
	queries []string
}

var fake = &fakeDriver{results: make(map[string][][]driver.Value)}

func (d *fakeDriver) Open(dsn string) (driver.Conn, error) {
	return &fakeConn{driver: d, dsn: dsn}, nil
}

func (d *fakeDriver) lastQuery() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queries) == 0 {
		return ""
	}
	return d.queries[len(d.queries)-1]
}

type fakeConn struct {
	driver *fakeDriver
	dsn    string
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{conn: c, query: query}, nil
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions not supported") }

type fakeStmt struct {
	conn  *fakeConn
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }
func (s *fakeStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, errors.New("exec not supported")
}

func (s *fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	d := s.conn.driver
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries = append(d.queries, s.query)
	rows, ok := d.results[s.conn.dsn]
	if !ok {
		return nil, errors.New(`relation "crime_trials" does not exist`)
	}
	return &fakeRows{rows: rows}, nil
}

type fakeRows struct {
	rows [][]driver.Value
	pos  int
}

func (r *fakeRows) Columns() []string { return []string{"state", "year", "category", "count"} }
func (r *fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

func openFake(t *testing.T, dsn string, rows [][]driver.Value) *sqlx.DB {
	t.Helper()
	registerFake.Do(func() { sql.Register(fakeDriverName, fake) })

	fake.mu.Lock()
	if rows != nil {
		fake.results[dsn] = rows
	}
	fake.mu.Unlock()

	db, err := sql.Open(fakeDriverName, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, PostgresDriver)
}

func TestLoadSQL(t *testing.T) {
	db := openFake(t, "load", [][]driver.Value{
		{"Alpha", int64(2001), "Murder", float64(12)},
		{"Alpha", "2002.0", "Murder", "15"},
		{"Alpha", int64(2001), nil, int64(3)},
		{"Beta", int64(2001), "Rape", "n/a"},
		{nil, int64(2001), "Murder", int64(4)},
		{"Beta", "unknown", "Rape", int64(4)},
	})

	ds, err := LoadSQL(context.Background(), db, "public.crime_trials", Options{})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "state"::text AS state, "year"::text AS year, "category"::text AS category, "count"::text AS count FROM "public"."crime_trials"`,
		fake.lastQuery())

	stats := ds.Stats()
	assert.Equal(t, "postgres:public.crime_trials", stats.Source)
	assert.Equal(t, 4, stats.Records)
	assert.Equal(t, 2, stats.SkippedRows)
	assert.Equal(t, 1, stats.CoercedCounts)
	assert.Equal(t, []string{"Alpha", "Beta"}, ds.States())

	cats, err := ds.Categories("Alpha")
	require.NoError(t, err)
	assert.Equal(t, []string{"Murder", UnspecifiedCategory}, cats)

	agg := ds.Aggregate()
	assert.Equal(t, 15.0, agg[domain.StateYear{State: "Alpha", Year: 2001}])
	assert.Equal(t, 15.0, agg[domain.StateYear{State: "Alpha", Year: 2002}])
	assert.Equal(t, 0.0, agg[domain.StateYear{State: "Beta", Year: 2001}])
}

func TestLoadSQL_ColumnOverrides(t *testing.T) {
	db := openFake(t, "overrides", [][]driver.Value{{"Alpha", int64(2001), "Murder", int64(1)}})

	_, err := LoadSQL(context.Background(), db, "crime_trials", Options{
		Columns: map[string]string{"Area_Name": "state", "Total Trials": "Count"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "Area_Name"::text AS state, "year"::text AS year, "category"::text AS category, "Total Trials"::text AS count FROM "crime_trials"`,
		fake.lastQuery())
}

func TestLoadSQL_Errors(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		table    string
		columns  map[string]string
		wantType apperrors.ErrorType
	}{
		{name: "empty table", dsn: "errors", table: "", wantType: apperrors.ErrTypeValidation},
		{name: "dangling schema", dsn: "errors", table: "public.", wantType: apperrors.ErrTypeValidation},
		{name: "unknown override", dsn: "errors", table: "crime_trials",
			columns: map[string]string{"x": "district"}, wantType: apperrors.ErrTypeValidation},
		{name: "query failure", dsn: "missing-table", table: "crime_trials", wantType: apperrors.ErrTypeStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openFake(t, tt.dsn, nil)
			_, err := LoadSQL(context.Background(), db, tt.table, Options{Columns: tt.columns})
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

func TestOpen_WithoutDSNReadsFile(t *testing.T) {
	_, err := Open(context.Background(), "does/not/exist.csv", "", "crime_trials", Options{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
}
