package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "crimecast/internal/errors"
	"crimecast/pkg/contracts/domain"
)

// PostgresDriver is the database/sql driver name registered by lib/pq
const PostgresDriver = "postgres"

// sqlRow is one result row. Every column is read as text so the same cell
// rules apply as for CSV and XLSX sources.
type sqlRow struct {
	State    sql.NullString `db:"state"`
	Year     sql.NullString `db:"year"`
	Category sql.NullString `db:"category"`
	Count    sql.NullString `db:"count"`
}

// Open loads from Postgres when dsn is set and from the file at path
// otherwise.
func Open(ctx context.Context, path, dsn, table string, opts Options) (*Dataset, error) {
	if dsn != "" {
		return LoadPostgres(ctx, dsn, table, opts)
	}
	return Load(path, opts)
}

// LoadPostgres connects to dsn and reads the dataset from table
func LoadPostgres(ctx context.Context, dsn, table string, opts Options) (*Dataset, error) {
	db, err := sqlx.ConnectContext(ctx, PostgresDriver, dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to connect to postgres", err)
	}
	defer db.Close()

	ds, err := LoadSQL(ctx, db, table, opts)
	if err != nil {
		return nil, err
	}

	stats := ds.Stats()
	opts.logger().Info("dataset loaded",
		slog.String("source", stats.Source),
		slog.Int("records", stats.Records),
		slog.Int("states", stats.States),
		slog.Int("categories", stats.Categories),
		slog.Int("min_year", stats.MinYear),
		slog.Int("max_year", stats.MaxYear),
		slog.Int("skipped_rows", stats.SkippedRows),
		slog.Int("coerced_counts", stats.CoercedCounts))
	return ds, nil
}

// LoadSQL reads the dataset from a table on an open connection. Column
// names come from the canonical set, renamed through opts.Columns.
func LoadSQL(ctx context.Context, db *sqlx.DB, table string, opts Options) (*Dataset, error) {
	query, err := selectQuery(table, opts.Columns)
	if err != nil {
		return nil, err
	}

	var rows []sqlRow
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to query table %s", table), err).
			WithContext("table", table)
	}

	p := &rowParser{
		idx:    columnIndex{state: 0, year: 1, category: 2, count: 3},
		logger: opts.logger(),
	}
	records := make([]domain.RawRecord, 0, len(rows))
	for i, r := range rows {
		row := []string{r.State.String, r.Year.String, r.Category.String, r.Count.String}
		if rec, ok := p.parse(i+1, row); ok {
			records = append(records, rec)
		}
	}

	return New(PostgresDriver+":"+table, records).withLoadStats(p.skipped, p.coerced), nil
}

// selectQuery builds the SELECT for table. Source column names are quoted,
// so overrides may name mixed-case or reserved columns.
func selectQuery(table string, overrides map[string]string) (string, error) {
	quotedTable, err := quoteQualified(table)
	if err != nil {
		return "", err
	}

	source := map[string]string{
		ColumnState:    ColumnState,
		ColumnYear:     ColumnYear,
		ColumnCategory: ColumnCategory,
		ColumnCount:    ColumnCount,
	}
	for src, canonical := range overrides {
		canonical = strings.ToLower(strings.TrimSpace(canonical))
		if _, ok := source[canonical]; !ok {
			return "", apperrors.NewAppValidationError(
				fmt.Sprintf("column override %q maps to unknown column %q", src, canonical))
		}
		source[canonical] = strings.TrimSpace(src)
	}

	cols := make([]string, 0, 4)
	for _, canonical := range []string{ColumnState, ColumnYear, ColumnCategory, ColumnCount} {
		cols = append(cols, fmt.Sprintf("%s::text AS %s", pq.QuoteIdentifier(source[canonical]), canonical))
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quotedTable), nil
}

// quoteQualified quotes each dot-separated part of a table name
func quoteQualified(table string) (string, error) {
	parts := strings.Split(strings.TrimSpace(table), ".")
	for i, part := range parts {
		if part == "" {
			return "", apperrors.NewAppValidationError(fmt.Sprintf("invalid table name %q", table))
		}
		parts[i] = pq.QuoteIdentifier(part)
	}
	return strings.Join(parts, "."), nil
}
