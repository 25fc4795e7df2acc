// Package sql implements a normalize.Loader backed by a Postgres query,
// using jackc/pgx/v5.
package sql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/normalize"
)

// Loader executes EntityConfig.SQLQuery against a pgx connection pool
// resolved from the entity's DataSourceConfig ("dsn" option).
type Loader struct {
	pools map[string]*pgxpool.Pool
}

// New returns a Postgres loader with an empty pool cache.
func New() *Loader {
	return &Loader{pools: make(map[string]*pgxpool.Pool)}
}

// Load implements normalize.Loader.
func (l *Loader) Load(ctx context.Context, entity *normalize.EntityConfig, source normalize.DataSourceConfig) (*normalize.Table, error) {
	if entity.SQLQuery == "" {
		return nil, fmt.Errorf("entity %q: sql loader requires sql_query", entity.Name)
	}
	pool, err := l.pool(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("entity %q: %w", entity.Name, err)
	}

	rows, err := pool.Query(ctx, entity.SQLQuery)
	if err != nil {
		return nil, fmt.Errorf("entity %q: query failed: %w", entity.Name, err)
	}
	defer rows.Close()

	table, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("entity %q: %w", entity.Name, err)
	}

	if entity.CheckColumnNames && len(entity.Columns) > 0 {
		if missing := table.MissingColumns(entity.Columns); len(missing) > 0 {
			return nil, fmt.Errorf("entity %q: declared columns not returned by query: %v", entity.Name, missing)
		}
	}

	return table, nil
}

func scanRows(rows pgx.Rows) (*normalize.Table, error) {
	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	table := normalize.NewTable(cols)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(normalize.Row, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, rows.Err()
}

func (l *Loader) pool(ctx context.Context, source normalize.DataSourceConfig) (*pgxpool.Pool, error) {
	dsn, _ := source.Options["dsn"].(string)
	if dsn == "" {
		return nil, fmt.Errorf("data source %q: missing string option %q", source.Driver, "dsn")
	}
	if pool, ok := l.pools[dsn]; ok {
		return pool, nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening connection pool: %w", err)
	}
	l.pools[dsn] = pool
	return pool, nil
}

// Close releases every pool this loader opened. Callers should defer it
// once a project run using this loader has finished.
func (l *Loader) Close() {
	for _, pool := range l.pools {
		pool.Close()
	}
}
