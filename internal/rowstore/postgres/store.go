// Package postgres implements rowstore.Store on Postgres.
//
// Tables live in two relations:
//
//	CREATE TABLE row_tables (name TEXT PRIMARY KEY);
//	CREATE TABLE table_rows (
//		table_name TEXT NOT NULL REFERENCES row_tables (name),
//		row_num    INT  NOT NULL,
//		cells      TEXT[] NOT NULL,
//		PRIMARY KEY (table_name, row_num)
//	);
//
// Cells are stored as text. Assigning past the end of a row's array extends
// it with NULL cells, which read back as absent.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/querydesk/internal/rowstore"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool and relation names.
type Config struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	TablesRelation  string        `mapstructure:"tables_relation"`
	RowsRelation    string        `mapstructure:"rows_relation"`
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// Store reads and writes rows through a pgx pool.
type Store struct {
	pool   dbtx
	tables string
	rows   string
}

// NewStore connects a pool using cfg.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewStoreWithPool(pool, cfg.TablesRelation, cfg.RowsRelation)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewStoreWithPool(pool dbtx, tablesRelation, rowsRelation string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if tablesRelation == "" {
		tablesRelation = "row_tables"
	}
	if rowsRelation == "" {
		rowsRelation = "table_rows"
	}
	for _, name := range []string{tablesRelation, rowsRelation} {
		if !validTableName.MatchString(name) {
			return nil, fmt.Errorf("invalid relation name %q", name)
		}
	}
	return &Store{pool: pool, tables: tablesRelation, rows: rowsRelation}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TableExists reports whether table is registered.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE name = $1)`, s.tables)
	var exists bool
	if err := s.pool.QueryRow(ctx, query, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("check table %q: %w", table, err)
	}
	return exists, nil
}

// Rows loads every row of table ordered by row number.
func (s *Store) Rows(ctx context.Context, table string) ([]rowstore.Row, error) {
	if err := s.requireTable(ctx, table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT row_num, cells FROM %s WHERE table_name = $1 ORDER BY row_num`, s.rows)
	rows, err := s.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query rows of %q: %w", table, err)
	}
	defer rows.Close()

	var out []rowstore.Row
	for rows.Next() {
		var (
			rowNum int32
			cells  []pgtype.Text
		)
		if err := rows.Scan(&rowNum, &cells); err != nil {
			return nil, fmt.Errorf("scan row of %q: %w", table, err)
		}
		out = append(out, decodeCells(cells))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows of %q: %w", table, err)
	}
	return out, nil
}

// Append inserts row after the current last row of table.
func (s *Store) Append(ctx context.Context, table string, row rowstore.Row) error {
	if len(row) == 0 {
		return fmt.Errorf("append to %q: row has no cells", table)
	}
	if err := s.requireTable(ctx, table); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (table_name, row_num, cells)
SELECT $1::text, COALESCE(MAX(row_num), 0) + 1, $2
FROM %s WHERE table_name = $1::text`, s.rows, s.rows)
	if _, err := s.pool.Exec(ctx, query, table, encodeCells(row)); err != nil {
		return fmt.Errorf("append to %q: %w", table, err)
	}
	return nil
}

// SetCell overwrites one cell of an existing row.
func (s *Store) SetCell(ctx context.Context, table string, row, col int, value any) error {
	if err := rowstore.CheckAddress(row, col); err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET cells[$3] = $4 WHERE table_name = $1 AND row_num = $2`, s.rows)
	tag, err := s.pool.Exec(ctx, query, table, int32(row), int32(col), encodeCell(value))
	if err != nil {
		return fmt.Errorf("set cell %d,%d of %q: %w", row, col, table, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if err := s.requireTable(ctx, table); err != nil {
		return err
	}
	return fmt.Errorf("set cell of %q: row %d does not exist", table, row)
}

func (s *Store) requireTable(ctx context.Context, table string) error {
	exists, err := s.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return rowstore.NotFound(table)
	}
	return nil
}

func encodeCells(row rowstore.Row) []pgtype.Text {
	out := make([]pgtype.Text, len(row))
	for i, v := range row {
		out[i] = encodeCell(v)
	}
	return out
}

func encodeCell(v any) pgtype.Text {
	if v == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: rowstore.CellString(v), Valid: true}
}

func decodeCells(cells []pgtype.Text) rowstore.Row {
	row := make(rowstore.Row, len(cells))
	for i, c := range cells {
		if c.Valid {
			row[i] = c.String
		}
	}
	return row
}
