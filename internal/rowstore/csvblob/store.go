// Package csvblob keeps each table as a CSV object in a blob store. A table
// named T lives at <prefix>/T.csv; a missing object is a missing table.
package csvblob

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/JakeFAU/querydesk/internal/rowstore"
	"github.com/JakeFAU/querydesk/internal/storage"
)

const contentType = "text/csv"

// Config configures the CSV object layout.
type Config struct {
	// Prefix is prepended to every object path.
	Prefix string `mapstructure:"prefix"`
}

// Store implements rowstore.Store on top of a storage.BlobStore. Writes are a
// read-modify-write of the whole object, serialised per Store.
type Store struct {
	blobs  storage.BlobStore
	prefix string
	mu     sync.Mutex
}

// NewStore wraps blobs.
func NewStore(blobs storage.BlobStore, cfg Config) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	return &Store{blobs: blobs, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

// ObjectPath returns the object path backing table.
func (s *Store) ObjectPath(table string) string {
	name := table + ".csv"
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// EnsureTable creates an empty object for table when none exists.
func (s *Store) EnsureTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load(ctx, table)
	if err == nil {
		return nil
	}
	if !errors.Is(err, rowstore.ErrTableNotFound) {
		return err
	}
	return s.save(ctx, table, nil)
}

// Rows decodes every record of the table.
func (s *Store) Rows(ctx context.Context, table string) ([]rowstore.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, table)
}

// Append writes row after the last record.
func (s *Store) Append(ctx context.Context, table string, row rowstore.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.load(ctx, table)
	if err != nil {
		return err
	}
	return s.save(ctx, table, append(rows, row))
}

// SetCell rewrites one cell, padding with empty cells as needed.
func (s *Store) SetCell(ctx context.Context, table string, row, col int, value any) error {
	if err := rowstore.CheckAddress(row, col); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.load(ctx, table)
	if err != nil {
		return err
	}
	for len(rows) < row {
		rows = append(rows, rowstore.Row{})
	}
	target := rows[row-1]
	for len(target) < col {
		target = append(target, "")
	}
	target[col-1] = value
	rows[row-1] = target
	return s.save(ctx, table, rows)
}

// TableExists reports whether the table object exists.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	_, err := s.blobs.GetObject(ctx, s.ObjectPath(table))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("stat table %q: %w", table, err)
	}
}

func (s *Store) load(ctx context.Context, table string) ([]rowstore.Row, error) {
	data, err := s.blobs.GetObject(ctx, s.ObjectPath(table))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, rowstore.NotFound(table)
	}
	if err != nil {
		return nil, fmt.Errorf("read table %q: %w", table, err)
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode table %q: %w", table, err)
	}
	rows := make([]rowstore.Row, 0, len(records))
	for _, record := range records {
		row := make(rowstore.Row, len(record))
		for i, cell := range record {
			row[i] = cell
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) save(ctx context.Context, table string, rows []rowstore.Row) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	for _, row := range rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = rowstore.CellString(cell)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("encode table %q: %w", table, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("encode table %q: %w", table, err)
	}
	if _, err := s.blobs.PutObject(ctx, s.ObjectPath(table), contentType, &buf); err != nil {
		return fmt.Errorf("write table %q: %w", table, err)
	}
	return nil
}
