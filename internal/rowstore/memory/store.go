// Package memory provides an in-memory row store for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/querydesk/internal/rowstore"
)

// Store keeps tables in process memory.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]rowstore.Row
}

// NewStore constructs a Store with the given empty tables.
func NewStore(tables ...string) *Store {
	s := &Store{tables: make(map[string][]rowstore.Row, len(tables))}
	for _, name := range tables {
		s.tables[name] = nil
	}
	return s
}

// Seed creates table if needed and appends rows to it.
func (s *Store) Seed(table string, rows ...rowstore.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.tables[table] = append(s.tables[table], row.Clone())
	}
	if _, ok := s.tables[table]; !ok {
		s.tables[table] = nil
	}
}

// Rows returns copies of every row in table.
func (s *Store) Rows(_ context.Context, table string) ([]rowstore.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.tables[table]
	if !ok {
		return nil, rowstore.NotFound(table)
	}
	out := make([]rowstore.Row, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out, nil
}

// Append adds row to the end of table.
func (s *Store) Append(_ context.Context, table string, row rowstore.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return rowstore.NotFound(table)
	}
	s.tables[table] = append(rows, row.Clone())
	return nil
}

// SetCell overwrites a single cell, padding the row with nil cells when col is
// past its end.
func (s *Store) SetCell(_ context.Context, table string, row, col int, value any) error {
	if err := rowstore.CheckAddress(row, col); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return rowstore.NotFound(table)
	}
	for len(rows) < row {
		rows = append(rows, nil)
	}
	target := rows[row-1]
	for len(target) < col {
		target = append(target, nil)
	}
	target[col-1] = value
	rows[row-1] = target
	s.tables[table] = rows
	return nil
}

// TableExists reports whether table was created.
func (s *Store) TableExists(_ context.Context, table string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tables[table]
	return ok, nil
}
