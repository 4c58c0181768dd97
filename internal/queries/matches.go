package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/JakeFAU/querydesk/internal/metrics"
	"github.com/JakeFAU/querydesk/internal/rowstore"
)

// Skip reasons reported in logs and metrics.
const (
	skipBadTime     = "unparseable_time"
	skipMissingTime = "missing_time"
	skipNoName      = "missing_display_name"
)

// FindMatches returns other users' rows whose search column equals value,
// compared trimmed and case-insensitively. Rows stored under caller's exact
// email are never returned. A missing table comes back in MatchResult.Error;
// the returned error is reserved for store failures.
func (s *Service) FindMatches(ctx context.Context, value, caller string) (MatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "queries.FindMatches")
	defer span.End()

	table := s.cfg.Tables.Queries
	rows, err := s.store.Rows(ctx, table)
	if errors.Is(err, rowstore.ErrTableNotFound) {
		s.logger.Warn("queries table missing", zap.String("table", table))
		return MatchResult{Matches: []Match{}, Error: rowstore.NotFound(table).Error()}, nil
	}
	if err != nil {
		return MatchResult{}, fmt.Errorf("read %s: %w", table, err)
	}

	now := s.now()
	want := strings.ToLower(strings.TrimSpace(value))
	cols := s.cfg.Columns
	search := s.cfg.searchColumn()

	matches := make([]Match, 0)
	for i, row := range rows {
		rowNum := i + 1
		if row.String(cols.Email) == caller {
			continue
		}
		if _, ok := row.Cell(search); !ok {
			continue
		}
		if strings.ToLower(strings.TrimSpace(row.String(search))) != want {
			continue
		}

		var stamp string
		switch s.cfg.Matching.Policy {
		case PolicyAbsoluteWindow:
			if !s.withinWindow(row, rowNum, now) {
				continue
			}
		default:
			at, ok := s.rowTime(row, rowNum)
			if !ok {
				continue
			}
			stamp = RelativeAge(now.Sub(at))
		}

		name, ok := row.Cell(cols.DisplayName)
		if !ok {
			s.skip(rowNum, "", skipNoName)
			continue
		}
		matches = append(matches, Match{
			Name:        rowstore.CellString(name),
			Email:       row.String(cols.Email),
			Timestamp:   stamp,
			MatchStatus: row.String(cols.MatchStatus),
		})
	}

	policy := string(s.cfg.Matching.Policy)
	metrics.ObserveMatches(policy, len(matches))
	span.SetAttributes(
		attribute.String("matching.policy", policy),
		attribute.Int("matching.results", len(matches)),
	)
	return MatchResult{Matches: matches}, nil
}

// rowTime resolves the row's timestamp for the relative age policy. A bare
// time of day is combined with the date column when one is configured.
func (s *Service) rowTime(row rowstore.Row, rowNum int) (time.Time, bool) {
	cols := s.cfg.Columns
	loc := s.cfg.Location
	cell, ok := row.Cell(cols.Time)
	if !ok {
		s.skip(rowNum, "", skipMissingTime)
		return time.Time{}, false
	}
	switch v := cell.(type) {
	case time.Time:
		return v, true
	case string:
		if strings.TrimSpace(v) == "" {
			s.skip(rowNum, v, skipMissingTime)
			return time.Time{}, false
		}
		if h, m, sec, isClock := parseClock(v); isClock {
			if day, ok := s.rowDate(row); ok {
				return time.Date(day.Year(), day.Month(), day.Day(), h, m, sec, 0, loc), true
			}
			s.skip(rowNum, v, skipBadTime)
			return time.Time{}, false
		}
		if t, ok := parseTimestamp(v, loc); ok {
			return t, true
		}
		s.skip(rowNum, v, skipBadTime)
		return time.Time{}, false
	default:
		s.skip(rowNum, rowstore.CellString(v), skipBadTime)
		return time.Time{}, false
	}
}

func (s *Service) rowDate(row rowstore.Row) (time.Time, bool) {
	if s.cfg.Columns.Date < 1 {
		return time.Time{}, false
	}
	cell, ok := row.Cell(s.cfg.Columns.Date)
	if !ok {
		return time.Time{}, false
	}
	if t, isTime := cell.(time.Time); isTime {
		return t.In(s.cfg.Location), true
	}
	return parseTimestamp(rowstore.CellString(cell), s.cfg.Location)
}

// withinWindow compares the row's time of day with now's. The difference does
// not wrap at midnight.
func (s *Service) withinWindow(row rowstore.Row, rowNum int, now time.Time) bool {
	cell, ok := row.Cell(s.cfg.Columns.Time)
	if !ok {
		s.skip(rowNum, "", skipMissingTime)
		return false
	}
	var h, m, sec int
	switch v := cell.(type) {
	case time.Time:
		h, m, sec = v.In(s.cfg.Location).Clock()
	default:
		raw := rowstore.CellString(v)
		var parsed bool
		h, m, sec, parsed = parseClock(raw)
		if !parsed {
			s.skip(rowNum, raw, skipBadTime)
			return false
		}
	}
	nh, nm, ns := now.Clock()
	diff := secondsOfDay(h, m, sec) - secondsOfDay(nh, nm, ns)
	if diff < 0 {
		diff = -diff
	}
	return time.Duration(diff)*time.Second <= s.cfg.Matching.Window
}

func (s *Service) skip(rowNum int, value, reason string) {
	metrics.ObserveSkippedRow(reason)
	s.logger.Warn("skipping row",
		zap.Int("row", rowNum),
		zap.String("value", value),
		zap.String("reason", reason),
	)
}
