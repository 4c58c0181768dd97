package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/querydesk/internal/metrics"
	"github.com/JakeFAU/querydesk/internal/rowstore"
)

// Flag messages.
const (
	MsgFlagged   = "Task flagged successfully"
	MsgNoFlagRow = "No matching row found with the given target sentence and email"
)

// Flag sets the task id and flag cells on the caller's first row whose query
// equals req.TargetSentence. Matching is trimmed and case-insensitive on both
// query and email. Misses and a missing table come back in FlagResult.Error;
// the returned error is reserved for store failures.
func (s *Service) Flag(ctx context.Context, req FlagRequest, caller string) (FlagResult, error) {
	ctx, span := s.tracer.Start(ctx, "queries.Flag")
	defer span.End()

	table := s.cfg.Tables.Queries
	rows, err := s.store.Rows(ctx, table)
	if errors.Is(err, rowstore.ErrTableNotFound) {
		metrics.ObserveFlag("missing_table")
		return FlagResult{Error: rowstore.NotFound(table).Error()}, nil
	}
	if err != nil {
		return FlagResult{}, fmt.Errorf("read %s: %w", table, err)
	}

	cols := s.cfg.Columns
	target := strings.ToLower(strings.TrimSpace(req.TargetSentence))
	email := strings.ToLower(strings.TrimSpace(caller))

	for i, row := range rows {
		if strings.ToLower(strings.TrimSpace(row.String(cols.Query))) != target ||
			strings.ToLower(strings.TrimSpace(row.String(cols.Email))) != email {
			continue
		}
		rowNum := i + 1
		if err := s.store.SetCell(ctx, table, rowNum, cols.TaskID, req.TaskID); err != nil {
			return FlagResult{}, fmt.Errorf("set task id: %w", err)
		}
		if err := s.store.SetCell(ctx, table, rowNum, cols.Flag, req.Flag); err != nil {
			return FlagResult{}, fmt.Errorf("set flag: %w", err)
		}
		metrics.ObserveFlag("flagged")
		s.logger.Info("task flagged",
			zap.Int("row", rowNum),
			zap.String("task_id", req.TaskID),
			zap.String("flag", req.Flag),
		)
		return FlagResult{Success: true, Message: MsgFlagged, Row: rowNum}, nil
	}

	metrics.ObserveFlag("not_found")
	return FlagResult{Error: MsgNoFlagRow}, nil
}
