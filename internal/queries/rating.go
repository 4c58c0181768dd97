package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JakeFAU/querydesk/internal/metrics"
	"github.com/JakeFAU/querydesk/internal/rowstore"
)

// Rating messages.
const (
	MsgAwaitingRating = "Awaiting QA Rating"
	msgNoRatingRowFmt = "No matching target sentence found in %s table"
)

// LookupRating finds the QA rating for target in the ratings table. A missing
// table or an unrated target is reported in RatingResult.Error.
func (s *Service) LookupRating(ctx context.Context, target string) (RatingResult, error) {
	ctx, span := s.tracer.Start(ctx, "queries.LookupRating")
	defer span.End()

	table := s.cfg.Tables.Ratings
	rows, err := s.store.Rows(ctx, table)
	if errors.Is(err, rowstore.ErrTableNotFound) {
		metrics.ObserveRatingLookup("missing_table")
		return RatingResult{Error: rowstore.NotFound(table).Error()}, nil
	}
	if err != nil {
		return RatingResult{}, fmt.Errorf("read %s: %w", table, err)
	}

	cols := s.cfg.RatingColumns
	want := strings.ToLower(strings.TrimSpace(target))
	for _, row := range rows {
		if strings.ToLower(strings.TrimSpace(row.String(cols.Target))) != want {
			continue
		}
		rating, ok := row.Cell(cols.Rating)
		if !ok || isEmptyRating(rating) {
			metrics.ObserveRatingLookup(RatingAwaiting)
			return RatingResult{Status: RatingAwaiting, Message: MsgAwaitingRating}, nil
		}
		reasoning := ""
		if cols.Reasoning > 0 {
			reasoning = row.String(cols.Reasoning)
		}
		metrics.ObserveRatingLookup(RatingRated)
		return RatingResult{Status: RatingRated, Rating: rating, Reasoning: &reasoning}, nil
	}

	metrics.ObserveRatingLookup("not_found")
	return RatingResult{Error: fmt.Sprintf(msgNoRatingRowFmt, table)}, nil
}

// isEmptyRating reports whether a rating cell holds no rating yet.
func isEmptyRating(v any) bool {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val) == ""
	case bool:
		return !val
	case float64:
		return val == 0
	case int:
		return val == 0
	case int64:
		return val == 0
	default:
		return false
	}
}
