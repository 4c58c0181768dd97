package queries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/JakeFAU/querydesk/internal/metrics"
	"github.com/JakeFAU/querydesk/internal/querytext"
	"github.com/JakeFAU/querydesk/internal/rowstore"
)

// Submission messages.
const (
	MsgNoQuery   = "Could not extract valid query from the input."
	MsgUpdated   = "Existing query updated with new timestamp."
	MsgSubmitted = "Query submitted successfully!"
)

// Submit records raw for caller. An existing row with the same email and
// query gets a fresh timestamp; otherwise a new row is appended. A missing
// queries table is returned as an error wrapping rowstore.ErrTableNotFound.
func (s *Service) Submit(ctx context.Context, raw, caller string) (SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "queries.Submit")
	defer span.End()

	caller = strings.TrimSpace(caller)
	if caller == "" {
		caller = s.cfg.DefaultIdentity
	}

	extracted, ok := querytext.Extract(raw, s.cfg.Phrases)
	query := ""
	if ok {
		query = querytext.Normalize(extracted)
	}
	if query == "" {
		metrics.ObserveSubmission("rejected")
		return SubmitResult{Submitted: false, Message: MsgNoQuery}, nil
	}
	span.SetAttributes(attribute.Int("query.length", len(query)))

	outcome, row, now, err := s.upsert(ctx, caller, query)
	if err != nil {
		metrics.ObserveSubmission("failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SubmitResult{}, err
	}
	metrics.ObserveSubmission(outcome)

	res := SubmitResult{Submitted: true, Query: query, Message: MsgSubmitted}
	if outcome == OutcomeUpdated {
		res.Message = MsgUpdated
	}
	s.logger.Info("query stored",
		zap.String("outcome", outcome),
		zap.Int("row", row),
		zap.String("email", caller),
	)

	s.publish(ctx, SubmissionEvent{
		Email:   caller,
		Query:   query,
		Date:    now.Format(DateLayout),
		Time:    now.Format(TimeLayout),
		Outcome: outcome,
		Row:     row,
	})

	if s.cfg.RatingLookup {
		rating, err := s.LookupRating(ctx, query)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("lookup rating: %w", err)
		}
		res.QARating = &rating
	}
	return res, nil
}

// upsert stamps the caller's existing row for query or appends a new one. It
// returns the outcome, the 1-based row and the timestamp written.
func (s *Service) upsert(ctx context.Context, caller, query string) (string, int, time.Time, error) {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	table := s.cfg.Tables.Queries
	rows, err := s.store.Rows(ctx, table)
	if err != nil {
		return "", 0, time.Time{}, fmt.Errorf("read %s: %w", table, err)
	}

	now := s.now()
	date, clock := now.Format(DateLayout), now.Format(TimeLayout)
	cols := s.cfg.Columns

	for i, row := range rows {
		if strings.TrimSpace(row.String(cols.Email)) != caller ||
			strings.TrimSpace(row.String(cols.Query)) != query {
			continue
		}
		rowNum := i + 1
		if err := s.store.SetCell(ctx, table, rowNum, cols.Date, date); err != nil {
			return "", 0, time.Time{}, fmt.Errorf("update date: %w", err)
		}
		if err := s.store.SetCell(ctx, table, rowNum, cols.Time, clock); err != nil {
			return "", 0, time.Time{}, fmt.Errorf("update time: %w", err)
		}
		return OutcomeUpdated, rowNum, now, nil
	}

	if err := s.store.Append(ctx, table, s.newRow(date, clock, caller, query)); err != nil {
		return "", 0, time.Time{}, fmt.Errorf("append to %s: %w", table, err)
	}
	return OutcomeCreated, len(rows) + 1, now, nil
}

// newRow lays out a fresh submission by the configured columns.
func (s *Service) newRow(date, clock, caller, query string) rowstore.Row {
	cols := s.cfg.Columns
	width := max(cols.Date, cols.Time, cols.Email, cols.Query)
	row := make(rowstore.Row, width)
	for i := range row {
		row[i] = ""
	}
	row[cols.Date-1] = date
	row[cols.Time-1] = clock
	row[cols.Email-1] = caller
	row[cols.Query-1] = query
	return row
}

func (s *Service) publish(ctx context.Context, event SubmissionEvent) {
	if s.publisher == nil {
		return
	}
	if s.ids != nil {
		id, err := s.ids.NewID()
		if err != nil {
			s.logger.Warn("event id generation failed", zap.Error(err))
		}
		event.ID = id
	}
	msgID, err := s.publisher.Publish(ctx, s.cfg.Topic, event)
	if err != nil {
		metrics.ObservePublish("error")
		s.logger.Warn("publish submission event failed",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return
	}
	metrics.ObservePublish("ok")
	s.logger.Debug("submission event published",
		zap.String("event_id", event.ID),
		zap.String("message_id", msgID),
	)
}
