package queries

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/querydesk/internal/rowstore"
	"github.com/JakeFAU/querydesk/internal/rowstore/memory"
)

func TestRelativeAge(t *testing.T) {
	t.Parallel()

	cases := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "0 seconds ago"},
		{time.Second, "1 second ago"},
		{30 * time.Second, "30 seconds ago"},
		{59 * time.Second, "1 minute ago"},
		{90 * time.Second, "2 minutes ago"},
		{time.Minute, "1 minute ago"},
		{45 * time.Minute, "1 hour ago"},
		{3 * time.Hour, "3 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{48 * time.Hour, "2 days ago"},
		{400 * 24 * time.Hour, "400 days ago"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, RelativeAge(tc.elapsed), tc.elapsed.String())
	}
}

func TestFindMatchesRelativeAge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := testNow(t)
	store := seededStore(
		rowstore.Row{"2024-06-15", "11:59:30", "a@example.com", "Best Pizza ", "", "", "", "Alice"},
		rowstore.Row{"2024-06-15", "12:00:00", "me@example.com", "best pizza", "", "", "", "Me"},
		rowstore.Row{"2024-06-13", now.Add(-48 * time.Hour), "b@example.com", "best pizza", "", "", "", "Bob"},
		rowstore.Row{"", "2024-06-14 12:00:00", "c@example.com", "BEST PIZZA", "", "", "", "Cara"},
		rowstore.Row{"2024-06-15", "not a time", "d@example.com", "best pizza", "", "", "", "Dan"},
		rowstore.Row{"2024-06-15", "11:00:00", "e@example.com", "best pizza"},
		rowstore.Row{"2024-06-15", "11:00:00", "f@example.com", "other", "", "", "", "Fay"},
	)
	svc := newTestService(t, store, nil)

	res, err := svc.FindMatches(ctx, "  best pizza", "me@example.com")
	require.NoError(t, err)
	require.Empty(t, res.Error)
	matches := res.Matches
	require.Equal(t, []Match{
		{Name: "Alice", Email: "a@example.com", Timestamp: "30 seconds ago"},
		{Name: "Bob", Email: "b@example.com", Timestamp: "2 days ago"},
		{Name: "Cara", Email: "c@example.com", Timestamp: "1 day ago"},
	}, matches)
}

func TestFindMatchesBareTimeUsesDateColumn(t *testing.T) {
	t.Parallel()

	store := seededStore(
		rowstore.Row{"2024-06-15", "10:00:00", "a@example.com", "q", "", "Alice"},
		rowstore.Row{"", "10:00:00", "b@example.com", "q", "", "Bob"},
	)
	svc := newTestService(t, store, func(cfg *Config) { cfg.Columns.DisplayName = 6 })

	res, err := svc.FindMatches(context.Background(), "q", "me@example.com")
	require.NoError(t, err)
	require.Empty(t, res.Error)
	matches := res.Matches
	require.Equal(t, []Match{{Name: "Alice", Email: "a@example.com", Timestamp: "2 hours ago"}}, matches)
}

func TestFindMatchesAbsoluteWindow(t *testing.T) {
	t.Parallel()

	store := seededStore(
		rowstore.Row{"2024-01-01", "11:20:00", "a@example.com", "q", "", "", "", "Edge"},
		rowstore.Row{"2024-01-01", "11:19:59", "b@example.com", "q", "", "", "", "Outside"},
		rowstore.Row{"2024-06-15", "12:39:00", "c@example.com", "q", "", "", "", "Later"},
		rowstore.Row{"2024-06-15", "12:xx", "d@example.com", "q", "", "", "", "Broken"},
		rowstore.Row{"2024-06-15", "12:00:00", "me@example.com", "q", "", "", "", "Me"},
	)
	svc := newTestService(t, store, func(cfg *Config) {
		cfg.Matching.Policy = PolicyAbsoluteWindow
	})

	res, err := svc.FindMatches(context.Background(), "Q", "me@example.com")
	require.NoError(t, err)
	require.Empty(t, res.Error)
	matches := res.Matches
	require.Equal(t, []Match{
		{Name: "Edge", Email: "a@example.com"},
		{Name: "Later", Email: "c@example.com"},
	}, matches)
}

func TestFindMatchesWindowDoesNotWrapMidnight(t *testing.T) {
	t.Parallel()

	loc := newYork(t)
	store := seededStore(rowstore.Row{"2024-06-14", "23:50:00", "a@example.com", "q", "", "Late"})
	cfg := DefaultConfig()
	cfg.RatingLookup = false
	cfg.Columns.DisplayName = 6
	cfg.Matching.Policy = PolicyAbsoluteWindow
	svc, err := New(store, cfg, WithClock(fixedClock{t: time.Date(2024, 6, 15, 0, 5, 0, 0, loc)}))
	require.NoError(t, err)

	res, err := svc.FindMatches(context.Background(), "q", "me@example.com")
	require.NoError(t, err)
	require.Empty(t, res.Error)
	matches := res.Matches
	require.Empty(t, matches)
	require.NotNil(t, matches)
}

func TestFindMatchesSelfExclusionUsesRawEmail(t *testing.T) {
	t.Parallel()

	store := seededStore(
		rowstore.Row{"2024-06-15", "11:00:00", " me@example.com", "q", "", "", "", "Padded"},
		rowstore.Row{"2024-06-15", "11:00:00", "me@example.com", "q", "", "", "", "Me"},
	)
	svc := newTestService(t, store, nil)

	res, err := svc.FindMatches(context.Background(), "q", "me@example.com")
	require.NoError(t, err)
	require.Empty(t, res.Error)
	matches := res.Matches
	require.Len(t, matches, 1)
	require.Equal(t, "Padded", matches[0].Name)
	for _, m := range matches {
		require.NotEqual(t, "me@example.com", m.Email)
	}
}

func TestFindMatchesMissingTable(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, memory.NewStore(), nil)
	res, err := svc.FindMatches(context.Background(), "q", "me@example.com")
	require.NoError(t, err)
	require.Equal(t, `Table "QueryData" not found.`, res.Error)
	require.Empty(t, res.Matches)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"Table \"QueryData\" not found."}`, string(body))
}

func TestFindMatchesStoreFailure(t *testing.T) {
	t.Parallel()

	broken := newTestService(t, brokenStore{}, nil)
	_, err := broken.FindMatches(context.Background(), "q", "me@example.com")
	require.ErrorContains(t, err, "backend unavailable")
	require.False(t, errors.Is(err, rowstore.ErrTableNotFound))
}

func TestFindMatchesReportsMatchStatus(t *testing.T) {
	t.Parallel()

	store := seededStore(
		rowstore.Row{"2024-06-15", "11:00:00", "a@example.com", "q", "", "", "claimed", "Alice"},
	)
	svc := newTestService(t, store, nil)

	res, err := svc.FindMatches(context.Background(), "q", "me@example.com")
	require.NoError(t, err)
	require.Equal(t, []Match{{Name: "Alice", Email: "a@example.com", Timestamp: "1 hour ago", MatchStatus: "claimed"}}, res.Matches)

	disabled := newTestService(t, store, func(cfg *Config) { cfg.Columns.MatchStatus = 0 })
	res, err = disabled.FindMatches(context.Background(), "q", "me@example.com")
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	require.Empty(t, res.Matches[0].MatchStatus)
}

func TestMatchResultMarshalsList(t *testing.T) {
	t.Parallel()

	body, err := json.Marshal(MatchResult{})
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(body))

	body, err = json.Marshal(MatchResult{Matches: []Match{{Name: "A", Email: "a@example.com"}}})
	require.NoError(t, err)
	require.JSONEq(t, `[{"name":"A","email":"a@example.com"}]`, string(body))
}
