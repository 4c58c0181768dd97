package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/querydesk/internal/rowstore"
	"github.com/JakeFAU/querydesk/internal/rowstore/memory"
)

func TestFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := seededStore(
		rowstore.Row{"2024-06-15", "11:00:00", "other@example.com", "best pizza"},
		rowstore.Row{"2024-06-15", "11:00:00", " Me@Example.com", " Best Pizza "},
		rowstore.Row{"2024-06-15", "11:30:00", "me@example.com", "best pizza"},
	)
	svc := newTestService(t, store, nil)

	res, err := svc.Flag(ctx, FlagRequest{TargetSentence: "BEST PIZZA", TaskID: "T-42", Flag: "duplicate"}, "me@example.com ")
	require.NoError(t, err)
	require.Equal(t, FlagResult{Success: true, Message: MsgFlagged, Row: 2}, res)

	rows, err := store.Rows(ctx, "QueryData")
	require.NoError(t, err)
	require.Equal(t, "T-42", rows[1].String(5))
	require.Equal(t, "duplicate", rows[1].String(6))
	require.Len(t, rows[2], 4, "only the first matching row is flagged")
}

func TestFlagMisses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no matching row", func(t *testing.T) {
		t.Parallel()
		store := seededStore(rowstore.Row{"2024-06-15", "11:00:00", "other@example.com", "best pizza"})
		svc := newTestService(t, store, nil)
		res, err := svc.Flag(ctx, FlagRequest{TargetSentence: "best pizza", TaskID: "1", Flag: "x"}, "me@example.com")
		require.NoError(t, err)
		require.Equal(t, FlagResult{Error: MsgNoFlagRow}, res)
	})

	t.Run("missing table", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t, memory.NewStore(), nil)
		res, err := svc.Flag(ctx, FlagRequest{TargetSentence: "q"}, "me@example.com")
		require.NoError(t, err)
		require.Equal(t, `Table "QueryData" not found.`, res.Error)
		require.False(t, res.Success)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t, brokenStore{}, nil)
		_, err := svc.Flag(ctx, FlagRequest{TargetSentence: "q"}, "me@example.com")
		require.Error(t, err)
	})
}
