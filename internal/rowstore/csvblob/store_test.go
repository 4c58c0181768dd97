package csvblob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/querydesk/internal/rowstore"
	"github.com/JakeFAU/querydesk/internal/storage"
	"github.com/JakeFAU/querydesk/internal/storage/local"
	"github.com/JakeFAU/querydesk/internal/storage/memory"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := memory.NewBlobStore()
	store, err := NewStore(blobs, Config{Prefix: "/tables/"})
	require.NoError(t, err)
	require.Equal(t, "tables/QueryData.csv", store.ObjectPath("QueryData"))

	exists, err := store.TableExists(ctx, "QueryData")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.EnsureTable(ctx, "QueryData"))
	exists, err = store.TableExists(ctx, "QueryData")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, store.Append(ctx, "QueryData", rowstore.Row{"2024-01-01", "09:00:00", "a@example.com", "has, comma\nand newline"}))
	require.NoError(t, store.Append(ctx, "QueryData", rowstore.Row{"2024-01-02", "10:00:00", "b@example.com", "second"}))
	require.NoError(t, store.SetCell(ctx, "QueryData", 1, 6, "flagged"))

	rows, err := store.Rows(ctx, "QueryData")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "has, comma\nand newline", rows[0].String(4))
	require.Equal(t, "", rows[0].String(5))
	require.Equal(t, "flagged", rows[0].String(6))
	require.Len(t, rows[1], 4)

	raw, err := blobs.GetObject(ctx, "tables/QueryData.csv")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "2024-01-01,09:00:00,a@example.com,\"has, comma"))
}

func TestStoreMissingTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := NewStore(memory.NewBlobStore(), Config{})
	require.NoError(t, err)

	_, err = store.Rows(ctx, "QueryData")
	require.True(t, errors.Is(err, rowstore.ErrTableNotFound))
	require.EqualError(t, err, `Table "QueryData" not found.`)
	require.True(t, errors.Is(store.Append(ctx, "QueryData", rowstore.Row{"x"}), rowstore.ErrTableNotFound))
	require.True(t, errors.Is(store.SetCell(ctx, "QueryData", 1, 1, "x"), rowstore.ErrTableNotFound))
}

func TestStoreOnLocalDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	store, err := NewStore(blobs, Config{Prefix: "data"})
	require.NoError(t, err)

	require.NoError(t, store.EnsureTable(ctx, "QARatings"))
	require.NoError(t, store.Append(ctx, "QARatings", rowstore.Row{"target", nil, nil, "4", "clear"}))

	reopened, err := NewStore(blobs, Config{Prefix: "data"})
	require.NoError(t, err)
	rows, err := reopened.Rows(ctx, "QARatings")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "4", rows[0].String(4))
	require.Equal(t, "clear", rows[0].String(5))
}

type failingBlobs struct{}

func (failingBlobs) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("disk full")
}

func (failingBlobs) GetObject(context.Context, string) ([]byte, error) {
	return nil, errors.New("unavailable")
}

var _ storage.BlobStore = failingBlobs{}

func TestStoreBlobErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := NewStore(failingBlobs{}, Config{})
	require.NoError(t, err)

	_, err = store.TableExists(ctx, "QueryData")
	require.ErrorContains(t, err, "unavailable")
	_, err = store.Rows(ctx, "QueryData")
	require.ErrorContains(t, err, "unavailable")
	require.False(t, errors.Is(err, rowstore.ErrTableNotFound))

	_, err = NewStore(nil, Config{})
	require.Error(t, err)
}
