package memory

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/JakeFAU/querydesk/internal/storage"
)

func TestBlobStoreRoundTripCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	ctx := context.Background()
	uri, err := store.PutObject(ctx, "tables/QueryData.csv", "text/csv", bytes.NewBufferString("a,b\n"))
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if uri != "memory://tables/QueryData.csv" {
		t.Fatalf("unexpected uri %s", uri)
	}

	got, err := store.GetObject(ctx, "tables/QueryData.csv")
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	got[0] = 'X'
	again, _ := store.GetObject(ctx, "tables/QueryData.csv")
	if string(again) != "a,b\n" {
		t.Fatalf("expected stored copy to be immutable, got %q", again)
	}
}

func TestBlobStoreMissingObject(t *testing.T) {
	t.Parallel()

	_, err := NewBlobStore().GetObject(context.Background(), "missing.csv")
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}
