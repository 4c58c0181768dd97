package gcs

import "testing"

func TestNewValidatesInputs(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, Config{Bucket: "tables"}); err == nil {
		t.Fatal("expected error for nil client")
	}
}
