package queries

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/querydesk/internal/rowstore"
	"github.com/JakeFAU/querydesk/internal/rowstore/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type recordingPublisher struct {
	mu     sync.Mutex
	events []SubmissionEvent
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, payload.(SubmissionEvent))
	return "msg-1", nil
}

type staticIDs struct{}

func (staticIDs) NewID() (string, error) { return "evt-1", nil }

type brokenStore struct{ rowstore.Store }

func (brokenStore) Rows(context.Context, string) ([]rowstore.Row, error) {
	return nil, errors.New("backend unavailable")
}

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

// testNow is 2024-06-15 12:00:00 in New York.
func testNow(t *testing.T) time.Time {
	return time.Date(2024, time.June, 15, 12, 0, 0, 0, newYork(t))
}

func newTestService(t *testing.T, store rowstore.Store, mutate func(*Config), opts ...Option) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RatingLookup = false
	if mutate != nil {
		mutate(&cfg)
	}
	opts = append([]Option{WithClock(fixedClock{t: testNow(t).UTC()})}, opts...)
	svc, err := New(store, cfg, opts...)
	require.NoError(t, err)
	return svc
}

func seededStore(rows ...rowstore.Row) *memory.Store {
	store := memory.NewStore("QueryData", "QARatings")
	store.Seed("QueryData", rows...)
	return store
}
