package queries

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/querydesk/internal/rowstore"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Publisher delivers submission events.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// IDGenerator creates event identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithPublisher enables submission events.
func WithPublisher(pub Publisher) Option {
	return func(s *Service) {
		s.publisher = pub
	}
}

// WithIDGenerator sets the event ID source.
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Service) {
		s.ids = ids
	}
}

// Service implements the submission, match, flag and rating operations.
type Service struct {
	store     rowstore.Store
	cfg       Config
	logger    *zap.Logger
	clock     Clock
	publisher Publisher
	ids       IDGenerator
	tracer    trace.Tracer

	// submitMu serialises the scan-then-write of Submit within this process.
	submitMu sync.Mutex
}

// New constructs a Service over store.
func New(store rowstore.Store, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("row store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid queries config: %w", err)
	}
	s := &Service{
		store:  store,
		cfg:    cfg,
		logger: zap.NewNop(),
		clock:  systemClock{},
		tracer: otel.Tracer("github.com/JakeFAU/querydesk/internal/queries"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("queries")
	return s, nil
}

// Config returns the service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Ready reports whether the queries table is reachable.
func (s *Service) Ready(ctx context.Context) error {
	ok, err := s.store.TableExists(ctx, s.cfg.Tables.Queries)
	if err != nil {
		return fmt.Errorf("check table %q: %w", s.cfg.Tables.Queries, err)
	}
	if !ok {
		return rowstore.NotFound(s.cfg.Tables.Queries)
	}
	return nil
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.cfg.Location)
}
