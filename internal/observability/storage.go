package observability

import (
	"context"
	"errors"
	"time"

	"tripplanner/internal/models"
	"tripplanner/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedStorage wraps a storage.Storage implementation with
// OpenTelemetry tracing and metrics instrumentation.
type InstrumentedStorage struct {
	inner    storage.Storage
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

var _ storage.Storage = (*InstrumentedStorage)(nil)

// NewInstrumentedStorage creates a new storage wrapper that records trace spans,
// operation latency histograms, and error counters for every storage method call.
func NewInstrumentedStorage(inner storage.Storage) (*InstrumentedStorage, error) {
	tracer := otel.Tracer("tripplanner/storage")
	meter := otel.Meter("tripplanner/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStorage{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

// begin opens a span for operation and returns the function that closes it,
// recording latency and, for failures, the error counter.
func (s *InstrumentedStorage) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "storage."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("storage.operation", operation))...),
	)
	start := time.Now()

	return ctx, func(err error) {
		defer span.End()
		op := attribute.String("operation", operation)
		s.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(op))
		if err == nil {
			span.SetStatus(codes.Ok, "")
			return
		}

		kind := errorType(err)
		s.errors.Add(ctx, 1, metric.WithAttributes(op, attribute.String("error.type", kind)))
		span.SetAttributes(attribute.String("error.type", kind))
		// ErrNotFound leaves the span status unset.
		if kind == "not_found" {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, storage.ErrConflict):
		return "conflict"
	default:
		return "other"
	}
}

func (s *InstrumentedStorage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, done := s.begin(ctx, "CreateUser", attribute.String("user_id", user.ID))
	err := s.inner.CreateUser(ctx, user)
	done(err)
	return err
}

func (s *InstrumentedStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	ctx, done := s.begin(ctx, "GetUser", attribute.String("user_id", id))
	result, err := s.inner.GetUser(ctx, id)
	done(err)
	return result, err
}

func (s *InstrumentedStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, done := s.begin(ctx, "GetUserByEmail")
	result, err := s.inner.GetUserByEmail(ctx, email)
	done(err)
	return result, err
}

// GetUserByTokenHash never puts the hash on the span.
func (s *InstrumentedStorage) GetUserByTokenHash(ctx context.Context, hash string) (*models.User, error) {
	ctx, done := s.begin(ctx, "GetUserByTokenHash")
	result, err := s.inner.GetUserByTokenHash(ctx, hash)
	done(err)
	return result, err
}

func (s *InstrumentedStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	ctx, done := s.begin(ctx, "ListUsers")
	result, err := s.inner.ListUsers(ctx)
	done(err)
	return result, err
}

func (s *InstrumentedStorage) SaveTrip(ctx context.Context, trip *models.Trip) error {
	ctx, done := s.begin(ctx, "SaveTrip",
		attribute.String("trip_id", trip.ID),
		attribute.String("user_id", trip.UserID),
	)
	err := s.inner.SaveTrip(ctx, trip)
	done(err)
	return err
}

func (s *InstrumentedStorage) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	ctx, done := s.begin(ctx, "GetTrip", attribute.String("trip_id", id))
	result, err := s.inner.GetTrip(ctx, id)
	done(err)
	return result, err
}

func (s *InstrumentedStorage) ListTrips(ctx context.Context, userID string) ([]*models.Trip, error) {
	ctx, done := s.begin(ctx, "ListTrips", attribute.String("user_id", userID))
	result, err := s.inner.ListTrips(ctx, userID)
	done(err)
	return result, err
}

func (s *InstrumentedStorage) DeleteTrip(ctx context.Context, id string) error {
	ctx, done := s.begin(ctx, "DeleteTrip", attribute.String("trip_id", id))
	err := s.inner.DeleteTrip(ctx, id)
	done(err)
	return err
}

func (s *InstrumentedStorage) AppendMessage(ctx context.Context, msg *models.Message) error {
	ctx, done := s.begin(ctx, "AppendMessage",
		attribute.String("trip_id", msg.TripID),
		attribute.String("role", msg.Role),
	)
	err := s.inner.AppendMessage(ctx, msg)
	done(err)
	return err
}

func (s *InstrumentedStorage) Messages(ctx context.Context, tripID string) ([]*models.Message, error) {
	ctx, done := s.begin(ctx, "Messages", attribute.String("trip_id", tripID))
	result, err := s.inner.Messages(ctx, tripID)
	done(err)
	return result, err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	ctx, done := s.begin(ctx, "Ping")
	err := s.inner.Ping(ctx)
	done(err)
	return err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
