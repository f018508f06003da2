// Package planner implements the chat-driven trip planner and the trip and
// user operations behind the HTTP API.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tripplanner/internal/models"
	"tripplanner/internal/storage"
)

// Service handles chat planning and trip bookkeeping on top of a storage backend
type Service struct {
	storage storage.Storage
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the reference clock used to resolve dates without a year.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new planner service with the given storage backend
func NewService(storage storage.Storage, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chat records the user's message, merges any trip details it mentions into
// the trip and replies with a summary and the next question.
func (s *Service) Chat(ctx context.Context, user *models.User, req *models.ChatRequest) (*models.ChatResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, NewInvalidRequestError("invalid chat request", err)
	}

	var trip *models.Trip
	if req.TripID == "" {
		trip = models.NewTrip(user.ID, "")
		if err := s.storage.SaveTrip(ctx, trip); err != nil {
			return nil, NewInternalError("failed to create trip", err)
		}
		slog.Debug("Started trip from chat", "trip_id", trip.ID, "user_id", user.ID)
	} else {
		var err error
		if trip, err = s.ownedTrip(ctx, user, req.TripID); err != nil {
			return nil, err
		}
	}

	if err := s.storage.AppendMessage(ctx, models.NewMessage(trip.ID, user.ID, models.RoleUser, req.Message)); err != nil {
		return nil, s.tripError(trip.ID, "failed to record message", err)
	}

	extracted := ExtractContextAt(req.Message, s.now())
	if mergeContext(trip, extracted) {
		if err := s.storage.SaveTrip(ctx, trip); err != nil {
			return nil, NewInternalError("failed to update trip", err)
		}
	}

	content, missing := BuildReply(trip, extracted)
	reply := models.NewMessage(trip.ID, user.ID, models.RoleAssistant, content)
	if err := s.storage.AppendMessage(ctx, reply); err != nil {
		return nil, s.tripError(trip.ID, "failed to record reply", err)
	}

	return &models.ChatResponse{
		TripID:    trip.ID,
		Reply:     reply,
		Context:   extracted,
		Trip:      trip,
		Missing:   missing,
		CreatedAt: reply.CreatedAt,
	}, nil
}

// mergeContext applies extracted to trip and keeps the date range coherent.
// A duration alone extends a known start date; an end date that would precede
// the start is dropped.
func mergeContext(trip *models.Trip, extracted models.TripContext) bool {
	changed := trip.ApplyContext(extracted)

	if trip.StartDate != "" && extracted.EndDate == "" && extracted.DurationDays > 0 {
		if start, err := time.Parse(models.DateLayout, trip.StartDate); err == nil {
			end := start.AddDate(0, 0, extracted.DurationDays).Format(models.DateLayout)
			if trip.EndDate != end {
				trip.EndDate = end
				changed = true
			}
		}
	}

	if trip.StartDate != "" && trip.EndDate != "" && trip.EndDate < trip.StartDate {
		trip.EndDate = ""
		changed = true
	}

	if changed {
		trip.UpdatedAt = time.Now().UTC()
	}
	return changed
}

// CreateTrip stores a new trip owned by user.
func (s *Service) CreateTrip(ctx context.Context, user *models.User, req *models.CreateTripRequest) (*models.Trip, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, NewInvalidRequestError("invalid trip request", err)
	}

	trip := req.ToTrip(user.ID)
	if err := trip.Validate(); err != nil {
		return nil, NewValidationError("trip validation failed", err)
	}
	if err := s.storage.SaveTrip(ctx, trip); err != nil {
		return nil, NewInternalError("failed to save trip", err)
	}
	return trip, nil
}

// GetTrip returns one of the user's trips.
func (s *Service) GetTrip(ctx context.Context, user *models.User, tripID string) (*models.Trip, error) {
	return s.ownedTrip(ctx, user, tripID)
}

// ListTrips returns the user's trips, most recently updated first.
func (s *Service) ListTrips(ctx context.Context, user *models.User) (*models.ListTripsResponse, error) {
	trips, err := s.storage.ListTrips(ctx, user.ID)
	if err != nil {
		return nil, NewInternalError("failed to list trips", err)
	}
	return &models.ListTripsResponse{
		Trips:      trips,
		TotalCount: len(trips),
	}, nil
}

// UpdateTrip applies a partial update to one of the user's trips.
func (s *Service) UpdateTrip(ctx context.Context, user *models.User, tripID string, req *models.UpdateTripRequest) (*models.Trip, error) {
	if err := req.Validate(); err != nil {
		return nil, NewInvalidRequestError("invalid trip update", err)
	}

	trip, err := s.ownedTrip(ctx, user, tripID)
	if err != nil {
		return nil, err
	}

	req.Apply(trip)
	if err := trip.Validate(); err != nil {
		return nil, NewValidationError("trip validation failed", err)
	}
	if err := s.storage.SaveTrip(ctx, trip); err != nil {
		return nil, NewInternalError("failed to save trip", err)
	}
	return trip, nil
}

// DeleteTrip removes one of the user's trips together with its conversation.
func (s *Service) DeleteTrip(ctx context.Context, user *models.User, tripID string) error {
	if _, err := s.ownedTrip(ctx, user, tripID); err != nil {
		return err
	}
	if err := s.storage.DeleteTrip(ctx, tripID); err != nil {
		return s.tripError(tripID, "failed to delete trip", err)
	}
	return nil
}

// Messages returns the conversation of one of the user's trips.
func (s *Service) Messages(ctx context.Context, user *models.User, tripID string) (*models.ListMessagesResponse, error) {
	if _, err := s.ownedTrip(ctx, user, tripID); err != nil {
		return nil, err
	}
	messages, err := s.storage.Messages(ctx, tripID)
	if err != nil {
		return nil, NewInternalError("failed to load messages", err)
	}
	return &models.ListMessagesResponse{
		TripID:     tripID,
		Messages:   messages,
		TotalCount: len(messages),
	}, nil
}

// CreateUser registers a user and returns its access token. The token is
// only ever returned here.
func (s *Service) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.CreateUserResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, NewInvalidRequestError("invalid user request", err)
	}

	token, err := models.GenerateToken()
	if err != nil {
		return nil, NewInternalError("failed to generate token", err)
	}

	user := models.NewUser(req.Email, req.Name, token)
	user.Newsletter = req.Newsletter
	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, NewConflictError(fmt.Sprintf("a user with email '%s' already exists", user.Email))
		}
		return nil, NewInternalError("failed to create user", err)
	}

	slog.Info("User created", "user_id", user.ID, "token_prefix", user.TokenPrefix)

	return &models.CreateUserResponse{
		User:    user,
		Token:   token,
		Message: "Store this token securely; it will not be shown again",
	}, nil
}

// GetUser looks a user up by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError(fmt.Sprintf("user '%s' not found", userID))
		}
		return nil, NewInternalError("failed to get user", err)
	}
	return user, nil
}

// ListUsers returns every registered user, oldest first.
func (s *Service) ListUsers(ctx context.Context) (*models.ListUsersResponse, error) {
	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, NewInternalError("failed to list users", err)
	}
	return &models.ListUsersResponse{
		Users:      users,
		TotalCount: len(users),
	}, nil
}

// EnsureUser returns the user registered with email, creating it with a
// throwaway token when it does not exist yet.
func (s *Service) EnsureUser(ctx context.Context, email, name string) (*models.User, error) {
	req := &models.CreateUserRequest{Email: email, Name: name}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, NewInvalidRequestError("invalid user", err)
	}

	user, err := s.storage.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, NewInternalError("failed to look up user", err)
	}

	created, err := s.CreateUser(ctx, req)
	if err == nil {
		return created.User, nil
	}

	// Lost a race with another creator.
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Code == models.ErrorCodeConflict {
		if user, err := s.storage.GetUserByEmail(ctx, req.Email); err == nil {
			return user, nil
		}
	}
	return nil, err
}

// ownedTrip loads a trip and checks that user owns it.
func (s *Service) ownedTrip(ctx context.Context, user *models.User, tripID string) (*models.Trip, error) {
	if tripID == "" {
		return nil, NewInvalidRequestError("trip ID is required", nil)
	}
	trip, err := s.storage.GetTrip(ctx, tripID)
	if err != nil {
		return nil, s.tripError(tripID, "failed to get trip", err)
	}
	if trip.UserID != user.ID {
		return nil, NewForbiddenError(fmt.Sprintf("trip '%s' belongs to another user", tripID))
	}
	return trip, nil
}

func (s *Service) tripError(tripID, message string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewTripNotFoundError(tripID)
	}
	return NewInternalError(message, err)
}
