package planner

import (
	"context"

	"tripplanner/internal/models"
)

// ServiceInterface defines the planner operations used by the HTTP layer.
// Trip operations act on behalf of user and fail with a forbidden error when
// the trip belongs to someone else.
type ServiceInterface interface {
	// Chat records a user message, merges the trip details it mentions and
	// answers with an assistant reply. An empty TripID starts a new trip.
	Chat(ctx context.Context, user *models.User, req *models.ChatRequest) (*models.ChatResponse, error)

	CreateTrip(ctx context.Context, user *models.User, req *models.CreateTripRequest) (*models.Trip, error)
	GetTrip(ctx context.Context, user *models.User, tripID string) (*models.Trip, error)
	ListTrips(ctx context.Context, user *models.User) (*models.ListTripsResponse, error)
	UpdateTrip(ctx context.Context, user *models.User, tripID string, req *models.UpdateTripRequest) (*models.Trip, error)
	DeleteTrip(ctx context.Context, user *models.User, tripID string) error

	// Messages returns the trip's conversation, oldest first.
	Messages(ctx context.Context, user *models.User, tripID string) (*models.ListMessagesResponse, error)

	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.CreateUserResponse, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context) (*models.ListUsersResponse, error)

	// EnsureUser returns the user with email, creating it if needed.
	EnsureUser(ctx context.Context, email, name string) (*models.User, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
