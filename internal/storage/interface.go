package storage

import (
	"context"
	"time"

	"tripplanner/internal/models"
)

// Storage defines the interface for user, trip and conversation persistence.
// It provides a clean abstraction that can be implemented by different backends
// such as JSON files, embedded SQLite or PostgreSQL.
//
// Lookups that find nothing return ErrNotFound. Returned values are copies;
// callers may mutate them freely and must call SaveTrip to persist changes.
type Storage interface {
	// CreateUser stores a new user. Returns ErrConflict if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail retrieves a user by normalized email address
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByTokenHash retrieves the user owning the given token hash
	GetUserByTokenHash(ctx context.Context, hash string) (*models.User, error)

	// ListUsers returns all users, oldest first
	ListUsers(ctx context.Context) ([]*models.User, error)

	// SaveTrip stores or updates a trip
	SaveTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves a trip by ID
	GetTrip(ctx context.Context, id string) (*models.Trip, error)

	// ListTrips returns a user's trips, most recently updated first
	ListTrips(ctx context.Context, userID string) ([]*models.Trip, error)

	// DeleteTrip removes a trip together with its messages
	DeleteTrip(ctx context.Context, id string) error

	// AppendMessage adds a message to a trip's conversation.
	// Returns ErrNotFound if the trip does not exist.
	AppendMessage(ctx context.Context, msg *models.Message) error

	// Messages returns a trip's conversation in chronological order
	Messages(ctx context.Context, tripID string) ([]*models.Message, error)

	// Ping verifies the storage backend is reachable and operational
	Ping(ctx context.Context) error

	// Close closes the storage connection and cleans up resources
	Close() error
}

// Config holds configuration for storage backends
type Config struct {
	// Type specifies the storage backend type (json, memory, sqlite, postgres)
	Type string `json:"type" yaml:"type"`

	// Path is used for file-based storage backends
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// ConnectionString is used for database backends
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`

	// CacheTTL specifies how long the JSON backend trusts its in-memory copy
	CacheTTL time.Duration `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`

	// Connection pool tuning for database backends
	MaxOpenConns    int           `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time,omitempty" yaml:"conn_max_idle_time,omitempty"`
}
