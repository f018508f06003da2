package storage

import (
	"context"
	"sort"
	"sync"

	"tripplanner/internal/models"
)

// MemoryStorage implements the Storage interface using in-memory data structures.
// This provider is ideal for development, testing, and scenarios where data
// persistence is not required. It provides fast access but data is lost on restart.
type MemoryStorage struct {
	mu          sync.RWMutex
	users       map[string]*models.User      // keyed by ID
	emails      map[string]string            // email -> user ID
	tokenHashes map[string]string            // token hash -> user ID
	trips       map[string]*models.Trip      // keyed by ID
	messages    map[string][]*models.Message // keyed by trip ID
}

// NewMemoryStorage creates a new memory-based storage instance
func NewMemoryStorage(config Config) (*MemoryStorage, error) {
	m := &MemoryStorage{}
	m.reset()
	return m, nil
}

func (m *MemoryStorage) reset() {
	m.users = make(map[string]*models.User)
	m.emails = make(map[string]string)
	m.tokenHashes = make(map[string]string)
	m.trips = make(map[string]*models.Trip)
	m.messages = make(map[string][]*models.Message)
}

// CreateUser stores a new user
func (m *MemoryStorage) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.emails[user.Email]; taken {
		return ErrConflict
	}
	if _, exists := m.users[user.ID]; exists {
		return ErrConflict
	}

	m.users[user.ID] = copyUser(user)
	m.emails[user.Email] = user.ID
	if user.TokenHash != "" {
		m.tokenHashes[user.TokenHash] = user.ID
	}
	return nil
}

// GetUser retrieves a user by ID
func (m *MemoryStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(user), nil
}

// GetUserByEmail retrieves a user by email
func (m *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(m.users[id]), nil
}

// GetUserByTokenHash retrieves a user by the SHA-256 hash of their token
func (m *MemoryStorage) GetUserByTokenHash(ctx context.Context, hash string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.tokenHashes[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(m.users[id]), nil
}

// ListUsers returns all users, oldest first
func (m *MemoryStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, copyUser(u))
	}
	sortUsers(out)
	return out, nil
}

// SaveTrip stores or updates a trip
func (m *MemoryStorage) SaveTrip(ctx context.Context, trip *models.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trips[trip.ID] = copyTrip(trip)
	return nil
}

// GetTrip retrieves a trip by ID
func (m *MemoryStorage) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trip, ok := m.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTrip(trip), nil
}

// ListTrips returns a user's trips, most recently updated first
func (m *MemoryStorage) ListTrips(ctx context.Context, userID string) ([]*models.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*models.Trip{}
	for _, trip := range m.trips {
		if trip.UserID == userID {
			out = append(out, copyTrip(trip))
		}
	}
	sortTrips(out)
	return out, nil
}

// DeleteTrip removes a trip and its conversation
func (m *MemoryStorage) DeleteTrip(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.trips[id]; !ok {
		return ErrNotFound
	}
	delete(m.trips, id)
	delete(m.messages, id)
	return nil
}

// AppendMessage adds a message to a trip's conversation
func (m *MemoryStorage) AppendMessage(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.trips[msg.TripID]; !ok {
		return ErrNotFound
	}
	m.messages[msg.TripID] = append(m.messages[msg.TripID], copyMessage(msg))
	return nil
}

// Messages returns a trip's conversation in insertion order
func (m *MemoryStorage) Messages(ctx context.Context, tripID string) ([]*models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[tripID]
	out := make([]*models.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = copyMessage(msg)
	}
	return out, nil
}

// Ping verifies the storage backend is reachable and operational.
func (m *MemoryStorage) Ping(_ context.Context) error {
	return nil
}

// Close closes the storage connection and cleans up resources
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Clear all data
	m.reset()
	return nil
}

func sortUsers(users []*models.User) {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}

func sortTrips(trips []*models.Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[j].UpdatedAt.Before(trips[i].UpdatedAt)
	})
}
