package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tripplanner/internal/models"
)

// JSONStorage implements the Storage interface using a JSON file for persistence.
// It provides an in-memory cache for performance and supports concurrent access.
// Writes go to a temporary file that is renamed over the original.
type JSONStorage struct {
	filePath     string
	cacheTTL     time.Duration
	mu           sync.RWMutex
	data         *JSONData
	lastModified time.Time
	cacheExpiry  time.Time
}

// JSONData represents the structure of data stored in JSON format
type JSONData struct {
	Users       []*userRecord     `json:"users"`
	Trips       []*models.Trip    `json:"trips"`
	Messages    []*models.Message `json:"messages"`
	LastUpdated time.Time         `json:"last_updated"`
}

// userRecord persists the token hash that models.User hides from API output.
type userRecord struct {
	models.User
	TokenHash string `json:"token_hash"`
}

func newUserRecord(u *models.User) *userRecord {
	return &userRecord{User: *u, TokenHash: u.TokenHash}
}

func (r *userRecord) toModel() *models.User {
	u := r.User
	u.TokenHash = r.TokenHash
	return &u
}

// NewJSONStorage creates a new JSON-based storage instance
func NewJSONStorage(config Config) (*JSONStorage, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("path is required for JSON storage")
	}

	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	storage := &JSONStorage{
		filePath: config.Path,
		cacheTTL: cacheTTL,
	}

	// Initialize with empty data if file doesn't exist
	if err := storage.ensureFileExists(); err != nil {
		return nil, fmt.Errorf("failed to ensure file exists: %w", err)
	}

	// Load initial data
	if err := storage.loadData(); err != nil {
		return nil, fmt.Errorf("failed to load initial data: %w", err)
	}

	return storage, nil
}

// ensureFileExists creates the JSON file with empty data if it doesn't exist
func (j *JSONStorage) ensureFileExists() error {
	if _, err := os.Stat(j.filePath); os.IsNotExist(err) {
		// Create directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(j.filePath), 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}

		return j.saveData(&JSONData{})
	}
	return nil
}

// loadData loads data from the JSON file with caching.
// It uses double-checked locking: a fast read-lock path for cache hits,
// and a write-lock slow path with re-validation to prevent TOCTOU races.
func (j *JSONStorage) loadData() error {
	// Fast path: cache is still valid.
	j.mu.RLock()
	if j.data != nil && time.Now().Before(j.cacheExpiry) {
		j.mu.RUnlock()
		return nil
	}
	j.mu.RUnlock()

	// Slow path: acquire write lock and re-validate before doing any I/O.
	j.mu.Lock()
	defer j.mu.Unlock()

	// Another goroutine may have loaded while we waited for the write lock.
	if j.data != nil && time.Now().Before(j.cacheExpiry) {
		return nil
	}

	info, err := os.Stat(j.filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	// If the file hasn't changed, extend the cache and return.
	if j.data != nil && !info.ModTime().After(j.lastModified) {
		j.cacheExpiry = time.Now().Add(j.cacheTTL)
		return nil
	}

	fileData, err := os.ReadFile(j.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var data JSONData
	if err := json.Unmarshal(fileData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	j.data = &data
	j.lastModified = info.ModTime()
	j.cacheExpiry = time.Now().Add(j.cacheTTL)
	return nil
}

// saveData writes data to a temporary file and renames it into place.
// Callers hold the write lock.
func (j *JSONStorage) saveData(data *JSONData) error {
	data.LastUpdated = time.Now().UTC()

	fileData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(j.filePath), filepath.Base(j.filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(fileData); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, j.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace file: %w", err)
	}

	if info, err := os.Stat(j.filePath); err == nil {
		j.lastModified = info.ModTime()
	}
	return nil
}

// CreateUser stores a new user
func (j *JSONStorage) CreateUser(ctx context.Context, user *models.User) error {
	if err := j.loadData(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, existing := range j.data.Users {
		if existing.Email == user.Email || existing.ID == user.ID {
			return ErrConflict
		}
	}

	j.data.Users = append(j.data.Users, newUserRecord(user))
	return j.saveData(j.data)
}

// GetUser retrieves a user by ID
func (j *JSONStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	return j.findUser(func(r *userRecord) bool { return r.ID == id })
}

// GetUserByEmail retrieves a user by email
func (j *JSONStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return j.findUser(func(r *userRecord) bool { return r.Email == email })
}

// GetUserByTokenHash retrieves a user by the SHA-256 hash of their token
func (j *JSONStorage) GetUserByTokenHash(ctx context.Context, hash string) (*models.User, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return j.findUser(func(r *userRecord) bool { return r.TokenHash == hash })
}

func (j *JSONStorage) findUser(match func(*userRecord) bool) (*models.User, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	for _, r := range j.data.Users {
		if match(r) {
			return r.toModel(), nil
		}
	}
	return nil, ErrNotFound
}

// ListUsers returns all users, oldest first
func (j *JSONStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]*models.User, 0, len(j.data.Users))
	for _, r := range j.data.Users {
		out = append(out, r.toModel())
	}
	sortUsers(out)
	return out, nil
}

// SaveTrip stores or updates a trip
func (j *JSONStorage) SaveTrip(ctx context.Context, trip *models.Trip) error {
	if err := j.loadData(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	// Find existing trip
	for i, existing := range j.data.Trips {
		if existing.ID == trip.ID {
			j.data.Trips[i] = copyTrip(trip)
			return j.saveData(j.data)
		}
	}

	// Add new trip
	j.data.Trips = append(j.data.Trips, copyTrip(trip))
	return j.saveData(j.data)
}

// GetTrip retrieves a trip by ID
func (j *JSONStorage) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	for _, trip := range j.data.Trips {
		if trip.ID == id {
			return copyTrip(trip), nil
		}
	}
	return nil, ErrNotFound
}

// ListTrips returns a user's trips, most recently updated first
func (j *JSONStorage) ListTrips(ctx context.Context, userID string) ([]*models.Trip, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	out := []*models.Trip{}
	for _, trip := range j.data.Trips {
		if trip.UserID == userID {
			out = append(out, copyTrip(trip))
		}
	}
	sortTrips(out)
	return out, nil
}

// DeleteTrip removes a trip and its conversation
func (j *JSONStorage) DeleteTrip(ctx context.Context, id string) error {
	if err := j.loadData(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	idx := -1
	for i, trip := range j.data.Trips {
		if trip.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	j.data.Trips = append(j.data.Trips[:idx], j.data.Trips[idx+1:]...)

	kept := j.data.Messages[:0]
	for _, msg := range j.data.Messages {
		if msg.TripID != id {
			kept = append(kept, msg)
		}
	}
	j.data.Messages = kept

	return j.saveData(j.data)
}

// AppendMessage adds a message to a trip's conversation
func (j *JSONStorage) AppendMessage(ctx context.Context, msg *models.Message) error {
	if err := j.loadData(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	found := false
	for _, trip := range j.data.Trips {
		if trip.ID == msg.TripID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}

	j.data.Messages = append(j.data.Messages, copyMessage(msg))
	return j.saveData(j.data)
}

// Messages returns a trip's conversation in insertion order
func (j *JSONStorage) Messages(ctx context.Context, tripID string) ([]*models.Message, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	out := []*models.Message{}
	for _, msg := range j.data.Messages {
		if msg.TripID == tripID {
			out = append(out, copyMessage(msg))
		}
	}
	return out, nil
}

// Ping verifies the backing file is still readable.
func (j *JSONStorage) Ping(_ context.Context) error {
	if _, err := os.Stat(j.filePath); err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	return nil
}

// Close closes the storage connection and cleans up resources
func (j *JSONStorage) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	// Clear cache
	j.data = nil
	j.cacheExpiry = time.Time{}

	return nil
}
