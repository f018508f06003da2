package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tripplanner/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	email        TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	token_hash   TEXT NOT NULL DEFAULT '',
	token_prefix TEXT NOT NULL DEFAULT '',
	newsletter   INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_token_hash ON users(token_hash);

CREATE TABLE IF NOT EXISTS trips (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	title       TEXT NOT NULL,
	destination TEXT NOT NULL DEFAULT '',
	origin      TEXT NOT NULL DEFAULT '',
	start_date  TEXT NOT NULL DEFAULT '',
	end_date    TEXT NOT NULL DEFAULT '',
	travelers   INTEGER NOT NULL DEFAULT 0,
	budget      REAL NOT NULL DEFAULT 0,
	currency    TEXT NOT NULL DEFAULT '',
	interests   TEXT NOT NULL DEFAULT '[]',
	status      TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trips_user ON trips(user_id, updated_at);

CREATE TABLE IF NOT EXISTS messages (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	trip_id    TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_trip ON messages(trip_id, seq);
`

const sqliteUserColumns = `id, email, name, token_hash, token_prefix, newsletter, created_at, updated_at`

const sqliteTripColumns = `id, user_id, title, destination, origin, start_date, end_date,
	travelers, budget, currency, interests, status, created_at, updated_at`

// SQLiteStorage implements the Storage interface on an embedded SQLite database
// using the pure-Go modernc.org/sqlite driver. The schema is created on open.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(config Config) (*SQLiteStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection also keeps :memory:
	// databases shared across calls.
	db.SetMaxOpenConns(1)
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// CreateUser stores a new user
func (ss *SQLiteStorage) CreateUser(ctx context.Context, user *models.User) error {
	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO users (`+sqliteUserColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.TokenHash, user.TokenPrefix, user.Newsletter,
		formatSQLiteTime(user.CreatedAt), formatSQLiteTime(user.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (ss *SQLiteStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	return ss.queryUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email
func (ss *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return ss.queryUser(ctx, `WHERE email = ?`, email)
}

// GetUserByTokenHash retrieves a user by the SHA-256 hash of their token
func (ss *SQLiteStorage) GetUserByTokenHash(ctx context.Context, hash string) (*models.User, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return ss.queryUser(ctx, `WHERE token_hash = ?`, hash)
}

func (ss *SQLiteStorage) queryUser(ctx context.Context, where string, arg string) (*models.User, error) {
	row := ss.db.QueryRowContext(ctx, `SELECT `+sqliteUserColumns+` FROM users `+where, arg)
	user, err := scanSQLiteUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all users, oldest first
func (ss *SQLiteStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := ss.db.QueryContext(ctx, `SELECT `+sqliteUserColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SaveTrip stores or updates a trip
func (ss *SQLiteStorage) SaveTrip(ctx context.Context, trip *models.Trip) error {
	interests, err := marshalInterests(trip.Interests)
	if err != nil {
		return err
	}

	_, err = ss.db.ExecContext(ctx, `
		INSERT INTO trips (`+sqliteTripColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			destination = excluded.destination,
			origin = excluded.origin,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			travelers = excluded.travelers,
			budget = excluded.budget,
			currency = excluded.currency,
			interests = excluded.interests,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		trip.ID, trip.UserID, trip.Title, trip.Destination, trip.Origin, trip.StartDate, trip.EndDate,
		trip.Travelers, trip.Budget, trip.Currency, interests, trip.Status,
		formatSQLiteTime(trip.CreatedAt), formatSQLiteTime(trip.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save trip: %w", err)
	}
	return nil
}

// GetTrip retrieves a trip by ID
func (ss *SQLiteStorage) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	row := ss.db.QueryRowContext(ctx, `SELECT `+sqliteTripColumns+` FROM trips WHERE id = ?`, id)
	trip, err := scanSQLiteTrip(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// ListTrips returns a user's trips, most recently updated first
func (ss *SQLiteStorage) ListTrips(ctx context.Context, userID string) ([]*models.Trip, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT `+sqliteTripColumns+` FROM trips WHERE user_id = ? ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	trips := []*models.Trip{}
	for rows.Next() {
		trip, err := scanSQLiteTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// DeleteTrip removes a trip and its conversation in one transaction
func (ss *SQLiteStorage) DeleteTrip(ctx context.Context, id string) error {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE trip_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return tx.Commit()
}

// AppendMessage adds a message to a trip's conversation
func (ss *SQLiteStorage) AppendMessage(ctx context.Context, msg *models.Message) error {
	res, err := ss.db.ExecContext(ctx, `
		INSERT INTO messages (id, trip_id, user_id, role, content, created_at)
		SELECT ?, ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM trips WHERE id = ?)`,
		msg.ID, msg.TripID, msg.UserID, msg.Role, msg.Content, formatSQLiteTime(msg.CreatedAt), msg.TripID,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Messages returns a trip's conversation in insertion order
func (ss *SQLiteStorage) Messages(ctx context.Context, tripID string) ([]*models.Message, error) {
	rows, err := ss.db.QueryContext(ctx, `
		SELECT id, trip_id, user_id, role, content, created_at
		FROM messages WHERE trip_id = ? ORDER BY seq`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	msgs := []*models.Message{}
	for rows.Next() {
		var m models.Message
		var created string
		if err := rows.Scan(&m.ID, &m.TripID, &m.UserID, &m.Role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if m.CreatedAt, err = parseSQLiteTime(created); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// Ping verifies the storage backend is reachable and operational.
func (ss *SQLiteStorage) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the storage connection
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(row rowScanner) (*models.User, error) {
	var u models.User
	var created, updated string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.TokenHash, &u.TokenPrefix, &u.Newsletter, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if u.CreatedAt, err = parseSQLiteTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseSQLiteTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanSQLiteTrip(row rowScanner) (*models.Trip, error) {
	var t models.Trip
	var interests, created, updated string
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Destination, &t.Origin, &t.StartDate, &t.EndDate,
		&t.Travelers, &t.Budget, &t.Currency, &interests, &t.Status, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if t.Interests, err = unmarshalInterests([]byte(interests)); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseSQLiteTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseSQLiteTime(updated); err != nil {
		return nil, err
	}
	return &t, nil
}
