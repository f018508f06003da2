package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripplanner/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		email        TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL,
		token_hash   TEXT NOT NULL DEFAULT '',
		token_prefix TEXT NOT NULL DEFAULT '',
		newsletter   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_token_hash ON users(token_hash)`,
	`CREATE TABLE IF NOT EXISTS trips (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title       TEXT NOT NULL,
		destination TEXT,
		origin      TEXT,
		start_date  TEXT,
		end_date    TEXT,
		travelers   INTEGER NOT NULL DEFAULT 0,
		budget      DOUBLE PRECISION NOT NULL DEFAULT 0,
		currency    TEXT,
		interests   JSONB NOT NULL DEFAULT '[]'::jsonb,
		status      TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trips_user ON trips(user_id, updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS messages (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT NOT NULL UNIQUE,
		trip_id    TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_trip ON messages(trip_id, seq)`,
}

const pgUserColumns = `id, email, name, token_hash, token_prefix, newsletter, created_at, updated_at`

const pgTripColumns = `id, user_id, title, destination, origin, start_date, end_date,
	travelers, budget, currency, interests, status, created_at, updated_at`

// PostgresStorage implements the Storage interface using PostgreSQL through a pgx pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a new PostgreSQL storage instance and applies the schema.
func NewPostgresStorage(config Config) (*PostgresStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if config.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(min(config.MaxIdleConns, int(poolConfig.MaxConns)))
	}
	if config.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	}
	if config.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = config.ConnMaxIdleTime
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	ps := &PostgresStorage{pool: pool}
	if err := ps.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return ps, nil
}

func (ps *PostgresStorage) migrate(ctx context.Context) error {
	for i, stmt := range postgresMigrations {
		if _, err := ps.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
	}
	return nil
}

// CreateUser stores a new user.
func (ps *PostgresStorage) CreateUser(ctx context.Context, user *models.User) error {
	_, err := ps.pool.Exec(ctx,
		`INSERT INTO users (`+pgUserColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.Name, user.TokenHash, user.TokenPrefix, user.Newsletter,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (ps *PostgresStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	return ps.queryUser(ctx, `WHERE id = $1`, id)
}

// GetUserByEmail retrieves a user by email.
func (ps *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return ps.queryUser(ctx, `WHERE email = $1`, email)
}

// GetUserByTokenHash retrieves a user by the SHA-256 hash of their token.
func (ps *PostgresStorage) GetUserByTokenHash(ctx context.Context, hash string) (*models.User, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return ps.queryUser(ctx, `WHERE token_hash = $1`, hash)
}

func (ps *PostgresStorage) queryUser(ctx context.Context, where, arg string) (*models.User, error) {
	row := ps.pool.QueryRow(ctx, `SELECT `+pgUserColumns+` FROM users `+where, arg)
	user, err := scanPgUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all users, oldest first.
func (ps *PostgresStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := ps.pool.Query(ctx, `SELECT `+pgUserColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanPgUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SaveTrip stores or updates a trip (upsert).
func (ps *PostgresStorage) SaveTrip(ctx context.Context, trip *models.Trip) error {
	interests, err := marshalInterests(trip.Interests)
	if err != nil {
		return err
	}

	_, err = ps.pool.Exec(ctx, `
		INSERT INTO trips (`+pgTripColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			destination = EXCLUDED.destination,
			origin = EXCLUDED.origin,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			travelers = EXCLUDED.travelers,
			budget = EXCLUDED.budget,
			currency = EXCLUDED.currency,
			interests = EXCLUDED.interests,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		trip.ID, trip.UserID, trip.Title,
		stringToPgText(trip.Destination), stringToPgText(trip.Origin),
		stringToPgText(trip.StartDate), stringToPgText(trip.EndDate),
		trip.Travelers, trip.Budget, stringToPgText(trip.Currency), interests, trip.Status,
		timeToPgTimestamptz(trip.CreatedAt), timeToPgTimestamptz(trip.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save trip: %w", err)
	}
	return nil
}

// GetTrip retrieves a trip by ID.
func (ps *PostgresStorage) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	row := ps.pool.QueryRow(ctx, `SELECT `+pgTripColumns+` FROM trips WHERE id = $1`, id)
	trip, err := scanPgTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// ListTrips returns a user's trips, most recently updated first.
func (ps *PostgresStorage) ListTrips(ctx context.Context, userID string) ([]*models.Trip, error) {
	rows, err := ps.pool.Query(ctx,
		`SELECT `+pgTripColumns+` FROM trips WHERE user_id = $1 ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	trips := []*models.Trip{}
	for rows.Next() {
		trip, err := scanPgTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// DeleteTrip removes a trip. Messages go with it through ON DELETE CASCADE.
func (ps *PostgresStorage) DeleteTrip(ctx context.Context, id string) error {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trip %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage adds a message to a trip's conversation.
func (ps *PostgresStorage) AppendMessage(ctx context.Context, msg *models.Message) error {
	tag, err := ps.pool.Exec(ctx, `
		INSERT INTO messages (id, trip_id, user_id, role, content, created_at)
		SELECT $1, $2, $3, $4, $5, $6 WHERE EXISTS (SELECT 1 FROM trips WHERE id = $2)`,
		msg.ID, msg.TripID, msg.UserID, msg.Role, msg.Content, timeToPgTimestamptz(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Messages returns a trip's conversation in insertion order.
func (ps *PostgresStorage) Messages(ctx context.Context, tripID string) ([]*models.Message, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT id, trip_id, user_id, role, content, created_at
		FROM messages WHERE trip_id = $1 ORDER BY seq`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	msgs := []*models.Message{}
	for rows.Next() {
		var m models.Message
		var created pgtype.Timestamptz
		if err := rows.Scan(&m.ID, &m.TripID, &m.UserID, &m.Role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.CreatedAt = pgTimestamptzToTime(created)
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// Ping verifies the storage backend is reachable and operational.
func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close closes the storage connection.
func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}

// Conversion helpers

func scanPgUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var created, updated pgtype.Timestamptz
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.TokenHash, &u.TokenPrefix, &u.Newsletter, &created, &updated); err != nil {
		return nil, err
	}
	u.CreatedAt = pgTimestamptzToTime(created)
	u.UpdatedAt = pgTimestamptzToTime(updated)
	return &u, nil
}

func scanPgTrip(row pgx.Row) (*models.Trip, error) {
	var t models.Trip
	var destination, origin, startDate, endDate, currency pgtype.Text
	var interests []byte
	var created, updated pgtype.Timestamptz
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &destination, &origin, &startDate, &endDate,
		&t.Travelers, &t.Budget, &currency, &interests, &t.Status, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if t.Interests, err = unmarshalInterests(interests); err != nil {
		return nil, err
	}
	t.Destination = pgTextToString(destination)
	t.Origin = pgTextToString(origin)
	t.StartDate = pgTextToString(startDate)
	t.EndDate = pgTextToString(endDate)
	t.Currency = pgTextToString(currency)
	t.CreatedAt = pgTimestamptzToTime(created)
	t.UpdatedAt = pgTimestamptzToTime(updated)
	return &t, nil
}

// pgtype helpers

func pgTextToString(t pgtype.Text) string {
	if t.Valid {
		return t.String
	}
	return ""
}

func stringToPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func pgTimestamptzToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}
