package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is a single record mapping a Slack user ID to an access token
type User struct {
	Id          string
	AccessToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Authorized returns true if the record exists and carries a usable token
func (u *User) Authorized() bool {
	return u != nil && u.AccessToken != ""
}

// Store provides access to user records in PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database, verifies the connection, and applies any
// pending schema migrations before returning: a non-nil Store is both
// connected and schema-ready, so callers never observe a connected-but-
// unschematized state
func New(ctx context.Context, databaseUrl string) (*Store, error) {
	if err := applyMigrations(ctx, databaseUrl); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	pool, err := pgxpool.New(ctx, databaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Get looks up the user with the given ID, returning nil (with no error) if
// no such record exists
func (s *Store) Get(ctx context.Context, userId string) (*User, error) {
	const query = `
		SELECT id, access_token, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	row := s.pool.QueryRow(ctx, query, userId)
	var u User
	if err := row.Scan(&u.Id, &u.AccessToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %s: %w", userId, err)
	}
	return &u, nil
}

// Upsert creates a record for the given user ID, or replaces the stored token
// if a record already exists. Concurrent upserts for the same ID are resolved
// last-writer-wins.
func (s *Store) Upsert(ctx context.Context, userId, accessToken string) (*User, error) {
	const query = `
		INSERT INTO users (id, access_token) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			updated_at = now()
		RETURNING id, access_token, created_at, updated_at
	`
	row := s.pool.QueryRow(ctx, query, userId, accessToken)
	var u User
	if err := row.Scan(&u.Id, &u.AccessToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to upsert user %s: %w", userId, err)
	}
	return &u, nil
}

// List returns all user records, oldest first
func (s *Store) List(ctx context.Context) ([]User, error) {
	const query = `
		SELECT id, access_token, created_at, updated_at
		FROM users
		ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.AccessToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}
