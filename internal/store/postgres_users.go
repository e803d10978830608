package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"triviaarena/internal/domain"
)

// PostgresUserStore backs the top-level users/{uid} profile collection with
// Postgres rather than the document store behind Store: profiles are a flat,
// relationally-shaped table with no subcollections or transactions, so the
// upsert-by-uid pattern maps directly onto the CRUD style in
// rakaoran-GuessTheObject's storage/postgres.go.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore wraps an already-connected pool.
func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

func (s *PostgresUserStore) UpsertProfile(ctx context.Context, profile domain.UserProfile) error {
	const query = `
		INSERT INTO user_profiles (uid, display_name, avatar_url, last_login)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (uid) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			avatar_url   = EXCLUDED.avatar_url,
			last_login   = EXCLUDED.last_login
	`
	_, err := s.pool.Exec(ctx, query, profile.Uid, profile.DisplayName, profile.AvatarUrl, profile.LastLogin)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}
	return nil
}

func (s *PostgresUserStore) GetProfile(ctx context.Context, uid string) (domain.UserProfile, error) {
	const query = `
		SELECT uid, display_name, avatar_url, last_login
		FROM user_profiles
		WHERE uid = $1
	`
	var p domain.UserProfile
	err := s.pool.QueryRow(ctx, query, uid).Scan(&p.Uid, &p.DisplayName, &p.AvatarUrl, &p.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserProfile{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFail, err)
	}
	return p, nil
}

var _ UserStore = (*PostgresUserStore)(nil)
