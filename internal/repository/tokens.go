package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenStore is the persistent key-value contract for per-account auth
// tokens. Get returns "" for an absent key. Clear removes every key stored
// for the account.
type TokenStore interface {
	Get(ctx context.Context, telegramID int64, key string) (string, error)
	Set(ctx context.Context, telegramID int64, key, value string) error
	Clear(ctx context.Context, telegramID int64) error
}

// PostgresTokenStore keeps tokens in the auth_tokens table so sessions
// survive bot restarts.
type PostgresTokenStore struct {
	db *pgxpool.Pool
}

func NewPostgresTokenStore(db *pgxpool.Pool) *PostgresTokenStore {
	return &PostgresTokenStore{db: db}
}

func (s *PostgresTokenStore) Get(ctx context.Context, telegramID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM auth_tokens WHERE telegram_id = $1 AND key = $2`,
		telegramID, key,
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get token %q: %w", key, err)
	}
	return value, nil
}

func (s *PostgresTokenStore) Set(ctx context.Context, telegramID int64, key, value string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO auth_tokens (telegram_id, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (telegram_id, key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		telegramID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set token %q: %w", key, err)
	}
	return nil
}

func (s *PostgresTokenStore) Clear(ctx context.Context, telegramID int64) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM auth_tokens WHERE telegram_id = $1`,
		telegramID,
	)
	if err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}
