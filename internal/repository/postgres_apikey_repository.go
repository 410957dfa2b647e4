package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/peoplehub/hr-identity/internal/domain"
)

// PostgresAPIKeyRepository implements APIKeyRepository using PostgreSQL.
// The registry is provisioned out-of-band; this repository only reads it.
type PostgresAPIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAPIKeyRepository creates a new PostgresAPIKeyRepository.
func NewPostgresAPIKeyRepository(pool *pgxpool.Pool) *PostgresAPIKeyRepository {
	return &PostgresAPIKeyRepository{pool: pool}
}

// GetBySecret retrieves an API key by its secret. Rights are stored as a
// jsonb array of {name, value} pairs and returned in stored order. Returns
// (nil, nil) when the secret is unknown.
func (r *PostgresAPIKeyRepository) GetBySecret(ctx context.Context, secret string) (*domain.APIKey, error) {
	query := `
		SELECT secret, enabled, rights
		FROM api_keys
		WHERE secret = $1
	`
	key := &domain.APIKey{}
	var rights []byte
	err := r.pool.QueryRow(ctx, query, secret).Scan(&key.Secret, &key.Enabled, &rights)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(rights) > 0 {
		if err := json.Unmarshal(rights, &key.Rights); err != nil {
			return nil, fmt.Errorf("decode rights for api key: %w", err)
		}
	}
	return key, nil
}
