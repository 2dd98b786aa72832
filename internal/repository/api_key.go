package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deploywatch/deploywatch/internal/domain"
)

type APIKeyRepository struct {
	pool PgxPool
}

func NewAPIKeyRepository(pool PgxPool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// GetByHash looks up an active key by its SHA-256 hash. Revoked keys are
// indistinguishable from unknown ones.
func (r *APIKeyRepository) GetByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	query := `
		SELECT id, tenant_id, name, key_hash, key_prefix, environment, is_active, last_used_at, created_at
		FROM api_keys
		WHERE key_hash = $1 AND is_active = true
	`

	var key domain.APIKey
	err := r.pool.QueryRow(ctx, query, hash).Scan(
		&key.ID,
		&key.TenantID,
		&key.Name,
		&key.KeyHash,
		&key.KeyPrefix,
		&key.Environment,
		&key.IsActive,
		&key.LastUsedAt,
		&key.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get api key by hash: %w", err)
	}

	return &key, nil
}

func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}

	query := `
		INSERT INTO api_keys (id, tenant_id, name, key_hash, key_prefix, environment, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		key.ID, key.TenantID, key.Name, key.KeyHash, key.KeyPrefix, key.Environment, key.IsActive,
	).Scan(&key.CreatedAt)

	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	return nil
}

// UpdateLastUsed stamps the key's last use. Called from the async worker,
// never from the request path.
func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, keyID uuid.UUID) error {
	query := `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, keyID); err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}

	return nil
}

// Revoke deactivates a key. The hash index excludes inactive keys, so a
// revoked key stops authenticating immediately.
func (r *APIKeyRepository) Revoke(ctx context.Context, tenantID, keyID uuid.UUID) error {
	query := `UPDATE api_keys SET is_active = false WHERE tenant_id = $1 AND id = $2`

	result, err := r.pool.Exec(ctx, query, tenantID, keyID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
