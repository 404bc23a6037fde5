package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

const apiKeyColumns = `id, name, key_hash, key_prefix, scopes, created_at, last_used_at, revoked_at`

// SaveAPIKey inserts or replaces a key. A stored revocation is never cleared.
func (r *Repository) SaveAPIKey(ctx context.Context, key *entities.APIKey) error {
	query := `
		INSERT INTO api_keys (` + apiKeyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			scopes = excluded.scopes,
			last_used_at = excluded.last_used_at,
			revoked_at = COALESCE(api_keys.revoked_at, excluded.revoked_at)
	`
	_, err := r.exec(ctx, query,
		key.ID,
		key.Name,
		key.KeyHash,
		key.KeyPrefix,
		key.Scopes,
		key.CreatedAt.UTC(),
		nullTime(key.LastUsedAt),
		nullTime(key.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("saving api key: %w", err)
	}
	return nil
}

// TouchAPIKey records the last use of a key.
func (r *Repository) TouchAPIKey(ctx context.Context, id string, at time.Time) error {
	if _, err := r.exec(ctx, `UPDATE api_keys SET last_used_at = ? WHERE id = ?`, at.UTC(), id); err != nil {
		return fmt.Errorf("touching api key: %w", err)
	}
	return nil
}

// RevokeAPIKey revokes a key, keeping an earlier revocation time.
func (r *Repository) RevokeAPIKey(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE api_keys SET revoked_at = COALESCE(revoked_at, ?) WHERE id = ?`
	if _, err := r.exec(ctx, query, at.UTC(), id); err != nil {
		return fmt.Errorf("revoking api key: %w", err)
	}
	return nil
}

// FindAPIKeyByHash finds a key by the hash of its raw value.
func (r *Repository) FindAPIKeyByHash(ctx context.Context, hash string) (*entities.APIKey, error) {
	return r.findAPIKey(ctx, `key_hash = ?`, hash)
}

// FindAPIKeyByID finds a key by ID.
func (r *Repository) FindAPIKeyByID(ctx context.Context, id string) (*entities.APIKey, error) {
	return r.findAPIKey(ctx, `id = ?`, id)
}

func (r *Repository) findAPIKey(ctx context.Context, cond string, arg any) (*entities.APIKey, error) {
	key, err := scanAPIKey(r.queryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE `+cond, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning api key: %w", err)
	}
	return key, nil
}

// ListAPIKeys lists keys in creation order.
func (r *Repository) ListAPIKeys(ctx context.Context) ([]entities.APIKey, error) {
	rows, err := r.query(ctx, `SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	result := []entities.APIKey{}
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning api key: %w", err)
		}
		result = append(result, *key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating api keys: %w", err)
	}
	return result, nil
}

func scanAPIKey(row rowScanner) (*entities.APIKey, error) {
	var key entities.APIKey
	var lastUsed, revoked sql.NullTime
	err := row.Scan(
		&key.ID,
		&key.Name,
		&key.KeyHash,
		&key.KeyPrefix,
		&key.Scopes,
		&key.CreatedAt,
		&lastUsed,
		&revoked,
	)
	if err != nil {
		return nil, err
	}
	key.CreatedAt = key.CreatedAt.UTC()
	key.LastUsedAt = timePtr(lastUsed)
	key.RevokedAt = timePtr(revoked)
	return &key, nil
}
