package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Client represents a row in the clients table: one calling integration
// (chat surface, internal tool) authorized to submit queries.
type Client struct {
	ID              string
	Name            string
	APIKeyHash      string
	APIKeyPrefix    string
	ThresholdConfig json.RawMessage // JSONB — raw bytes, 'null' when unset
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GenerateAPIKey creates a new pgk_ API key with its bcrypt hash and prefix.
// Returns (fullKey, hash, prefix, error). The fullKey is shown to the user once.
func GenerateAPIKey() (string, string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}
	fullKey := "pgk_" + hex.EncodeToString(raw) // 68 chars total

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(fullKey), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}

	prefix := fullKey[:8] // "pgk_abcd"
	return fullKey, string(hashBytes), prefix, nil
}

// CreateClient inserts a new client.
// Returns the client and the plaintext API key (shown once).
func (s *Store) CreateClient(ctx context.Context, name string) (*Client, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("CreateClient: %w", err)
	}

	var c Client
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO clients (name, api_key_hash, api_key_prefix)
		VALUES ($1, $2, $3)
		RETURNING id, name, api_key_hash, api_key_prefix,
		          COALESCE(threshold_config, 'null'::jsonb), created_at, updated_at`,
		name, keyHash, keyPrefix,
	).Scan(&c.ID, &c.Name, &c.APIKeyHash, &c.APIKeyPrefix,
		&c.ThresholdConfig, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("CreateClient: %w", err)
	}

	return &c, fullKey, nil
}

// GetClient returns a client by ID, or nil if not found.
func (s *Store) GetClient(ctx context.Context, id string) (*Client, error) {
	var c Client
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix,
		       COALESCE(threshold_config, 'null'::jsonb), created_at, updated_at
		FROM clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.APIKeyHash, &c.APIKeyPrefix,
		&c.ThresholdConfig, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetClient: %w", err)
	}
	return &c, nil
}

// ListClients returns all clients ordered by created_at DESC.
func (s *Store) ListClients(ctx context.Context) ([]*Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix,
		       COALESCE(threshold_config, 'null'::jsonb), created_at, updated_at
		FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListClients: %w", err)
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.APIKeyHash, &c.APIKeyPrefix,
			&c.ThresholdConfig, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListClients: %w", err)
		}
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}

// LookupByPrefix returns the client matching an API key prefix, or nil if
// not found. Used by the auth middleware.
func (s *Store) LookupByPrefix(ctx context.Context, prefix string) (*Client, error) {
	var c Client
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix,
		       COALESCE(threshold_config, 'null'::jsonb), created_at, updated_at
		FROM clients WHERE api_key_prefix = $1`, prefix,
	).Scan(&c.ID, &c.Name, &c.APIKeyHash, &c.APIKeyPrefix,
		&c.ThresholdConfig, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LookupByPrefix: %w", err)
	}
	return &c, nil
}

// RotateKey generates a new API key for a client and stores its hash.
// Returns the new plaintext key (shown once), or "" if the client doesn't exist.
func (s *Store) RotateKey(ctx context.Context, id string) (string, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return "", "", fmt.Errorf("RotateKey: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE clients SET api_key_hash = $2, api_key_prefix = $3, updated_at = now()
		WHERE id = $1`, id, keyHash, keyPrefix)
	if err != nil {
		return "", "", fmt.Errorf("RotateKey: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", "", fmt.Errorf("RotateKey: %w", err)
	}
	if affected == 0 {
		return "", "", nil
	}
	return fullKey, keyPrefix, nil
}

// UpdateThresholds replaces a client's threshold_config JSONB.
// A nil config clears the overrides back to server defaults.
func (s *Store) UpdateThresholds(ctx context.Context, id string, config json.RawMessage) (*Client, error) {
	var c Client
	err := s.db.QueryRowContext(ctx, `
		UPDATE clients SET threshold_config = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, name, api_key_hash, api_key_prefix,
		          COALESCE(threshold_config, 'null'::jsonb), created_at, updated_at`,
		id, nullableRaw(config),
	).Scan(&c.ID, &c.Name, &c.APIKeyHash, &c.APIKeyPrefix,
		&c.ThresholdConfig, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateThresholds: %w", err)
	}
	return &c, nil
}

// nullableRaw returns nil (SQL NULL) if the raw message is nil or empty.
func nullableRaw(v json.RawMessage) interface{} {
	if len(v) == 0 {
		return nil
	}
	return v
}
