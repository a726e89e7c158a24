// Copyright 2026 The Registra Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"fmt"
	"time"
)

// RevocationRepository implements token.RevocationStore over the
// append-only revoked_tokens table.
type RevocationRepository struct {
	db *DB
}

// NewRevocationRepository creates a new revocation repository
func NewRevocationRepository(db *DB) *RevocationRepository {
	return &RevocationRepository{db: db}
}

// Revoke records a jti as revoked. ON CONFLICT DO NOTHING makes the
// write idempotent.
func (r *RevocationRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO revoked_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, expiresAt)

	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsRevoked checks whether a jti has been revoked
func (r *RevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var exists bool

	err := r.db.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1)
	`, jti).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}

	return exists, nil
}

// PurgeExpired removes revocation rows whose tokens have expired on
// their own. Run periodically; the table only ever grows otherwise.
func (r *RevocationRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM revoked_tokens WHERE expires_at < $1
	`, time.Now())

	if err != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
