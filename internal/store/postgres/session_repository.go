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

	"github.com/jackc/pgx/v5"

	"github.com/registra/registra/internal/session"
)

const sessionColumns = `id, principal_id, tenant_code, access_jti, refresh_jti, ip_address, user_agent, active, started_at, ended_at, last_activity`

// SessionRepository implements session.Repository
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		sess.ID, sess.PrincipalID, sess.TenantCode, sess.AccessJTI, sess.RefreshJTI,
		sess.IPAddress, sess.UserAgent, sess.Active, sess.StartedAt, sess.EndedAt, sess.LastActivity,
	)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID regardless of state
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	var sess session.Session

	err := r.db.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1
	`, sessionID).Scan(
		&sess.ID, &sess.PrincipalID, &sess.TenantCode, &sess.AccessJTI, &sess.RefreshJTI,
		&sess.IPAddress, &sess.UserAgent, &sess.Active, &sess.StartedAt, &sess.EndedAt, &sess.LastActivity,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &sess, nil
}

// Touch advances last_activity for an active session. Ended sessions
// and out-of-order timestamps are left alone.
func (r *SessionRepository) Touch(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE sessions SET last_activity = $2
		WHERE id = $1 AND active AND ended_at IS NULL AND last_activity < $2
	`, sessionID, at)

	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return nil
}

// UpdateTokens rebinds a session to a fresh token pair
func (r *SessionRepository) UpdateTokens(ctx context.Context, sessionID, accessJTI, refreshJTI string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE sessions SET access_jti = $2, refresh_jti = $3
		WHERE id = $1 AND active AND ended_at IS NULL
	`, sessionID, accessJTI, refreshJTI)

	if err != nil {
		return fmt.Errorf("failed to update session tokens: %w", err)
	}

	if result.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}

// End marks a session ended. The ended_at guard makes the write
// idempotent: the first end timestamp wins.
func (r *SessionRepository) End(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE sessions SET active = FALSE, ended_at = $2
		WHERE id = $1 AND ended_at IS NULL
	`, sessionID, at)

	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	return nil
}

// EndAllForPrincipal ends every active session of a principal and
// returns the rows that were ended
func (r *SessionRepository) EndAllForPrincipal(ctx context.Context, principalID string, at time.Time) ([]*session.Session, error) {
	rows, err := r.db.pool.Query(ctx, `
		UPDATE sessions SET active = FALSE, ended_at = $2
		WHERE principal_id = $1 AND active AND ended_at IS NULL
		RETURNING `+sessionColumns+`
	`, principalID, at)

	if err != nil {
		return nil, fmt.Errorf("failed to end principal sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// ListActiveForPrincipal lists the live sessions of a principal
func (r *SessionRepository) ListActiveForPrincipal(ctx context.Context, principalID string) ([]*session.Session, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE principal_id = $1 AND active AND ended_at IS NULL
		ORDER BY started_at DESC
	`, principalID)

	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows pgx.Rows) ([]*session.Session, error) {
	sessions := []*session.Session{}
	for rows.Next() {
		var sess session.Session
		if err := rows.Scan(
			&sess.ID, &sess.PrincipalID, &sess.TenantCode, &sess.AccessJTI, &sess.RefreshJTI,
			&sess.IPAddress, &sess.UserAgent, &sess.Active, &sess.StartedAt, &sess.EndedAt, &sess.LastActivity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}
