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

package session

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session has ended")
)

// Session represents one authenticated device or client. Ending a
// session is terminal: a new login always creates a new row, never
// resurrects an old one. TenantCode is a snapshot taken at login and is
// never updated afterwards.
type Session struct {
	ID           string     `json:"id"`
	PrincipalID  string     `json:"principal_id"`
	TenantCode   string     `json:"tenant_code"`
	AccessJTI    string     `json:"-"`
	RefreshJTI   string     `json:"-"`
	IPAddress    string     `json:"ip_address"`
	UserAgent    string     `json:"user_agent"`
	Active       bool       `json:"active"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	LastActivity time.Time  `json:"last_activity"`
}

// IsActive reports whether the session is still live. Both flags must
// agree: a row with Active true but a non-nil EndedAt is treated as
// ended.
func (s *Session) IsActive() bool {
	return s.Active && s.EndedAt == nil
}

// Repository defines the interface for session persistence
type Repository interface {
	// Create creates a new session
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by ID regardless of state
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Touch advances last_activity for an active session
	Touch(ctx context.Context, sessionID string, at time.Time) error

	// UpdateTokens replaces the token identifiers bound to a session
	// after a refresh rotation
	UpdateTokens(ctx context.Context, sessionID, accessJTI, refreshJTI string) error

	// End marks a session ended. Ending an already-ended session is a
	// no-op that preserves the original EndedAt.
	End(ctx context.Context, sessionID string, at time.Time) error

	// EndAllForPrincipal ends every active session of a principal and
	// returns the affected sessions
	EndAllForPrincipal(ctx context.Context, principalID string, at time.Time) ([]*Session, error)

	// ListActiveForPrincipal lists the live sessions of a principal
	ListActiveForPrincipal(ctx context.Context, principalID string) ([]*Session, error)
}
