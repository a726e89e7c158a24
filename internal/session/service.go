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
	"time"

	"github.com/registra/registra/internal/audit"
	"github.com/registra/registra/internal/id"
)

// Service provides session lifecycle logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new session service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{repo: repo, auditLogger: auditLogger}
}

// Start opens a new session for a principal. Every login gets a fresh
// session ID; concurrent sessions for the same principal are allowed.
func (s *Service) Start(ctx context.Context, principalID, tenantCode, accessJTI, refreshJTI, ipAddress, userAgent string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:           id.NewUUIDv4(),
		PrincipalID:  principalID,
		TenantCode:   tenantCode,
		AccessJTI:    accessJTI,
		RefreshJTI:   refreshJTI,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		Active:       true,
		StartedAt:    now,
		LastActivity: now,
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeSessionCreated,
		TenantCode: tenantCode,
		ActorID:    principalID,
		Resource:   sess.ID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	})

	return sess, nil
}

// GetActive retrieves a session and fails unless it is still live.
func (s *Service) GetActive(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if !sess.IsActive() {
		return nil, ErrSessionEnded
	}
	return sess, nil
}

// Touch records activity on a session. Failures are swallowed: activity
// tracking must never break the request that triggered it.
func (s *Service) Touch(ctx context.Context, sessionID string) {
	_ = s.repo.Touch(ctx, sessionID, time.Now().UTC())
}

// Rebind replaces the token pair attached to a session after a refresh
// rotation, keeping the session row pointing at live tokens.
func (s *Service) Rebind(ctx context.Context, sessionID, accessJTI, refreshJTI string) error {
	return s.repo.UpdateTokens(ctx, sessionID, accessJTI, refreshJTI)
}

// End terminates a single session. Ending an already-ended session
// succeeds without touching the original end timestamp.
func (s *Service) End(ctx context.Context, sessionID string) error {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return ErrSessionNotFound
	}
	if !sess.IsActive() {
		return nil
	}

	if err := s.repo.End(ctx, sessionID, time.Now().UTC()); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeSessionEnded,
		TenantCode: sess.TenantCode,
		ActorID:    sess.PrincipalID,
		Resource:   sessionID,
	})
	return nil
}

// EndAll terminates every active session of a principal, returning the
// sessions that were ended so the caller can revoke their tokens.
func (s *Service) EndAll(ctx context.Context, principalID string) ([]*Session, error) {
	ended, err := s.repo.EndAllForPrincipal(ctx, principalID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	for _, sess := range ended {
		s.auditLogger.Log(ctx, audit.Event{
			Type:       audit.TypeSessionEnded,
			TenantCode: sess.TenantCode,
			ActorID:    principalID,
			Resource:   sess.ID,
		})
	}
	return ended, nil
}

// ListActive lists the live sessions of a principal.
func (s *Service) ListActive(ctx context.Context, principalID string) ([]*Session, error) {
	return s.repo.ListActiveForPrincipal(ctx, principalID)
}
