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

package audit

import (
	"context"
	"testing"
	"time"
)

// TestPurpose: Validates that metadata keys carrying credentials are redacted before the event reaches the log sink.
// Scope: Unit Test
// Security: Secret leakage prevention in audit trails
// Expected: Keys containing password/token/hash-like substrings are classified as secret.
// Test Case ID: AUD-01
func TestAudit_IsSecret(t *testing.T) {
	tests := []struct {
		key      string
		isSecret bool
	}{
		{"password", true},
		{"Password", true},
		{"PASSWORD", true},
		{"token", true},
		{"access_token", true},
		{"refresh_token", true},
		{"secret", true},
		{"api_key", true},
		{"hash", true},
		{"password_hash", true},
		{"credential", true},
		{"principal_id", false},
		{"tenant_code", false},
		{"email", false},
		{"status", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isSecret(tt.key); got != tt.isSecret {
				t.Errorf("isSecret(%q) = %v, want %v", tt.key, got, tt.isSecret)
			}
		})
	}
}

// TestPurpose: Validates that logging an event with a zero timestamp does not panic and stamps the event.
// Scope: Unit Test
// Expected: Log completes for a minimal event.
// Test Case ID: AUD-02
func TestAudit_Log_MinimalEvent(t *testing.T) {
	l := NewSlogLogger()
	l.Log(context.Background(), Event{
		Type:       TypeLoginSuccess,
		TenantCode: "CO001",
		ActorID:    "principal-1",
		Resource:   "session",
	})

	// With an explicit timestamp and metadata containing a secret
	l.Log(context.Background(), Event{
		Type:      TypeTokenRevoked,
		Timestamp: time.Now(),
		Metadata:  map[string]any{"token": "raw-jwt", AttrReason: "logout"},
	})
}
