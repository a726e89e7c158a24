package tenant

import (
	"strings"
	"time"
)

// Tenant represents an isolated business account owning a disjoint
// partition of records. It is identified by a human-chosen code.
type Tenant struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Document   string    `json:"document,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	Address    string    `json:"address,omitempty"`
	Complement string    `json:"complement,omitempty"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NormalizeCode canonicalizes a tenant code: upper-cased, trimmed.
// All lookups and claims carry the normalized form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether a code is non-empty and alphanumeric.
func ValidCode(code string) bool {
	if code == "" || len(code) > 30 {
		return false
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
