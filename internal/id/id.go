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

// Package id generates the opaque identifiers used across the system.
package id

import "github.com/google/uuid"

// NewUUIDv7 returns a time-ordered UUID, used for principal ids so that
// freshly provisioned rows cluster together in the index.
func NewUUIDv7() string {
	u, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source is exhausted; fall back
		// to v4 rather than propagating an error through every caller.
		return uuid.NewString()
	}
	return u.String()
}

// NewUUIDv4 returns a fully random UUID, used for session ids and token
// jtis where unpredictability matters more than index locality.
func NewUUIDv4() string {
	return uuid.NewString()
}
