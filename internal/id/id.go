// Package id provides unique identifier generation for captured exchanges.
// This is the canonical source for ID generation across the replayd codebase.
package id

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// Exchange generates the identifier assigned to a captured exchange.
// UUID v4, random. Assigned once at capture time and never reused.
func Exchange() string {
	return uuid.NewString()
}

// Short generates a short random hex ID (16 characters).
// Suitable for user-facing IDs where brevity matters, such as
// replay run identifiers in log output.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
