package utils

import "github.com/google/uuid"

// NewID returns a short unique id with a domain prefix, e.g. "RES-1a2b3c4d".
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
