package session

import (
	"strings"

	"github.com/google/uuid"
)

// tokenPrefix mimics the cosmetic prefix real portal tokens carry.
const tokenPrefix = "ust_"

// NewToken generates an opaque session token. Uniqueness only has to
// hold within one process lifetime, so a UUID is plenty.
func NewToken() string {
	return tokenPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
