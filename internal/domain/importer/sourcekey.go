package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// autoKeyPrefix marks source keys derived from row content rather than
// supplied by the upstream system.
const autoKeyPrefix = "auto-"

// DeriveSourceKey builds a stable idempotency key for a row that arrived
// without one. The key is a pure function of the row's identifying content
// (email, signal type, occurrence date), so re-importing the same logical
// event from any file, in any order, collides with the first import.
func DeriveSourceKey(email, signalType, occurredAt string) string {
	composite := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(email)),
		strings.TrimSpace(signalType),
		strings.TrimSpace(occurredAt),
	}, "|")
	sum := sha256.Sum256([]byte(composite))
	return autoKeyPrefix + hex.EncodeToString(sum[:])
}
