package engine

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a content hash of a message body.
func Fingerprint(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// Deduplicator remembers message fingerprints for one classification run.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator creates an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Seen records fingerprint and reports whether it had already been recorded.
func (d *Deduplicator) Seen(fingerprint string) bool {
	if _, ok := d.seen[fingerprint]; ok {
		return true
	}
	d.seen[fingerprint] = struct{}{}
	return false
}
