package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Empty is the reserved fingerprint for blank payloads. It is never
// inserted into the dedup store, so blank content can never win a
// first-seen race.
const Empty = "empty"

// Fingerprint returns the dedup key for text: every whitespace run is
// removed entirely (so reflowed line breaks hash identically), the
// result is case-folded and digested with SHA-256. Deterministic and
// pure. Blank input returns Empty.
func Fingerprint(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	norm := b.String()
	if norm == "" {
		return Empty
	}
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

// IsEmpty reports whether fp is the blank-payload sentinel.
func IsEmpty(fp string) bool { return fp == Empty }
