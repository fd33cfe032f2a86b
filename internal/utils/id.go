package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewSessionID returns a collision-resistant session identifier. UUIDs keep
// concurrent duplications of the same source from colliding.
func NewSessionID() string {
	return "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Slugify turns a display name into a URL slug, with a short random suffix
// to keep slugs unique without a retry loop.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "team"
	}
	return slug + "-" + uuid.NewString()[:8]
}
