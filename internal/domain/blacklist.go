package domain

import (
	"strings"
	"time"
)

type BlacklistKind string

const (
	BlacklistPhone BlacklistKind = "phone"
	BlacklistEmail BlacklistKind = "email"
)

type BlacklistEntry struct {
	ID        uint          `json:"id"`
	Kind      BlacklistKind `json:"kind"`
	Value     string        `json:"value"`
	Reason    string        `json:"reason,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NormalizeContact makes phone and email comparable across spellings.
func NormalizeContact(kind BlacklistKind, value string) string {
	value = strings.TrimSpace(value)
	switch kind {
	case BlacklistEmail:
		return strings.ToLower(value)
	case BlacklistPhone:
		var b strings.Builder
		for i, r := range value {
			if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
				b.WriteRune(r)
			}
		}
		return b.String()
	}
	return value
}
