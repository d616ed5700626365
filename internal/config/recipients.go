package config

import (
	"errors"
	"strings"
)

// ErrNoRecipients is returned when the recipient list is absent or blank.
var ErrNoRecipients = errors.New("no LINE recipients configured (" + EnvUserIDs + ")")

// Recipient is an opaque LINE user (or group) id eligible for push messages.
type Recipient string

// ParseRecipients splits a comma-separated list and trims each entry.
// Order is preserved; duplicates are kept. Blank entries are skipped.
func ParseRecipients(raw string) ([]Recipient, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoRecipients
	}
	parts := strings.Split(raw, ",")
	out := make([]Recipient, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, Recipient(p))
	}
	if len(out) == 0 {
		return nil, ErrNoRecipients
	}
	return out, nil
}

// Recipients returns the parsed recipient list.
func (c LineConfig) Recipients() ([]Recipient, error) {
	return ParseRecipients(c.UserIDs)
}
