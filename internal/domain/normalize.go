package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal
// whitespace runs. It is used for username and trip/event name normalization.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeEmail lowercases and trims an email address. Email uniqueness is
// case-insensitive, so every lookup and store goes through this.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
