package domain

import "strings"

const (
	DefaultTitle   = "New Chat"
	maxTitleLength = 30
	titleEllipsis  = "..."
)

// DeriveTitle builds a display title from the first user turn.
func DeriveTitle(turns []Turn) string {
	var first string
	for _, t := range turns {
		if t.Role == RoleUser {
			first = t.Content
			break
		}
	}
	first = strings.TrimSpace(first)
	if first == "" {
		return DefaultTitle
	}

	runes := []rune(first)
	if len(runes) <= maxTitleLength {
		return first
	}
	return string(runes[:maxTitleLength]) + titleEllipsis
}
