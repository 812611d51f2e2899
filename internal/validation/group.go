package validation

import (
	"errors"
	"regexp"
	"strings"
)

const maxGroupTitleLength = 200

var groupSlugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]{1,50}$`)

// ValidateGroupSlug accepts letters, numbers, underscores and hyphens, up to 50 characters.
func ValidateGroupSlug(slug string) error {
	if !groupSlugRegex.MatchString(slug) {
		return errors.New("slug must be 1-50 characters of letters, numbers, underscores or hyphens")
	}
	return nil
}

// ValidateGroupTitle requires a non-blank title of at most 200 characters.
func ValidateGroupTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title is required")
	}
	if len([]rune(title)) > maxGroupTitleLength {
		return errors.New("title must be at most 200 characters")
	}
	return nil
}
