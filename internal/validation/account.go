// Package validation holds input rules shared by forms, services and the admin CLI.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 12
	maxPasswordLength = 128
	minUsernameLength = 3
	maxUsernameLength = 150
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Usernames that would shadow a top-level route, since profiles live at /{username}/.
var reservedUsernames = map[string]struct{}{
	"new":     {},
	"group":   {},
	"groups":  {},
	"auth":    {},
	"health":  {},
	"metrics": {},
	"static":  {},
	"admin":   {},
}

// ValidatePassword enforces length and character class rules.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if n > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return errors.New("password must contain upper and lower case letters, a digit and a special character")
	}
	return nil
}

// ValidateUsername checks the characters allowed in profile URLs.
func ValidateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return fmt.Errorf("username must be %d-%d characters", minUsernameLength, maxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username may only contain letters, numbers, underscores and hyphens")
	}
	first, last := username[0], username[len(username)-1]
	if first == '-' || first == '_' || last == '-' || last == '_' {
		return errors.New("username cannot start or end with a hyphen or underscore")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return errors.New("username is reserved")
	}
	return nil
}
