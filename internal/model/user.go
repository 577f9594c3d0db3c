// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
//
// This package also holds the field validators (email pattern, name length,
// rating range, year bound). Keeping them next to the types means every
// layer — services, repositories, tests — enforces the same rules.
package model

import (
	"regexp"
	"time"

	"github.com/sakif/bookshelf/internal/apperror"
)

// emailPattern is a deliberately basic check: something@something.tld.
// Full RFC 5322 validation is a rabbit hole; the real proof of an address
// is a confirmation mail, which is out of scope here.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents a registered account.
//
// WHY PasswordHash `json:"-"`?
// The hash is write-only: it is set at signup and compared at login, and
// must never appear in a response body. The `-` tag makes json.Marshal skip
// the field entirely, so even a careless handler can't leak it.
//
// GitHubID is zero unless the account was created through the GitHub OAuth
// flow. OAuth-only accounts have an empty PasswordHash and may have an empty
// Email (GitHub hides addresses on request); such accounts can only sign in
// via OAuth.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ValidateEmail checks that addr looks like an email address.
func ValidateEmail(addr string) error {
	if !emailPattern.MatchString(addr) {
		return apperror.ValidationFailed("email", "email address is not valid")
	}
	return nil
}
