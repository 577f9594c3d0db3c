package model

import (
	"time"
	"unicode/utf8"

	"github.com/sakif/bookshelf/internal/apperror"
)

// Library name length bounds. Counted in runes, not bytes, so multi-byte
// names aren't rejected early.
const (
	MinLibraryNameLen = 3
	MaxLibraryNameLen = 100
)

// Library is a user-owned named collection of books.
//
// Private libraries are visible to their owner only; everyone else gets a
// not-found, never a forbidden — existence is not leaked.
type Library struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	Private   bool      `json:"private"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidateLibraryName enforces the 3–100 character bound.
func ValidateLibraryName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinLibraryNameLen || n > MaxLibraryNameLen {
		return apperror.ValidationFailed("name", "library name must be between 3 and 100 characters")
	}
	return nil
}
