package model

import (
	"fmt"
	"time"

	"github.com/sakif/bookshelf/internal/apperror"
)

// DefaultAuthor is recorded when a book is created without an author.
const DefaultAuthor = "Unknown"

// Book is a global catalog record. Books are shared across all users and
// libraries — nobody owns one, and nothing ever deletes one. A library
// references a book through a LibraryBook association row.
//
// PublishedYear is *int rather than int so "unknown" (nil) is distinct from
// any real year. The same convention is used for LibraryBook.Rating.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre,omitempty"`
	PublishedYear *int      `json:"published_year,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ValidatePublishedYear rejects years after the current calendar year.
func ValidatePublishedYear(year int) error {
	if current := time.Now().Year(); year > current {
		return apperror.ValidationFailed("published_year",
			fmt.Sprintf("published year cannot be later than %d", current))
	}
	return nil
}
