package model

import (
	"fmt"
	"time"

	"github.com/sakif/bookshelf/internal/apperror"
)

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// LibraryBook is the association row linking one library to one book.
// Its identity is the (LibraryID, BookID) pair — a book can appear in a
// library at most once.
//
// Rating is the rating THIS pairing carries; nil means "not yet rated".
// Aggregate ratings (a user's own rating, the global mean) are never stored
// anywhere — they are folded from these rows at response time.
//
// OwnerID is derived, not a column: queries join libraries to fill it with
// the owning library's user_id, so response shaping can pick out the
// requesting user's rows without another lookup.
type LibraryBook struct {
	LibraryID string    `json:"library_id"`
	BookID    string    `json:"book_id"`
	OwnerID   string    `json:"-"`
	Rating    *int      `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidateRating enforces the 1–5 bound. Both endpoints of the range are
// themselves valid.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperror.ValidationFailed("rating",
			fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	return nil
}
