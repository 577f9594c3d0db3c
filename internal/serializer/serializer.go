// Package serializer shapes domain entities into response payloads.
//
// The two derived numbers on a book — the viewer's own rating and the
// global mean — are computed here, per request, from the raw association
// rows. Nothing denormalized is ever stored, so the numbers can't go stale.
package serializer

import (
	"math"

	"github.com/sakif/bookshelf/internal/model"
)

// RatingView is the derived rating pair attached to every serialized book.
//
// UserRating is the rating on the association between the viewer's own
// library and this book — nil when the viewer is anonymous, hasn't shelved
// the book, or shelved it without rating. GlobalRating is the mean of all
// non-nil ratings across every association for the book, rounded to two
// decimals — nil when nobody has rated it yet (nil, not zero: "not yet
// rated" is not the same as "rated 0").
type RatingView struct {
	UserRating   *int     `json:"userRating"`
	GlobalRating *float64 `json:"globalRating"`
}

// BookView is a book as it appears in responses: catalog fields plus the
// derived rating pair, computed in the requesting session's context.
type BookView struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Genre         string     `json:"genre,omitempty"`
	PublishedYear *int       `json:"published_year,omitempty"`
	Rating        RatingView `json:"rating"`
}

// LibraryView is a library with its books embedded, each book carrying
// rating context for the same viewer.
type LibraryView struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	UserID  string     `json:"user_id"`
	Private bool       `json:"private"`
	Books   []BookView `json:"books"`
}

// UserView is the public shape of an account. The password hash has no
// field here at all.
type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// SessionView is the GET /api/user_session payload: the user plus their
// libraries with nested books and ratings, enough for a client to
// rehydrate after a reload.
type SessionView struct {
	User      UserView      `json:"user"`
	Libraries []LibraryView `json:"libraries"`
}

// NewUserView shapes a user for a response body.
func NewUserView(u *model.User) UserView {
	return UserView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// NewBookView shapes one book for the given viewer. assocs must be the
// association rows for this book (rows for other books are ignored).
// viewerID may be empty for anonymous requests.
func NewBookView(b model.Book, assocs []model.LibraryBook, viewerID string) BookView {
	return BookView{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Genre:         b.Genre,
		PublishedYear: b.PublishedYear,
		Rating: RatingView{
			UserRating:   userRating(b.ID, assocs, viewerID),
			GlobalRating: globalRating(b.ID, assocs),
		},
	}
}

// NewBookViews shapes a list of books, sharing one association snapshot so
// list endpoints make a single pass over the rows.
func NewBookViews(books []model.Book, assocs []model.LibraryBook, viewerID string) []BookView {
	views := make([]BookView, 0, len(books))
	for _, b := range books {
		views = append(views, NewBookView(b, assocs, viewerID))
	}
	return views
}

// NewLibraryView shapes a library with its books embedded for the viewer.
func NewLibraryView(l model.Library, books []model.Book, assocs []model.LibraryBook, viewerID string) LibraryView {
	return LibraryView{
		ID:      l.ID,
		Name:    l.Name,
		UserID:  l.UserID,
		Private: l.Private,
		Books:   NewBookViews(books, assocs, viewerID),
	}
}

// userRating picks the viewer's rating for the book: the rating of the
// first association owned by the viewer. A user who shelved the book in
// several libraries holds the same rating on all of them (rating writes
// update every row), so "first" is not a coin toss.
func userRating(bookID string, assocs []model.LibraryBook, viewerID string) *int {
	if viewerID == "" {
		return nil
	}
	for _, a := range assocs {
		if a.BookID == bookID && a.OwnerID == viewerID {
			return a.Rating
		}
	}
	return nil
}

// globalRating folds the mean of all non-nil ratings for the book, rounded
// to two decimal places. nil when no association carries a rating.
func globalRating(bookID string, assocs []model.LibraryBook) *float64 {
	sum, n := 0, 0
	for _, a := range assocs {
		if a.BookID == bookID && a.Rating != nil {
			sum += *a.Rating
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := math.Round(float64(sum)/float64(n)*100) / 100
	return &mean
}
