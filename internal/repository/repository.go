// Package repository defines the storage interfaces the service layer
// depends on. Services receive these interfaces, never the concrete
// sqlite.DB — tests inject an in-memory database or a fake, and the storage
// backend can be swapped without touching business logic.
package repository

import (
	"context"

	"github.com/sakif/bookshelf/internal/model"
)

// UserRepository manages user accounts.
type UserRepository interface {
	// CreateUser inserts a new user, generating ID and timestamps.
	// A username/email unique violation surfaces as apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByID returns apperror.ErrNotFound if no such user exists.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// LookupUser is the combined duplicate check used at signup: it returns
	// the first user whose username OR email matches, with username taking
	// precedence. Returns (nil, nil) when neither is taken.
	LookupUser(ctx context.Context, username, email string) (*model.User, error)

	// GetUserByGitHubID looks up an OAuth-created account.
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
}

// LibraryRepository manages libraries and their book associations.
type LibraryRepository interface {
	CreateLibrary(ctx context.Context, library *model.Library) error
	GetLibraryByID(ctx context.Context, id string) (*model.Library, error)
	ListLibrariesByUser(ctx context.Context, userID string) ([]model.Library, error)
	UpdateLibrary(ctx context.Context, library *model.Library) error

	// DeleteLibrary removes the library; its association rows cascade away,
	// the books themselves stay.
	DeleteLibrary(ctx context.Context, id string) error

	// AddLibraryBook creates the (library, book) association with an
	// optional initial rating. A duplicate pairing surfaces as
	// apperror.ErrConflict.
	AddLibraryBook(ctx context.Context, libraryID, bookID string, rating *int) error

	// CreateAndAddBook creates the book and attaches it to the library as
	// one atomic unit — a failed attach never leaves an orphaned book.
	CreateAndAddBook(ctx context.Context, libraryID string, book *model.Book, rating *int) error

	// RemoveLibraryBook deletes the association row. Returns
	// apperror.ErrNotFound when the pairing does not exist.
	RemoveLibraryBook(ctx context.Context, libraryID, bookID string) error

	// SetUserBookRating sets the rating on every association the user holds
	// for the book, across all of their libraries. Returns the number of
	// rows updated (zero means the user has not shelved the book).
	SetUserBookRating(ctx context.Context, userID, bookID string, rating int) (int, error)
}

// BookRepository manages the global book catalog and its derived views.
type BookRepository interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBookByID(ctx context.Context, id string) (*model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	ListBooksByLibrary(ctx context.Context, libraryID string) ([]model.Book, error)

	// ListBooksWithMinRatedCount returns books carrying at least count
	// rated associations.
	ListBooksWithMinRatedCount(ctx context.Context, count int) ([]model.Book, error)

	// ListBooksWithMinRating returns books with at least one association
	// rated >= rating.
	ListBooksWithMinRating(ctx context.Context, rating int) ([]model.Book, error)

	// ListAssociations returns every association row joined with the
	// owning library's user id. Response shaping folds per-user and global
	// ratings from these rows at request time; aggregates are never stored.
	ListAssociations(ctx context.Context) ([]model.LibraryBook, error)
}
