package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/bookshelf/internal/apperror"
	"github.com/sakif/bookshelf/internal/model"
	"github.com/sakif/bookshelf/internal/repository"
	"github.com/sakif/bookshelf/internal/serializer"
)

// LibraryService handles library CRUD, shelf membership, and rating writes.
type LibraryService struct {
	libraries repository.LibraryRepository
	books     repository.BookRepository
	logger    *slog.Logger
}

// NewLibraryService creates a LibraryService with its dependencies injected.
func NewLibraryService(
	libraries repository.LibraryRepository,
	books repository.BookRepository,
	logger *slog.Logger,
) *LibraryService {
	return &LibraryService{
		libraries: libraries,
		books:     books,
		logger:    logger,
	}
}

// ownedLibrary is the uniform authorization check applied to every mutating
// endpoint: the library must exist AND belong to userID. Both failures are
// the same not-found, so a non-owner can't probe which ids exist.
func (s *LibraryService) ownedLibrary(ctx context.Context, userID, libraryID string) (*model.Library, error) {
	library, err := s.libraries.GetLibraryByID(ctx, libraryID)
	if err != nil {
		return nil, err
	}
	if library.UserID != userID {
		return nil, apperror.NotFound("library", libraryID)
	}
	return library, nil
}

// List returns the requesting user's libraries with books and ratings
// embedded. The query is ownership-scoped, so nobody else's libraries —
// private or not — ever appear here.
func (s *LibraryService) List(ctx context.Context, userID string) ([]serializer.LibraryView, error) {
	libraries, err := s.libraries.ListLibrariesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing libraries: %w", err)
	}

	assocs, err := s.books.ListAssociations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing associations: %w", err)
	}

	views := make([]serializer.LibraryView, 0, len(libraries))
	for _, l := range libraries {
		books, err := s.books.ListBooksByLibrary(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("listing books for library %s: %w", l.ID, err)
		}
		views = append(views, serializer.NewLibraryView(l, books, assocs, userID))
	}

	return views, nil
}

// Create makes a new, empty library owned by userID.
func (s *LibraryService) Create(ctx context.Context, userID, name string, private bool) (serializer.LibraryView, error) {
	name = strings.TrimSpace(name)
	if err := model.ValidateLibraryName(name); err != nil {
		return serializer.LibraryView{}, err
	}

	library := &model.Library{
		Name:    name,
		UserID:  userID,
		Private: private,
	}
	if err := s.libraries.CreateLibrary(ctx, library); err != nil {
		return serializer.LibraryView{}, fmt.Errorf("creating library: %w", err)
	}

	s.logger.Info("library created",
		slog.String("libraryID", library.ID),
		slog.String("userID", userID),
	)

	return serializer.NewLibraryView(*library, nil, nil, userID), nil
}

// Get fetches one library with its books. The owner always sees it;
// everyone else sees it only when it isn't private — a foreign private
// library is indistinguishable from a missing one.
func (s *LibraryService) Get(ctx context.Context, viewerID, libraryID string) (serializer.LibraryView, error) {
	library, err := s.libraries.GetLibraryByID(ctx, libraryID)
	if err != nil {
		return serializer.LibraryView{}, err
	}
	if library.Private && library.UserID != viewerID {
		return serializer.LibraryView{}, apperror.NotFound("library", libraryID)
	}

	return s.libraryView(ctx, *library, viewerID)
}

// Rename changes a library's name. Owner-only.
func (s *LibraryService) Rename(ctx context.Context, userID, libraryID, name string) (serializer.LibraryView, error) {
	library, err := s.ownedLibrary(ctx, userID, libraryID)
	if err != nil {
		return serializer.LibraryView{}, err
	}

	name = strings.TrimSpace(name)
	if err := model.ValidateLibraryName(name); err != nil {
		return serializer.LibraryView{}, err
	}

	library.Name = name
	if err := s.libraries.UpdateLibrary(ctx, library); err != nil {
		return serializer.LibraryView{}, fmt.Errorf("renaming library %s: %w", libraryID, err)
	}

	return s.libraryView(ctx, *library, userID)
}

// Delete removes a library and all of its association rows. The books
// themselves, and other libraries' shelvings of them, are untouched.
func (s *LibraryService) Delete(ctx context.Context, userID, libraryID string) error {
	if _, err := s.ownedLibrary(ctx, userID, libraryID); err != nil {
		return err
	}

	if err := s.libraries.DeleteLibrary(ctx, libraryID); err != nil {
		return fmt.Errorf("deleting library %s: %w", libraryID, err)
	}

	s.logger.Info("library deleted",
		slog.String("libraryID", libraryID),
		slog.String("userID", userID),
	)

	return nil
}

// AddBookInput carries the add-book request. Either BookID references an
// existing catalog record, or Title (plus optional fields) describes a new
// one. Rating, when present, is the initial rating for the pairing.
type AddBookInput struct {
	BookID        string
	Title         string
	Author        string
	Genre         string
	PublishedYear *int
	Rating        *int
}

// AddBook shelves a book into an owned library.
//
// Policy for the ambiguous "both id and fields" case: when BookID is
// present it must resolve — a dangling id is a not-found, and the
// side-supplied fields are never silently promoted into a new book.
// Creation happens only when BookID is absent, and then the book and its
// association are written as one atomic unit.
func (s *LibraryService) AddBook(ctx context.Context, userID, libraryID string, in AddBookInput) (serializer.BookView, error) {
	if _, err := s.ownedLibrary(ctx, userID, libraryID); err != nil {
		return serializer.BookView{}, err
	}

	if in.Rating != nil {
		if err := model.ValidateRating(*in.Rating); err != nil {
			return serializer.BookView{}, err
		}
	}

	var book *model.Book

	if in.BookID != "" {
		existing, err := s.books.GetBookByID(ctx, in.BookID)
		if err != nil {
			return serializer.BookView{}, err
		}
		if err := s.libraries.AddLibraryBook(ctx, libraryID, existing.ID, in.Rating); err != nil {
			return serializer.BookView{}, err
		}
		book = existing
	} else {
		created, err := newBook(in.Title, in.Author, in.Genre, in.PublishedYear)
		if err != nil {
			return serializer.BookView{}, err
		}
		if err := s.libraries.CreateAndAddBook(ctx, libraryID, created, in.Rating); err != nil {
			return serializer.BookView{}, fmt.Errorf("creating and shelving book: %w", err)
		}
		book = created
	}

	s.logger.Info("book shelved",
		slog.String("bookID", book.ID),
		slog.String("libraryID", libraryID),
	)

	return s.bookView(ctx, *book, userID)
}

// RemoveBook takes a book off an owned library's shelf.
func (s *LibraryService) RemoveBook(ctx context.Context, userID, libraryID, bookID string) error {
	if _, err := s.ownedLibrary(ctx, userID, libraryID); err != nil {
		return err
	}

	if err := s.libraries.RemoveLibraryBook(ctx, libraryID, bookID); err != nil {
		return err
	}

	return nil
}

// Rate sets the user's rating for a book. The rating applies to every
// association the user holds for that book — shelving a book in three of
// your libraries and rating it once rates all three pairings.
func (s *LibraryService) Rate(ctx context.Context, userID, libraryID, bookID string, rating int) (serializer.BookView, error) {
	if _, err := s.ownedLibrary(ctx, userID, libraryID); err != nil {
		return serializer.BookView{}, err
	}

	if err := model.ValidateRating(rating); err != nil {
		return serializer.BookView{}, err
	}

	updated, err := s.libraries.SetUserBookRating(ctx, userID, bookID, rating)
	if err != nil {
		return serializer.BookView{}, fmt.Errorf("rating book %s: %w", bookID, err)
	}
	if updated == 0 {
		return serializer.BookView{}, apperror.NotFound("book", bookID)
	}

	book, err := s.books.GetBookByID(ctx, bookID)
	if err != nil {
		return serializer.BookView{}, err
	}

	s.logger.Info("book rated",
		slog.String("bookID", bookID),
		slog.String("userID", userID),
		slog.Int("rating", rating),
	)

	return s.bookView(ctx, *book, userID)
}

// libraryView assembles the response shape for one library.
func (s *LibraryService) libraryView(ctx context.Context, library model.Library, viewerID string) (serializer.LibraryView, error) {
	books, err := s.books.ListBooksByLibrary(ctx, library.ID)
	if err != nil {
		return serializer.LibraryView{}, fmt.Errorf("listing books for library %s: %w", library.ID, err)
	}
	assocs, err := s.books.ListAssociations(ctx)
	if err != nil {
		return serializer.LibraryView{}, fmt.Errorf("listing associations: %w", err)
	}

	return serializer.NewLibraryView(library, books, assocs, viewerID), nil
}

// bookView assembles the response shape for one book in the viewer's
// context.
func (s *LibraryService) bookView(ctx context.Context, book model.Book, viewerID string) (serializer.BookView, error) {
	assocs, err := s.books.ListAssociations(ctx)
	if err != nil {
		return serializer.BookView{}, fmt.Errorf("listing associations: %w", err)
	}
	return serializer.NewBookView(book, assocs, viewerID), nil
}

// newBook validates raw book fields and builds the model. Author defaults
// to "Unknown" when omitted.
func newBook(title, author, genre string, publishedYear *int) (*model.Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}

	author = strings.TrimSpace(author)
	if author == "" {
		author = model.DefaultAuthor
	}

	if publishedYear != nil {
		if err := model.ValidatePublishedYear(*publishedYear); err != nil {
			return nil, err
		}
	}

	return &model.Book{
		Title:         title,
		Author:        author,
		Genre:         strings.TrimSpace(genre),
		PublishedYear: publishedYear,
	}, nil
}
