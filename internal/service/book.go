package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/bookshelf/internal/apperror"
	"github.com/sakif/bookshelf/internal/repository"
	"github.com/sakif/bookshelf/internal/serializer"
)

// BookService handles the global catalog and its derived read-only views.
type BookService struct {
	books  repository.BookRepository
	logger *slog.Logger
}

// NewBookService creates a BookService with its dependencies injected.
func NewBookService(books repository.BookRepository, logger *slog.Logger) *BookService {
	return &BookService{
		books:  books,
		logger: logger,
	}
}

// List returns the whole catalog, each book annotated with the viewer's
// own rating and the global mean. viewerID is empty for anonymous
// requests, which simply leaves every userRating null.
func (s *BookService) List(ctx context.Context, viewerID string) ([]serializer.BookView, error) {
	books, err := s.books.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}

	assocs, err := s.books.ListAssociations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing associations: %w", err)
	}

	return serializer.NewBookViews(books, assocs, viewerID), nil
}

// CreateBookInput carries the fields for a new global catalog record.
type CreateBookInput struct {
	Title         string
	Author        string
	Genre         string
	PublishedYear *int
}

// Create adds a book to the global catalog without shelving it anywhere.
func (s *BookService) Create(ctx context.Context, viewerID string, in CreateBookInput) (serializer.BookView, error) {
	book, err := newBook(in.Title, in.Author, in.Genre, in.PublishedYear)
	if err != nil {
		return serializer.BookView{}, err
	}

	if err := s.books.CreateBook(ctx, book); err != nil {
		return serializer.BookView{}, fmt.Errorf("creating book: %w", err)
	}

	s.logger.Info("book created",
		slog.String("bookID", book.ID),
		slog.String("title", book.Title),
	)

	// A brand-new book has no associations, so both derived ratings are
	// null by construction.
	return serializer.NewBookView(*book, nil, viewerID), nil
}

// ListWithMinRatedCount returns books carrying at least count rated
// shelvings, annotated for the viewer.
func (s *BookService) ListWithMinRatedCount(ctx context.Context, viewerID string, count int) ([]serializer.BookView, error) {
	if count < 0 {
		return nil, apperror.ValidationFailed("count", "count must not be negative")
	}

	books, err := s.books.ListBooksWithMinRatedCount(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("listing books with >= %d ratings: %w", count, err)
	}

	assocs, err := s.books.ListAssociations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing associations: %w", err)
	}

	return serializer.NewBookViews(books, assocs, viewerID), nil
}

// ListWithMinRating returns books with at least one shelving rated at or
// above the threshold, annotated for the viewer.
func (s *BookService) ListWithMinRating(ctx context.Context, viewerID string, rating int) ([]serializer.BookView, error) {
	books, err := s.books.ListBooksWithMinRating(ctx, rating)
	if err != nil {
		return nil, fmt.Errorf("listing books rated >= %d: %w", rating, err)
	}

	assocs, err := s.books.ListAssociations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing associations: %w", err)
	}

	return serializer.NewBookViews(books, assocs, viewerID), nil
}
