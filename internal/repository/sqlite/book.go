package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/bookshelf/internal/apperror"
	"github.com/sakif/bookshelf/internal/model"
	"github.com/sakif/bookshelf/internal/repository"
)

// compile-time check that *DB implements repository.BookRepository
var _ repository.BookRepository = (*DB)(nil)

const bookColumns = `id, title, author, genre, published_year, created_at, updated_at`

// CreateBook inserts a new global catalog record.
func (db *DB) CreateBook(ctx context.Context, book *model.Book) error {
	now := time.Now()
	book.ID = xid.New().String()
	book.CreatedAt = now
	book.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO books (id, title, author, genre, published_year, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.Author, book.Genre, nullableRating(book.PublishedYear),
		book.CreatedAt, book.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting book %q: %w", book.Title, err)
	}

	return nil
}

func scanBooks(rows *sql.Rows) ([]model.Book, error) {
	books := []model.Book{}
	for rows.Next() {
		var (
			b    model.Book
			year sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &year, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning book: %w", err)
		}
		if year.Valid {
			y := int(year.Int64)
			b.PublishedYear = &y
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating books: %w", err)
	}
	return books, nil
}

// GetBookByID retrieves a book by id.
func (db *DB) GetBookByID(ctx context.Context, id string) (*model.Book, error) {
	var (
		b    model.Book
		year sql.NullInt64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id,
	).Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &year, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("book", id)
		}
		return nil, fmt.Errorf("sqlite: getting book %s: %w", id, err)
	}
	if year.Valid {
		y := int(year.Int64)
		b.PublishedYear = &y
	}

	return &b, nil
}

// ListBooks returns the whole catalog, oldest first.
func (db *DB) ListBooks(ctx context.Context) ([]model.Book, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing books: %w", err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

// ListBooksByLibrary returns the books shelved in a library, in shelving
// order.
func (db *DB) ListBooksByLibrary(ctx context.Context, libraryID string) ([]model.Book, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT b.id, b.title, b.author, b.genre, b.published_year, b.created_at, b.updated_at
		 FROM books b
		 JOIN library_books lb ON lb.book_id = b.id
		 WHERE lb.library_id = ?
		 ORDER BY lb.created_at, b.id`,
		libraryID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing books for library %s: %w", libraryID, err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

// ListBooksWithMinRatedCount returns books carrying at least count rated
// associations — "books rated by at least N shelvings".
func (db *DB) ListBooksWithMinRatedCount(ctx context.Context, count int) ([]model.Book, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id IN (
			SELECT book_id FROM library_books
			WHERE rating IS NOT NULL
			GROUP BY book_id
			HAVING COUNT(*) >= ?
		 ) ORDER BY created_at, id`,
		count)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing books with >= %d ratings: %w", count, err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

// ListBooksWithMinRating returns books with at least one association rated
// at or above the threshold.
func (db *DB) ListBooksWithMinRating(ctx context.Context, rating int) ([]model.Book, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id IN (
			SELECT book_id FROM library_books WHERE rating >= ?
		 ) ORDER BY created_at, id`,
		rating)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing books rated >= %d: %w", rating, err)
	}
	defer rows.Close()

	return scanBooks(rows)
}

// ListAssociations returns every library_books row joined with the owning
// library's user id. This is the raw material the serializer folds into
// per-user and global ratings on every response.
func (db *DB) ListAssociations(ctx context.Context) ([]model.LibraryBook, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT lb.library_id, lb.book_id, l.user_id, lb.rating, lb.created_at
		 FROM library_books lb
		 JOIN libraries l ON l.id = lb.library_id
		 ORDER BY lb.created_at`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing associations: %w", err)
	}
	defer rows.Close()

	assocs := []model.LibraryBook{}
	for rows.Next() {
		var (
			a      model.LibraryBook
			rating sql.NullInt64
		)
		if err := rows.Scan(&a.LibraryID, &a.BookID, &a.OwnerID, &rating, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning association: %w", err)
		}
		if rating.Valid {
			r := int(rating.Int64)
			a.Rating = &r
		}
		assocs = append(assocs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating associations: %w", err)
	}

	return assocs, nil
}
