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

// compile-time check that *DB implements repository.LibraryRepository
var _ repository.LibraryRepository = (*DB)(nil)

// CreateLibrary inserts a new library, generating the id and timestamps.
func (db *DB) CreateLibrary(ctx context.Context, library *model.Library) error {
	now := time.Now()
	library.ID = xid.New().String()
	library.CreatedAt = now
	library.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO libraries (id, name, user_id, private, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		library.ID,
		library.Name,
		library.UserID,
		library.Private,
		library.CreatedAt,
		library.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting library %q: %w", library.Name, err)
	}

	return nil
}

// GetLibraryByID retrieves a library by id. Ownership and privacy checks
// are the service layer's business; this returns the row either way.
func (db *DB) GetLibraryByID(ctx context.Context, id string) (*model.Library, error) {
	var l model.Library

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, user_id, private, created_at, updated_at
		 FROM libraries WHERE id = ?`,
		id,
	).Scan(&l.ID, &l.Name, &l.UserID, &l.Private, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("library", id)
		}
		return nil, fmt.Errorf("sqlite: getting library %s: %w", id, err)
	}

	return &l, nil
}

// ListLibrariesByUser returns all libraries owned by userID, oldest first.
func (db *DB) ListLibrariesByUser(ctx context.Context, userID string) ([]model.Library, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, user_id, private, created_at, updated_at
		 FROM libraries WHERE user_id = ? ORDER BY created_at, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing libraries for user %s: %w", userID, err)
	}
	defer rows.Close()

	libraries := []model.Library{}
	for rows.Next() {
		var l model.Library
		if err := rows.Scan(&l.ID, &l.Name, &l.UserID, &l.Private, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning library: %w", err)
		}
		libraries = append(libraries, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating libraries: %w", err)
	}

	return libraries, nil
}

// UpdateLibrary persists name/private changes to an existing library.
func (db *DB) UpdateLibrary(ctx context.Context, library *model.Library) error {
	library.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE libraries SET name = ?, private = ?, updated_at = ? WHERE id = ?`,
		library.Name, library.Private, library.UpdatedAt, library.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating library %s: %w", library.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating library %s: %w", library.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("library", library.ID)
	}

	return nil
}

// DeleteLibrary removes the library. The library_books rows go with it via
// ON DELETE CASCADE; the books themselves are untouched.
func (db *DB) DeleteLibrary(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM libraries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting library %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: deleting library %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("library", id)
	}

	return nil
}

// AddLibraryBook creates the association row. The composite primary key
// turns a duplicate shelving into a unique violation, reported as a
// conflict.
func (db *DB) AddLibraryBook(ctx context.Context, libraryID, bookID string, rating *int) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO library_books (library_id, book_id, rating, created_at)
		 VALUES (?, ?, ?, ?)`,
		libraryID, bookID, nullableRating(rating), time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("book is already in this library")
		}
		return fmt.Errorf("sqlite: adding book %s to library %s: %w", bookID, libraryID, err)
	}

	return nil
}

// CreateAndAddBook creates a book and its association row in one
// transaction, so a failed attach cannot leave an orphaned book behind.
func (db *DB) CreateAndAddBook(ctx context.Context, libraryID string, book *model.Book, rating *int) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	book.ID = xid.New().String()
	book.CreatedAt = now
	book.UpdatedAt = now

	_, err = tx.ExecContext(ctx,
		`INSERT INTO books (id, title, author, genre, published_year, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.Author, book.Genre, nullableRating(book.PublishedYear),
		book.CreatedAt, book.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting book %q: %w", book.Title, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO library_books (library_id, book_id, rating, created_at)
		 VALUES (?, ?, ?, ?)`,
		libraryID, book.ID, nullableRating(rating), now)
	if err != nil {
		return fmt.Errorf("sqlite: attaching book %s to library %s: %w", book.ID, libraryID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing book create+attach: %w", err)
	}

	return nil
}

// RemoveLibraryBook deletes the association row, detaching the book from
// the library. The book row stays in the catalog.
func (db *DB) RemoveLibraryBook(ctx context.Context, libraryID, bookID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM library_books WHERE library_id = ? AND book_id = ?`,
		libraryID, bookID)
	if err != nil {
		return fmt.Errorf("sqlite: removing book %s from library %s: %w", bookID, libraryID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: removing book %s from library %s: %w", bookID, libraryID, err)
	}
	if affected == 0 {
		return apperror.NotFound("book", bookID)
	}

	return nil
}

// SetUserBookRating updates the rating on every association the user holds
// for the book. A user can shelve the same book in several of their
// libraries; all of those pairings move to the new rating together.
func (db *DB) SetUserBookRating(ctx context.Context, userID, bookID string, rating int) (int, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE library_books SET rating = ?
		 WHERE book_id = ?
		   AND library_id IN (SELECT id FROM libraries WHERE user_id = ?)`,
		rating, bookID, userID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: rating book %s for user %s: %w", bookID, userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rating book %s for user %s: %w", bookID, userID, err)
	}

	return int(affected), nil
}

// nullableRating converts a *int into the driver's NULL representation.
// Shared by rating and published_year columns.
func nullableRating(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
