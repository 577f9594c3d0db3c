package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/bookshelf/internal/apperror"
	"github.com/sakif/bookshelf/internal/model"
	sqliterepo "github.com/sakif/bookshelf/internal/repository/sqlite"
	"github.com/sakif/bookshelf/internal/service"
)

func intp(v int) *int { return &v }

func newLibraryService(t *testing.T) (*service.LibraryService, *sqliterepo.DB) {
	t.Helper()
	db := newTestRepo(t)
	return service.NewLibraryService(db, db, testLogger()), db
}

func createUser(t *testing.T, db *sqliterepo.DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func TestCreateLibrary_NameBounds(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"too short", "ab", true},
		{"minimum length", "abc", false},
		{"maximum length", strings.Repeat("x", 100), false},
		{"too long", strings.Repeat("x", 101), true},
		{"whitespace only", "   ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, alice.ID, tt.input, false)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetLibrary_PrivateVisibility(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	view, err := svc.Create(ctx, alice.ID, "hidden shelf", true)
	require.NoError(t, err)

	// Owner sees it.
	_, err = svc.Get(ctx, alice.ID, view.ID)
	assert.NoError(t, err)

	// Anyone else gets the same answer as a missing id.
	_, err = svc.Get(ctx, bob.ID, view.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = svc.Get(ctx, "", view.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetLibrary_PublicVisibleToAnyone(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	view, err := svc.Create(ctx, alice.ID, "open shelf", false)
	require.NoError(t, err)

	got, err := svc.Get(ctx, bob.ID, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "open shelf", got.Name)
}

func TestRenameAndDelete_NotOwned(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	view, err := svc.Create(ctx, alice.ID, "alice shelf", false)
	require.NoError(t, err)

	_, err = svc.Rename(ctx, bob.ID, view.ID, "stolen shelf")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = svc.Delete(ctx, bob.ID, view.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// Owner can still do both.
	renamed, err := svc.Rename(ctx, alice.ID, view.ID, "renamed shelf")
	require.NoError(t, err)
	assert.Equal(t, "renamed shelf", renamed.Name)
	require.NoError(t, svc.Delete(ctx, alice.ID, view.ID))
}

func TestAddBook_CreatePath(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	library, err := svc.Create(ctx, alice.ID, "alice shelf", false)
	require.NoError(t, err)

	view, err := svc.AddBook(ctx, alice.ID, library.ID, service.AddBookInput{
		Title:  "Dune",
		Rating: intp(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune", view.Title)
	assert.Equal(t, model.DefaultAuthor, view.Author)
	require.NotNil(t, view.Rating.UserRating)
	assert.Equal(t, 5, *view.Rating.UserRating)
}

func TestAddBook_ExistingBookByID(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	library, err := svc.Create(ctx, alice.ID, "alice shelf", false)
	require.NoError(t, err)

	book := &model.Book{Title: "Dune", Author: "Frank Herbert"}
	require.NoError(t, db.CreateBook(ctx, book))

	view, err := svc.AddBook(ctx, alice.ID, library.ID, service.AddBookInput{BookID: book.ID})
	require.NoError(t, err)
	assert.Equal(t, book.ID, view.ID)
	assert.Nil(t, view.Rating.UserRating)

	// Shelving the same book twice is a conflict.
	_, err = svc.AddBook(ctx, alice.ID, library.ID, service.AddBookInput{BookID: book.ID})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestAddBook_DanglingBookID(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	library, err := svc.Create(ctx, alice.ID, "alice shelf", false)
	require.NoError(t, err)

	// A stale id never silently creates a book from the side fields.
	_, err = svc.AddBook(ctx, alice.ID, library.ID, service.AddBookInput{
		BookID: "missing",
		Title:  "Dune",
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	books, err := db.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestAddBook_RatingBounds(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	library, err := svc.Create(ctx, alice.ID, "alice shelf", false)
	require.NoError(t, err)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.AddBook(ctx, alice.ID, library.ID, service.AddBookInput{
			Title:  "Dune",
			Rating: intp(rating),
		})
		assert.ErrorIs(t, err, apperror.ErrValidation, "rating %d", rating)
	}

	_, err = svc.AddBook(ctx, alice.ID, library.ID, service.AddBookInput{
		Title:  "Dune",
		Rating: intp(1),
	})
	assert.NoError(t, err)
}

func TestAddBook_MissingTitle(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	library, err := svc.Create(ctx, alice.ID, "alice shelf", false)
	require.NoError(t, err)

	_, err = svc.AddBook(ctx, alice.ID, library.ID, service.AddBookInput{Author: "Anonymous"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestRemoveBook(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	library, err := svc.Create(ctx, alice.ID, "alice shelf", false)
	require.NoError(t, err)

	view, err := svc.AddBook(ctx, alice.ID, library.ID, service.AddBookInput{Title: "Dune"})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveBook(ctx, alice.ID, library.ID, view.ID))

	// Removing again is a not-found; the global record survives.
	err = svc.RemoveBook(ctx, alice.ID, library.ID, view.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = db.GetBookByID(ctx, view.ID)
	assert.NoError(t, err)
}

func TestRate(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	library, err := svc.Create(ctx, alice.ID, "alice shelf", false)
	require.NoError(t, err)

	view, err := svc.AddBook(ctx, alice.ID, library.ID, service.AddBookInput{Title: "Dune"})
	require.NoError(t, err)

	rated, err := svc.Rate(ctx, alice.ID, library.ID, view.ID, 4)
	require.NoError(t, err)
	require.NotNil(t, rated.Rating.UserRating)
	assert.Equal(t, 4, *rated.Rating.UserRating)
	require.NotNil(t, rated.Rating.GlobalRating)
	assert.Equal(t, 4.0, *rated.Rating.GlobalRating)

	// Out-of-range ratings are rejected before touching the store.
	_, err = svc.Rate(ctx, alice.ID, library.ID, view.ID, 6)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestRate_UnshelvedBook(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	library, err := svc.Create(ctx, alice.ID, "alice shelf", false)
	require.NoError(t, err)

	book := &model.Book{Title: "Dune", Author: "Frank Herbert"}
	require.NoError(t, db.CreateBook(ctx, book))

	_, err = svc.Rate(ctx, alice.ID, library.ID, book.ID, 3)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestList_EmbedsBooksAndRatings(t *testing.T) {
	svc, db := newLibraryService(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	library, err := svc.Create(ctx, alice.ID, "alice shelf", false)
	require.NoError(t, err)

	_, err = svc.AddBook(ctx, alice.ID, library.ID, service.AddBookInput{
		Title:  "Dune",
		Rating: intp(3),
	})
	require.NoError(t, err)

	views, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Books, 1)
	require.NotNil(t, views[0].Books[0].Rating.UserRating)
	assert.Equal(t, 3, *views[0].Books[0].Rating.UserRating)
}
