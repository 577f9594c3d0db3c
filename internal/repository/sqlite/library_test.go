package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/bookshelf/internal/apperror"
	"github.com/sakif/bookshelf/internal/model"
)

func TestCreateAndGetLibrary(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice", "alice@example.com")

	library := createTestLibrary(t, db, user.ID, "sci-fi shelf", true)

	got, err := db.GetLibraryByID(context.Background(), library.ID)
	if err != nil {
		t.Fatalf("GetLibraryByID() error = %v", err)
	}
	if got.Name != "sci-fi shelf" || got.UserID != user.ID || !got.Private {
		t.Errorf("GetLibraryByID() = %+v", got)
	}
}

func TestListLibrariesByUser_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	createTestLibrary(t, db, alice.ID, "alice one", false)
	createTestLibrary(t, db, alice.ID, "alice two", true)
	createTestLibrary(t, db, bob.ID, "bob shelf", false)

	libraries, err := db.ListLibrariesByUser(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListLibrariesByUser() error = %v", err)
	}
	if len(libraries) != 2 {
		t.Fatalf("len = %d, want 2", len(libraries))
	}
	for _, l := range libraries {
		if l.UserID != alice.ID {
			t.Errorf("listed a library owned by %s", l.UserID)
		}
	}
}

func TestUpdateLibrary(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice", "alice@example.com")
	library := createTestLibrary(t, db, user.ID, "old name", false)

	library.Name = "new name"
	if err := db.UpdateLibrary(context.Background(), library); err != nil {
		t.Fatalf("UpdateLibrary() error = %v", err)
	}

	got, err := db.GetLibraryByID(context.Background(), library.ID)
	if err != nil {
		t.Fatalf("GetLibraryByID() error = %v", err)
	}
	if got.Name != "new name" {
		t.Errorf("Name = %q, want %q", got.Name, "new name")
	}
}

func TestDeleteLibrary_CascadesAssociationsOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	aliceLib := createTestLibrary(t, db, alice.ID, "alice shelf", false)
	bobLib := createTestLibrary(t, db, bob.ID, "bob shelf", false)
	book := createTestBook(t, db, "Dune")

	if err := db.AddLibraryBook(ctx, aliceLib.ID, book.ID, intp(4)); err != nil {
		t.Fatalf("AddLibraryBook() error = %v", err)
	}
	if err := db.AddLibraryBook(ctx, bobLib.ID, book.ID, intp(5)); err != nil {
		t.Fatalf("AddLibraryBook() error = %v", err)
	}

	if err := db.DeleteLibrary(ctx, aliceLib.ID); err != nil {
		t.Fatalf("DeleteLibrary() error = %v", err)
	}

	// The book survives, and so does bob's association.
	if _, err := db.GetBookByID(ctx, book.ID); err != nil {
		t.Errorf("book was deleted with the library: %v", err)
	}
	assocs, err := db.ListAssociations(ctx)
	if err != nil {
		t.Fatalf("ListAssociations() error = %v", err)
	}
	if len(assocs) != 1 || assocs[0].LibraryID != bobLib.ID {
		t.Errorf("associations after delete = %+v, want only bob's", assocs)
	}
}

func TestDeleteLibrary_NotFound(t *testing.T) {
	db := newTestDB(t)

	if err := db.DeleteLibrary(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteLibrary() error = %v, want ErrNotFound", err)
	}
}

func TestAddLibraryBook_DuplicateIsConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice", "alice@example.com")
	library := createTestLibrary(t, db, user.ID, "alice shelf", false)
	book := createTestBook(t, db, "Dune")

	if err := db.AddLibraryBook(ctx, library.ID, book.ID, nil); err != nil {
		t.Fatalf("AddLibraryBook() error = %v", err)
	}

	err := db.AddLibraryBook(ctx, library.ID, book.ID, nil)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second AddLibraryBook() error = %v, want ErrConflict", err)
	}
}

func TestRemoveLibraryBook_ThenReAdd(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice", "alice@example.com")
	library := createTestLibrary(t, db, user.ID, "alice shelf", false)
	book := createTestBook(t, db, "Dune")

	if err := db.AddLibraryBook(ctx, library.ID, book.ID, intp(3)); err != nil {
		t.Fatalf("AddLibraryBook() error = %v", err)
	}
	if err := db.RemoveLibraryBook(ctx, library.ID, book.ID); err != nil {
		t.Fatalf("RemoveLibraryBook() error = %v", err)
	}

	// Removing detaches only; re-adding succeeds.
	if err := db.AddLibraryBook(ctx, library.ID, book.ID, nil); err != nil {
		t.Errorf("re-AddLibraryBook() error = %v, want nil", err)
	}
}

func TestRemoveLibraryBook_MissingIsNotFound(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice", "alice@example.com")
	library := createTestLibrary(t, db, user.ID, "alice shelf", false)

	err := db.RemoveLibraryBook(context.Background(), library.ID, "no-such-book")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("RemoveLibraryBook() error = %v, want ErrNotFound", err)
	}
}

func TestSetUserBookRating_UpdatesAllOwnedShelvings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	aliceFavs := createTestLibrary(t, db, alice.ID, "favourites", false)
	aliceToRead := createTestLibrary(t, db, alice.ID, "to reread", false)
	bobLib := createTestLibrary(t, db, bob.ID, "bob shelf", false)
	book := createTestBook(t, db, "Dune")

	for _, libID := range []string{aliceFavs.ID, aliceToRead.ID, bobLib.ID} {
		if err := db.AddLibraryBook(ctx, libID, book.ID, intp(2)); err != nil {
			t.Fatalf("AddLibraryBook(%s) error = %v", libID, err)
		}
	}

	updated, err := db.SetUserBookRating(ctx, alice.ID, book.ID, 5)
	if err != nil {
		t.Fatalf("SetUserBookRating() error = %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2 (both of alice's shelvings)", updated)
	}

	assocs, err := db.ListAssociations(ctx)
	if err != nil {
		t.Fatalf("ListAssociations() error = %v", err)
	}
	for _, a := range assocs {
		want := 5
		if a.OwnerID == bob.ID {
			want = 2 // bob's rating is untouched
		}
		if a.Rating == nil || *a.Rating != want {
			t.Errorf("association %s/%s rating = %v, want %d", a.LibraryID, a.BookID, a.Rating, want)
		}
	}
}

func TestSetUserBookRating_NoShelvingsUpdatesNothing(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice", "alice@example.com")
	book := createTestBook(t, db, "Dune")

	updated, err := db.SetUserBookRating(context.Background(), user.ID, book.ID, 4)
	if err != nil {
		t.Fatalf("SetUserBookRating() error = %v", err)
	}
	if updated != 0 {
		t.Errorf("updated = %d, want 0", updated)
	}
}

func TestCreateAndAddBook(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice", "alice@example.com")
	library := createTestLibrary(t, db, user.ID, "alice shelf", false)

	book := &model.Book{Title: "Hyperion", Author: "Dan Simmons"}
	if err := db.CreateAndAddBook(ctx, library.ID, book, intp(5)); err != nil {
		t.Fatalf("CreateAndAddBook() error = %v", err)
	}
	if book.ID == "" {
		t.Fatal("CreateAndAddBook() did not set book.ID")
	}

	books, err := db.ListBooksByLibrary(ctx, library.ID)
	if err != nil {
		t.Fatalf("ListBooksByLibrary() error = %v", err)
	}
	if len(books) != 1 || books[0].ID != book.ID {
		t.Errorf("ListBooksByLibrary() = %+v, want the created book", books)
	}

	assocs, err := db.ListAssociations(ctx)
	if err != nil {
		t.Fatalf("ListAssociations() error = %v", err)
	}
	if len(assocs) != 1 || assocs[0].Rating == nil || *assocs[0].Rating != 5 {
		t.Errorf("associations = %+v, want one row rated 5", assocs)
	}
}

func TestCreateAndAddBook_FailedAttachLeavesNoOrphan(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// The attach violates the library foreign key, so the whole
	// transaction — including the book insert — must roll back.
	book := &model.Book{Title: "Orphan", Author: model.DefaultAuthor}
	if err := db.CreateAndAddBook(ctx, "no-such-library", book, nil); err == nil {
		t.Fatal("CreateAndAddBook() with a missing library succeeded, want error")
	}

	books, err := db.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks() error = %v", err)
	}
	if len(books) != 0 {
		t.Errorf("found %d orphaned book(s) after failed attach", len(books))
	}
}
