package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/bookshelf/internal/model"
)

// newTestDB opens a fresh in-memory database per test: fast, isolated,
// destroyed when the connection closes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username, email string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: email, PasswordHash: "$2a$04$fakehash"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return user
}

func createTestLibrary(t *testing.T, db *DB, userID, name string, private bool) *model.Library {
	t.Helper()
	library := &model.Library{Name: name, UserID: userID, Private: private}
	if err := db.CreateLibrary(context.Background(), library); err != nil {
		t.Fatalf("failed to create test library %q: %v", name, err)
	}
	return library
}

func createTestBook(t *testing.T, db *DB, title string) *model.Book {
	t.Helper()
	book := &model.Book{Title: title, Author: model.DefaultAuthor}
	if err := db.CreateBook(context.Background(), book); err != nil {
		t.Fatalf("failed to create test book %q: %v", title, err)
	}
	return book
}

func intp(v int) *int { return &v }
