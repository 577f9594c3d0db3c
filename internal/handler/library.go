package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/bookshelf/internal/apperror"
	"github.com/sakif/bookshelf/internal/auth"
	"github.com/sakif/bookshelf/internal/service"
)

// LibraryHandler covers the library collection, single-library operations,
// shelf membership, and rating updates. Every route here sits behind
// RequireAuth, so the user id is always present in the context.
type LibraryHandler struct {
	libraries *service.LibraryService
	logger    *slog.Logger
}

// NewLibraryHandler creates a LibraryHandler.
func NewLibraryHandler(libraries *service.LibraryService, logger *slog.Logger) *LibraryHandler {
	return &LibraryHandler{libraries: libraries, logger: logger}
}

// HandleList returns the current user's libraries.
//
// HTTP: GET /api/libraries → 200 [library...]
func (h *LibraryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	views, err := h.libraries.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

type createLibraryRequest struct {
	Name    string `json:"name"`
	Private bool   `json:"private"`
}

// HandleCreate makes a new library owned by the current user.
//
// HTTP: POST /api/libraries → 201 library | 400
func (h *LibraryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createLibraryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.libraries.Create(r.Context(), userID, req.Name, req.Private)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// HandleGet fetches one library by id: always for the owner, for others
// only when it's public.
//
// HTTP: GET /api/libraries/{id} → 200 library | 404
func (h *LibraryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	view, err := h.libraries.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type renameLibraryRequest struct {
	Name string `json:"name"`
}

// HandleRename changes a library's name (owner only).
//
// HTTP: PATCH /api/libraries/{id} → 200 library | 400 | 404
func (h *LibraryHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req renameLibraryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.libraries.Rename(r.Context(), userID, r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleDelete removes a library and its shelvings (owner only).
//
// HTTP: DELETE /api/libraries/{id} → 204 | 404
func (h *LibraryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.libraries.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type addBookRequest struct {
	BookID        string `json:"book_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	PublishedYear *int   `json:"published_year"`
	Rating        *int   `json:"rating"`
}

// HandleAddBook shelves a book — an existing one by id, or a new one from
// raw fields — into the library (owner only).
//
// HTTP: POST /api/libraries/{id}/books → 201 book | 400 | 404 | 409
func (h *LibraryHandler) HandleAddBook(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req addBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.libraries.AddBook(r.Context(), userID, r.PathValue("id"), service.AddBookInput{
		BookID:        req.BookID,
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		PublishedYear: req.PublishedYear,
		Rating:        req.Rating,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

type rateBookRequest struct {
	Rating *int `json:"rating"`
}

// HandleRateBook sets the current user's rating for a book. The write
// lands on every shelving the user has of that book.
//
// HTTP: PATCH /api/libraries/{libraryID}/books/{bookID} → 200 book | 400 | 404
func (h *LibraryHandler) HandleRateBook(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req rateBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Rating == nil {
		writeError(w, apperror.ValidationFailed("rating", "rating is required"))
		return
	}

	view, err := h.libraries.Rate(r.Context(), userID,
		r.PathValue("libraryID"), r.PathValue("bookID"), *req.Rating)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleRemoveBook takes a book off the library's shelf (owner only).
//
// HTTP: DELETE /api/libraries/{libraryID}/books/{bookID} → 204 | 404
func (h *LibraryHandler) HandleRemoveBook(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	err := h.libraries.RemoveBook(r.Context(), userID,
		r.PathValue("libraryID"), r.PathValue("bookID"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
