package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/bookshelf/internal/apperror"
	"github.com/sakif/bookshelf/internal/auth"
	"github.com/sakif/bookshelf/internal/service"
)

// BookHandler covers the global catalog: the public listing, book
// creation, and the two derived filter views.
type BookHandler struct {
	books  *service.BookService
	logger *slog.Logger
}

// NewBookHandler creates a BookHandler.
func NewBookHandler(books *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{books: books, logger: logger}
}

// HandleList returns every catalog book. The route carries OptionalAuth:
// anonymous callers get null userRatings, signed-in callers get their own.
//
// HTTP: GET /api/books → 200 [book...]
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	views, err := h.books.List(r.Context(), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

type createBookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Genre         string `json:"genre"`
	PublishedYear *int   `json:"published_year"`
}

// HandleCreate adds a book to the global catalog.
//
// HTTP: POST /api/books → 201 book | 400
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	var req createBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	view, err := h.books.Create(r.Context(), viewerID, service.CreateBookInput{
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		PublishedYear: req.PublishedYear,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// HandleManyRatings lists books rated by at least {count} shelvings.
//
// HTTP: GET /api/many_ratings/{count} → 200 [book...] | 400
func (h *BookHandler) HandleManyRatings(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	count, err := strconv.Atoi(r.PathValue("count"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("count", "count must be an integer"))
		return
	}

	views, err := h.books.ListWithMinRatedCount(r.Context(), viewerID, count)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// HandleMinRating lists books with at least one shelving rated at or
// above {rating}.
//
// HTTP: GET /api/min_rating/{rating} → 200 [book...] | 400
func (h *BookHandler) HandleMinRating(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	rating, err := strconv.Atoi(r.PathValue("rating"))
	if err != nil {
		writeError(w, apperror.ValidationFailed("rating", "rating must be an integer"))
		return
	}

	views, err := h.books.ListWithMinRating(r.Context(), viewerID, rating)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}
