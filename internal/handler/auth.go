package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/bookshelf/internal/auth"
	"github.com/sakif/bookshelf/internal/serializer"
	"github.com/sakif/bookshelf/internal/service"
)

// AuthHandler covers signup, login, logout, the session check, and the
// GitHub OAuth flow. Login and signup issue the session cookie; logout
// clears it; everything else just reads it via the middleware.
type AuthHandler struct {
	auth      *service.AuthService
	libraries *service.LibraryService
	tokens    *auth.TokenService
	github    *auth.GitHubProvider // nil when OAuth is not configured
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil; the OAuth
// routes are only registered when it isn't.
func NewAuthHandler(
	authSvc *service.AuthService,
	libraries *service.LibraryService,
	tokens *auth.TokenService,
	github *auth.GitHubProvider,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:      authSvc,
		libraries: libraries,
		tokens:    tokens,
		github:    github,
		logger:    logger,
	}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup registers an account and signs it in.
//
// HTTP: POST /api/signup → 201 user | 400 | 409
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if !h.issueSession(w, user.ID) {
		return
	}
	writeJSON(w, http.StatusCreated, serializer.NewUserView(user))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin authenticates credentials and signs the user in.
//
// HTTP: POST /api/login → 200 user | 401
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if !h.issueSession(w, user.ID) {
		return
	}
	writeJSON(w, http.StatusOK, serializer.NewUserView(user))
}

// HandleLogout clears the session cookie. Always 204, session or not —
// logout is idempotent.
//
// HTTP: POST /api/logout → 204
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession returns the current user plus their libraries (books and
// ratings embedded) so the client can rehydrate after a reload.
//
// HTTP: GET /api/user_session → 200 {user, libraries} | 401
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	libraries, err := h.libraries.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.SessionView{
		User:      serializer.NewUserView(user),
		Libraries: libraries,
	})
}

// HandleGitHubLogin starts the OAuth flow: store a random state in a
// short-lived cookie and send the browser to GitHub.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: verify the state cookie,
// exchange the code, find-or-create the account, issue the session cookie,
// and send the browser home.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid OAuth state"})
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		// User denied the authorization request on GitHub.
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "authentication failed"})
		return
	}

	user, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("oauth callback: account lookup failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "authentication failed"})
		return
	}

	if !h.issueSession(w, user.ID) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// issueSession generates and sets the session cookie. On failure it writes
// the error response and returns false.
func (h *AuthHandler) issueSession(w http.ResponseWriter, userID string) bool {
	token, err := h.tokens.Generate(userID)
	if err != nil {
		h.logger.Error("failed to issue session token",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return false
	}
	auth.SetSessionCookie(w, token)
	return true
}
