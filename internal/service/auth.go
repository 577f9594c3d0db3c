// Package service contains the business logic layer: validation, ownership
// checks, rating rules. Services accept primitives and return domain
// models/views plus domain errors — they have zero knowledge of HTTP.
// Handlers translate in both directions at the boundary.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/bookshelf/internal/apperror"
	"github.com/sakif/bookshelf/internal/auth"
	"github.com/sakif/bookshelf/internal/model"
	"github.com/sakif/bookshelf/internal/repository"
)

// AuthService handles signup, credential login, and GitHub OAuth login.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with its dependencies injected.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Signup registers a new account.
//
// All three fields are required; the email must look like an address. The
// duplicate check is one combined lookup with username precedence — when
// both are taken, the conflict message names the username. A concurrent
// signup that slips past the pre-check fails on the unique constraint and
// surfaces as the repository's conflict; there is no retry.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if err := model.ValidateEmail(email); err != nil {
		return nil, err
	}

	existing, err := s.users.LookupUser(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("checking signup duplicates: %w", err)
	}
	if existing != nil {
		if existing.Username == username {
			return nil, apperror.Conflict("Username already taken")
		}
		return nil, apperror.Conflict("Email already registered")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password is not usable")
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login authenticates a username/password pair.
//
// An unknown username and a wrong password both answer 401, but with
// different messages. An OAuth-only account has no password hash and fails
// the same way a wrong password does.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid username")
	}

	if user.PasswordHash == "" || s.passwords.Verify(user.PasswordHash, password) != nil {
		return nil, apperror.Unauthorized("Invalid password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return user, nil
}

// CurrentUser resolves a session's user id to the account. A stale id
// (token outlives the row) comes back as unauthorized rather than
// not-found, since it represents a dead session.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperror.Unauthorized("unauthorized")
	}
	return user, nil
}

// LoginWithGitHub finds or creates the account linked to a GitHub identity.
//
// First OAuth login creates a catalog account keyed on the stable GitHub
// id, with no password hash. A username collision with an existing account
// gets a suffixed username rather than an error — the GitHub login name is
// a convenience, not an identity.
func (s *AuthService) LoginWithGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	user, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	if err == nil {
		return user, nil
	}

	user = &model.User{
		Username: gh.Login,
		Email:    gh.Email,
		GitHubID: gh.ID,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		user.Username = fmt.Sprintf("%s-%s", gh.Login, xid.New().String())
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("creating GitHub user: %w", err)
		}
	}

	s.logger.Info("user created via GitHub OAuth",
		slog.String("userID", user.ID),
		slog.Int64("githubID", gh.ID),
	)

	return user, nil
}
