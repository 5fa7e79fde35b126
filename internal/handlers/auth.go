// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"codeberg.org/kisanbazaar/marketplace/internal/models"
	"codeberg.org/kisanbazaar/marketplace/internal/repository"
	"codeberg.org/kisanbazaar/marketplace/internal/services/session"
	"codeberg.org/kisanbazaar/marketplace/internal/services/webauthn"
	"codeberg.org/kisanbazaar/marketplace/internal/templates"
	gowebauthn "github.com/go-webauthn/webauthn/webauthn"
	"github.com/labstack/echo/v4"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

// AuthHandlers contains handlers for passkey authentication.
type AuthHandlers struct {
	repo     *repository.Repository
	webauthn *webauthn.Service
	sessions *session.Manager
	logger   *slog.Logger
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(repo *repository.Repository, wa *webauthn.Service, sess *session.Manager, logger *slog.Logger) *AuthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{
		repo:     repo,
		webauthn: wa,
		sessions: sess,
		logger:   logger,
	}
}

// RegisterPage renders the registration page.
func (h *AuthHandlers) RegisterPage(c echo.Context) error {
	return Render(c, http.StatusOK, templates.Register())
}

// RegisterBeginRequest is the request body for starting registration.
type RegisterBeginRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// RegisterBegin creates the account and starts the passkey ceremony.
func (h *AuthHandlers) RegisterBegin(c echo.Context) error {
	var req RegisterBeginRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request")
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return jsonError(c, http.StatusBadRequest, "username is required")
	}
	if !usernamePattern.MatchString(req.Username) {
		return jsonError(c, http.StatusBadRequest, "username must be 3 to 32 letters, digits, dots, dashes or underscores")
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	ctx := c.Request().Context()
	exists, err := h.repo.UserExists(ctx, req.Username)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "database error")
	}
	if exists {
		return jsonError(c, http.StatusConflict, "username already taken")
	}

	user, err := h.repo.CreateUser(ctx, req.Username, req.DisplayName)
	if err != nil {
		h.logger.Error("failed to create user", "error", err, "username", req.Username)
		return jsonError(c, http.StatusInternalServerError, "failed to create user")
	}

	options, ceremonyID, err := h.webauthn.BeginRegistration(user)
	if err != nil {
		h.logger.Error("failed to begin registration", "error", err)
		return jsonError(c, http.StatusInternalServerError, "failed to begin registration")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"publicKey":   options.Response,
		"ceremony_id": ceremonyID,
		"user_id":     user.PublicID,
	})
}

// RegisterFinish verifies the new passkey and signs the user in. An
// account whose first passkey fails is removed again so the username
// becomes available.
func (h *AuthHandlers) RegisterFinish(c echo.Context) error {
	ceremonyID := c.QueryParam("ceremony_id")
	if ceremonyID == "" {
		return jsonError(c, http.StatusBadRequest, "ceremony_id is required")
	}

	ctx := c.Request().Context()
	user, err := h.repo.GetUserByPublicID(ctx, c.QueryParam("user_id"))
	if err != nil {
		return jsonError(c, http.StatusNotFound, "user not found")
	}

	credential, err := h.webauthn.FinishRegistration(user, ceremonyID, c.Request())
	if err != nil {
		h.discardIncomplete(c, user)
		if isCeremonyError(err) {
			return jsonError(c, http.StatusBadRequest, "registration session expired")
		}
		return jsonError(c, http.StatusBadRequest, "registration failed: "+err.Error())
	}

	if err := h.repo.CreateCredential(ctx, models.CredentialFromWebAuthn(user.ID, credential, "Passkey")); err != nil {
		h.logger.Error("failed to store credential", "error", err, "user_id", user.ID)
		return jsonError(c, http.StatusInternalServerError, "failed to store credential")
	}

	return h.signIn(c, user)
}

// LoginPage renders the login page.
func (h *AuthHandlers) LoginPage(c echo.Context) error {
	return Render(c, http.StatusOK, templates.Login())
}

// LoginBegin starts a usernameless passkey login.
func (h *AuthHandlers) LoginBegin(c echo.Context) error {
	options, ceremonyID, err := h.webauthn.BeginLogin()
	if err != nil {
		h.logger.Error("failed to begin discoverable login", "error", err)
		return jsonError(c, http.StatusInternalServerError, "failed to begin login")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"publicKey":   options.Response,
		"ceremony_id": ceremonyID,
	})
}

// LoginFinish verifies the assertion and signs the user in.
func (h *AuthHandlers) LoginFinish(c echo.Context) error {
	ceremonyID := c.QueryParam("ceremony_id")
	if ceremonyID == "" {
		return jsonError(c, http.StatusBadRequest, "ceremony_id is required")
	}

	ctx := c.Request().Context()
	var found *models.User
	credential, err := h.webauthn.FinishLogin(ceremonyID, c.Request(),
		func(_, userHandle []byte) (gowebauthn.User, error) {
			if len(userHandle) != 8 {
				return nil, errors.New("invalid user handle")
			}
			userID := int64(binary.BigEndian.Uint64(userHandle)) //nolint:gosec // user IDs are always positive
			user, err := h.repo.GetUserByID(ctx, userID)
			if err != nil {
				return nil, err
			}
			found = user
			return user, nil
		})
	if err != nil {
		if isCeremonyError(err) {
			return jsonError(c, http.StatusBadRequest, "login session expired")
		}
		h.logger.Warn("passkey login failed", "error", err)
		return jsonError(c, http.StatusUnauthorized, "login failed")
	}

	if err := h.repo.UpdateCredentialSignCount(ctx, credential.ID, credential.Authenticator.SignCount); err != nil {
		h.logger.Warn("failed to update sign count", "error", err, "user_id", found.ID)
	}

	return h.signIn(c, found)
}

// Logout clears the session cookie.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	return c.Redirect(http.StatusSeeOther, "/")
}

// ListCredentials returns the passkeys of the signed-in user.
func (h *AuthHandlers) ListCredentials(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, http.StatusUnauthorized, "not authenticated")
	}
	creds, err := h.repo.GetCredentialsByUserID(c.Request().Context(), user.ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to get credentials")
	}
	return c.JSON(http.StatusOK, creds)
}

// AddCredentialBegin starts registering another passkey for the signed-in user.
func (h *AuthHandlers) AddCredentialBegin(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, http.StatusUnauthorized, "not authenticated")
	}

	options, ceremonyID, err := h.webauthn.BeginRegistration(user)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to begin registration")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"publicKey":   options.Response,
		"ceremony_id": ceremonyID,
	})
}

// AddCredentialFinish stores the additional passkey.
func (h *AuthHandlers) AddCredentialFinish(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, http.StatusUnauthorized, "not authenticated")
	}

	credential, err := h.webauthn.FinishRegistration(user, c.QueryParam("ceremony_id"), c.Request())
	if err != nil {
		if isCeremonyError(err) {
			return jsonError(c, http.StatusBadRequest, "registration session expired")
		}
		return jsonError(c, http.StatusBadRequest, "registration failed: "+err.Error())
	}

	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		name = "Passkey"
	}
	if err := h.repo.CreateCredential(c.Request().Context(), models.CredentialFromWebAuthn(user.ID, credential, name)); err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to store credential")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// DeleteCredential removes a passkey. The last passkey cannot be removed.
func (h *AuthHandlers) DeleteCredential(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, http.StatusUnauthorized, "not authenticated")
	}

	credID, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "invalid credential id")
	}

	ctx := c.Request().Context()
	count, err := h.repo.CountUserCredentials(ctx, user.ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "database error")
	}
	if count <= 1 {
		return jsonError(c, http.StatusBadRequest, "cannot delete last credential")
	}

	err = h.repo.DeleteCredential(ctx, credID, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "credential not found")
	}
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to delete credential")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandlers) signIn(c echo.Context, user *models.User) error {
	cookie, err := h.sessions.Create(user.ID, user.PublicID, user.Username)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to create session")
	}
	c.SetCookie(cookie)
	h.logger.Info("user signed in", "user_id", user.ID)

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// discardIncomplete deletes a user that never completed registration.
func (h *AuthHandlers) discardIncomplete(c echo.Context, user *models.User) {
	ctx := c.Request().Context()
	if n, err := h.repo.CountUserCredentials(ctx, user.ID); err != nil || n > 0 {
		return
	}
	if err := h.repo.DeleteUser(ctx, user.ID); err != nil {
		h.logger.Warn("failed to remove incomplete registration", "error", err, "user_id", user.ID)
	}
}

func isCeremonyError(err error) bool {
	return errors.Is(err, webauthn.ErrCeremonyNotFound) || errors.Is(err, webauthn.ErrCeremonyExpired)
}
