package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/life-master/apiserver/internal/services"
	"github.com/life-master/apiserver/internal/store"
	"github.com/life-master/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler serves the authenticated user's self-service endpoints:
// profile lookup, password change and email change.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers user routes on the given router. All routes assume
// an authenticated subject in context.
func UserRouter(r chi.Router, handler *UserHandler) {
	r.Get("/me", handler.Me)
	r.Put("/me/password", handler.UpdatePassword)
	r.Put("/me/email", handler.UpdateEmail)
}

// Me returns the current authenticated user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdatePassword re-hashes and stores a new password after verifying the
// current one.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new password is required")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), user.ID, string(hashed)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

type updateEmailRequest struct {
	Password string `json:"password"`
	NewEmail string `json:"newEmail"`
}

// UpdateEmail changes the account email after verifying the password. The
// new address must not belong to another account.
func (h *UserHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req updateEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.NewEmail = strings.TrimSpace(req.NewEmail)
	if req.NewEmail == "" {
		writeError(w, http.StatusBadRequest, "new email is required")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusBadRequest, "Password is incorrect")
		return
	}

	if req.NewEmail != user.Email {
		taken, err := h.userService.ExistsByEmail(r.Context(), req.NewEmail)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update email")
			return
		}
		if taken {
			writeError(w, http.StatusBadRequest, "Email is already taken!")
			return
		}
	}

	updated, err := h.userService.UpdateEmail(r.Context(), user.ID, req.NewEmail)
	if err != nil {
		// The existence check races with concurrent claims of the same
		// address; the unique constraint is the source of truth.
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, "Email is already taken!")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update email")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) (user types.User, ok bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return user, false
	}

	loaded, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return user, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return user, false
	}
	return loaded, true
}
