package server

import (
	"net/http"

	"oneradio/core/apperr"
	"oneradio/core/auth"
	"oneradio/model"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler checks a username/password pair against the stored bcrypt
// hash and issues a bearer token on success.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, apperr.New(apperr.BadRequest, "username and password are required"))
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.Internal, "login lookup failed", err))
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, apperr.New(apperr.Unauthenticated, "invalid username or password"))
		return
	}

	token, err := h.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.Internal, "failed to issue token", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": user})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// RegisterHandler creates a new user with a bcrypt password hash and issues
// a bearer token for the new account. Note that being registered does not
// by itself grant queueing rights — that's the access policy's allow-list.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" || req.Email == "" {
		writeError(w, apperr.New(apperr.BadRequest, "username, password and email are required"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.Internal, "failed to hash password", err))
		return
	}

	user := &model.User{Username: req.Username, Email: req.Email, PasswordHash: hash}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		writeError(w, apperr.Wrap(apperr.Internal, "failed to create user", err))
		return
	}

	token, err := h.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.Internal, "failed to issue token", err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"token": token, "user": user})
}
