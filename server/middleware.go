package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"oneradio/core/apperr"
	"oneradio/model"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxIsAdmin
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, or "" if the header is absent or malformed.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireAuth rejects requests without a valid bearer token belonging to a
// user on the access policy's allow-list.
func (h *APIHandler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.tokens.Parse(bearerToken(r))
		if err != nil {
			writeError(w, apperr.New(apperr.Unauthenticated, "missing or invalid token"))
			return
		}
		userID := strconv.FormatInt(claims.UserID, 10)
		if !h.policy.IsAllowed(userID) {
			writeError(w, apperr.New(apperr.Forbidden, "not on the access list"))
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxIsAdmin, h.policy.IsAdmin(userID))
		next(w, r.WithContext(ctx))
	}
}

// optionalAuth attaches identity to the request context when a valid token
// is present, but never rejects the request — used by /api/me.
func (h *APIHandler) optionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.tokens.Parse(bearerToken(r))
		if err == nil {
			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxIsAdmin, claims.IsAdmin)
			r = r.WithContext(ctx)
		}
		next(w, r)
	}
}

func userIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxUserID).(int64)
	return id, ok
}

// requesterFromContext builds the Requester record to attach to a newly
// enqueued track. Falls back to a bare id if the user lookup fails rather
// than blocking the enqueue on it.
func (h *APIHandler) requesterFromContext(ctx context.Context) model.Requester {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return model.Requester{}
	}
	idStr := strconv.FormatInt(userID, 10)

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		return model.Requester{ID: idStr}
	}
	return model.Requester{ID: idStr, DisplayName: user.Username, Avatar: user.Avatar}
}

func writeError(w http.ResponseWriter, err error) {
	msg := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	writeJSON(w, apperr.StatusCode(err), map[string]string{"error": msg})
}
