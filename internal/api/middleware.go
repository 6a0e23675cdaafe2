package api

// This file contains the middleware that builds the per-request session.

import (
	"context"
	"net/http"
	"strings"

	"github.com/vrsandeep/mango-tracker/internal/models"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey string

const sessionContextKey = contextKey("session")

const (
	profileEmailHeader = "X-Profile-Email"
	profileNameHeader  = "X-Profile-Name"
	lightModeCookie    = "lightMode"
)

// SessionMiddleware collects the bearer token, profile and light mode of the
// caller into a models.Session and injects it into the request's context.
// The token is only forwarded to the backend, never checked here.
func (s *Server) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := models.Session{
			Email:       strings.TrimSpace(r.Header.Get(profileEmailHeader)),
			ProfileName: strings.TrimSpace(r.Header.Get(profileNameHeader)),
		}
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			sess.Token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
		if cookie, err := r.Cookie(lightModeCookie); err == nil {
			sess.LightMode = cookie.Value == "true"
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireProfileMiddleware rejects requests whose session names no user.
// It must be chained *after* the SessionMiddleware.
func (s *Server) RequireProfileMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := getSessionFromContext(r)
		if !sess.Authenticated() || sess.Token == "" {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: Missing profile or token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getSessionFromContext returns the request session, or the zero session
// when the middleware did not run.
func getSessionFromContext(r *http.Request) models.Session {
	sess, _ := r.Context().Value(sessionContextKey).(models.Session)
	return sess
}
