package core

import (
	"net/http"
	"strings"

	"presskit/internal/types"
)

// AuthMiddleware guards the creator-facing /v1 subtree.
//
//  1. Extracts the Bearer token from the Authorization header.
//  2. Resolves it through the session validator (which handles the one
//     refresh attempt and the current-user fallback).
//  3. Injects the resulting Identity into the request context.
//
// If no Resolver is configured (tests), the middleware passes through.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Resolver == nil {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			Error(w, r, types.NewAppError(
				types.ErrCodeAuthSessionMissing,
				"a bearer session token is required",
				nil,
			))
			return
		}

		session, err := s.Resolver.Validate(r.Context(), token, "")
		if err != nil {
			Error(w, r, err)
			return
		}

		ctx := types.WithIdentity(r.Context(), types.Identity{
			ID:    session.IdentityID,
			Email: session.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken parses an Authorization header value in the form
// "Bearer <token>" (scheme case-insensitive per RFC 7235). Returns an empty
// string for any other shape.
func extractBearerToken(authHeader string) string {
	const prefix = "Bearer "
	if len(authHeader) < len(prefix) {
		return ""
	}
	if !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(prefix):])
}
