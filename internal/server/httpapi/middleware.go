package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/A1iAshoor/s3-relay/internal/server/auth"
)

type ctxKey string

const actorIDKey ctxKey = "actorID"

// ActorID returns the authenticated actor stored in ctx by requireActor.
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorIDKey).(string)
	return id
}

// requireActor validates the Bearer token and injects the actor id into the
// request context. Every upload route runs behind it.
func (s *Server) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeMessage(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		actorID, err := auth.GetActorIDFromToken(parts[1], s.jwtSecret)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), actorIDKey, actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
