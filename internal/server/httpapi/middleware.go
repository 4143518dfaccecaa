package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/msavelyev/stocklive/internal/api"
	"github.com/msavelyev/stocklive/internal/common"
	"github.com/msavelyev/stocklive/internal/server/auth"
)

type ctxKey int

const ctxKeyUserID ctxKey = iota

// withAuth verifies the bearer token and stashes the user ID in the
// request context.
func (s *Server) withAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.authenticate(r)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, api.CodeTokenExpired, "access token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, api.CodeUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUserID, userID)))
	})
}

// authenticate extracts and verifies the access token. The watch endpoint
// may carry it as a query parameter instead of a header.
func (s *Server) authenticate(r *http.Request) (string, error) {
	token := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	}
	if token == "" {
		token = r.URL.Query().Get(api.TokenQueryParam)
	}
	if token == "" {
		return "", common.ErrUnauthorized
	}
	return auth.GetUserIDFromToken(token, []byte(s.cfg.SecretKey))
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}
