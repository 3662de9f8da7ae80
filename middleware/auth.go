package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"pattern-studio/handlers/auth"
)

type contextKey string

const (
	ClaimsContextKey = contextKey("claims")
	TokenContextKey  = contextKey("token")
)

var (
	errNoAuthHeader  = errors.New("authorization header is required")
	errBadAuthHeader = errors.New("authorization header format must be Bearer {token}")
)

// AuthJWT requires a valid bearer token. The parsed claims and the raw token
// are stored in the request context; the raw token is forwarded to the
// pattern records API.
func AuthJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			unauthorized(w, r, err.Error())
			return
		}

		claims, err := auth.ParseJWT(token)
		if err != nil {
			logrus.WithError(err).WithField("path", r.URL.Path).Debug("Rejected bearer token")
			unauthorized(w, r, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		ctx = context.WithValue(ctx, TokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoAuthHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.Contains(token, " ") {
		return "", errBadAuthHeader
	}
	return token, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{"error": msg})
}

// Claims returns the claims AuthJWT stored in ctx.
func Claims(ctx context.Context) (*auth.AppClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.AppClaims)
	return claims, ok
}

// Token returns the raw bearer token AuthJWT stored in ctx.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(TokenContextKey).(string)
	return token
}
