package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
)

type Claims struct {
	Subject string
	Token   string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Claims, error)
}

// StaticToken accepts a single shared bearer token. An empty Token disables
// the check and every request authenticates as "anonymous".
type StaticToken struct {
	Token string
}

func NewStaticToken(token string) *StaticToken {
	return &StaticToken{Token: strings.TrimSpace(token)}
}

func (a *StaticToken) Enabled() bool {
	return a != nil && a.Token != ""
}

func (a *StaticToken) Authenticate(r *http.Request) (Claims, error) {
	if !a.Enabled() {
		return Claims{Subject: "anonymous"}, nil
	}

	bearer, err := extractBearer(r)
	if err != nil {
		return Claims{}, err
	}
	if subtle.ConstantTimeCompare([]byte(bearer), []byte(a.Token)) != 1 {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: "operator", Token: bearer}, nil
}

// Middleware rejects unauthenticated requests with 401.
func Middleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := a.Authenticate(r); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="lexgen"`)
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearer(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingBearer
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
