package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func request(header string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/contracts", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return req
}

func TestStaticTokenDisabled(t *testing.T) {
	a := NewStaticToken("  ")
	if a.Enabled() {
		t.Fatalf("expected disabled authenticator")
	}
	claims, err := a.Authenticate(request(""))
	if err != nil || claims.Subject != "anonymous" {
		t.Fatalf("unexpected result: %+v %v", claims, err)
	}
}

func TestStaticTokenAuthenticate(t *testing.T) {
	a := NewStaticToken("secret")

	cases := []struct {
		header string
		want   error
	}{
		{"", ErrMissingBearer},
		{"Basic abc", ErrInvalidToken},
		{"Bearer ", ErrInvalidToken},
		{"Bearer wrong", ErrInvalidToken},
		{"Bearer secret", nil},
	}
	for _, tc := range cases {
		_, err := a.Authenticate(request(tc.header))
		if !errors.Is(err, tc.want) {
			t.Fatalf("header %q: got %v want %v", tc.header, err, tc.want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Middleware(NewStaticToken("secret"))(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, request(""))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate header")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, request("Bearer secret"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}
