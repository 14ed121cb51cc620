package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signHS256(t *testing.T, key []byte, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestJWTMiddlewareAcceptsValidHMAC(t *testing.T) {
	key := []byte("test-signing-key")
	tok := signHS256(t, key, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		CompanyID: "acme",
		Roles:     []string{"billing"},
	})

	e := echo.New()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	c := e.NewContext(req, httptest.NewRecorder())

	var gotUser string
	var gotRoles []string
	h := JWTMiddleware(JWTConfig{SigningKey: key})(func(c echo.Context) error {
		gotUser = UserIDFromContext(c.Request().Context())
		gotRoles = RolesFromContext(c.Request().Context())
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if gotUser != "user-1" {
		t.Errorf("user id = %q, want user-1", gotUser)
	}
	if len(gotRoles) != 1 || gotRoles[0] != "billing" {
		t.Errorf("roles = %v, want [billing]", gotRoles)
	}
	if cid, _ := c.Get("jwt_company_id").(string); cid != "acme" {
		t.Errorf("jwt_company_id = %q, want acme", cid)
	}
}

func TestJWTMiddlewareRejectsBadTokens(t *testing.T) {
	key := []byte("test-signing-key")
	expired := signHS256(t, key, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	wrongKey := signHS256(t, []byte("other-key"), &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
		{"expired", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
	}

	mw := JWTMiddleware(JWTConfig{SigningKey: key})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			err := mw(func(c echo.Context) error { return nil })(c)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %v", err)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		has      []string
		required []string
		allow    bool
	}{
		{"exact match", []string{"billing"}, []string{"billing"}, true},
		{"admin passes any gate", []string{"admin"}, []string{"billing"}, true},
		{"one of several", []string{"front_desk"}, []string{"billing", "front_desk"}, true},
		{"no match", []string{"viewer"}, []string{"billing"}, false},
		{"no roles", nil, []string{"billing"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest("GET", "/", nil)
			ctx := context.WithValue(req.Context(), UserRolesKey, tt.has)
			req = req.WithContext(ctx)
			c := e.NewContext(req, httptest.NewRecorder())

			err := RequireRole(tt.required...)(func(c echo.Context) error { return nil })(c)
			if tt.allow && err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
			if !tt.allow {
				he, ok := err.(*echo.HTTPError)
				if !ok || he.Code != http.StatusForbidden {
					t.Fatalf("expected 403, got %v", err)
				}
			}
		})
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest("GET", "/", nil), httptest.NewRecorder())

	h := DevAuthMiddleware()(func(c echo.Context) error {
		if UserIDFromContext(c.Request().Context()) != "dev-user" {
			t.Error("expected dev-user")
		}
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
}
