package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func validClaims(subject string, roles ...string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "intake-test",
			Audience:  jwt.ClaimStrings{"intake-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Roles: roles,
	}
}

func runJWT(t *testing.T, cfg JWTConfig, header string, handler echo.HandlerFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	return JWTMiddleware(cfg)(handler)(c)
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %d error, got nil", code)
	}
	httpErr, isHTTP := err.(*echo.HTTPError)
	if !isHTTP {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, "", ok)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, tt.header, ok)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidTokenSetsIdentity(t *testing.T) {
	tokenStr := createTestToken(t, validClaims("clinic-7", RoleIntakeWriter), testSigningKey)
	cfg := JWTConfig{Issuer: "intake-test", Audience: "intake-api", SigningKey: testSigningKey}

	var handlerCalled bool
	err := runJWT(t, cfg, "Bearer "+tokenStr, func(c echo.Context) error {
		handlerCalled = true
		ctx := c.Request().Context()
		if uid := UserIDFromContext(ctx); uid != "clinic-7" {
			t.Errorf("expected user_id=clinic-7, got %s", uid)
		}
		if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != RoleIntakeWriter {
			t.Errorf("expected roles=[%s], got %v", RoleIntakeWriter, roles)
		}
		if sub, _ := c.Get(SubjectKey).(string); sub != "clinic-7" {
			t.Errorf("expected subject clinic-7 on echo context, got %q", sub)
		}
		return c.String(http.StatusOK, "ok")
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Error("handler was not called")
	}
}

func TestJWTMiddleware_RejectsBadTokens(t *testing.T) {
	expired := validClaims("u")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-1 * time.Hour))

	noExpiry := validClaims("u")
	noExpiry.ExpiresAt = nil

	wrongIssuer := validClaims("u")
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := validClaims("u")
	wrongAudience.Audience = jwt.ClaimStrings{"other-api"}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", createTestToken(t, expired, testSigningKey)},
		{"no expiry", createTestToken(t, noExpiry, testSigningKey)},
		{"wrong issuer", createTestToken(t, wrongIssuer, testSigningKey)},
		{"wrong audience", createTestToken(t, wrongAudience, testSigningKey)},
		{"wrong key", createTestToken(t, validClaims("u"), []byte("another-key"))},
		{"garbage", "not.a.jwt"},
	}

	cfg := JWTConfig{Issuer: "intake-test", Audience: "intake-api", SigningKey: testSigningKey}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runJWT(t, cfg, "Bearer "+tt.token, func(c echo.Context) error {
				t.Error("handler should not be called")
				return nil
			})
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims("u"))
	tokenStr, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	err = runJWT(t, JWTConfig{SigningKey: testSigningKey}, "Bearer "+tokenStr, ok)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestDevAuthMiddleware_SetsDefaults(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var handlerCalled bool
	handler := func(c echo.Context) error {
		handlerCalled = true
		ctx := c.Request().Context()
		if uid := UserIDFromContext(ctx); uid != "dev-user" {
			t.Errorf("expected user_id=dev-user, got %s", uid)
		}
		if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != RoleAdmin {
			t.Errorf("expected roles=[admin], got %v", roles)
		}
		return c.String(http.StatusOK, "ok")
	}

	if err := DevAuthMiddleware()(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Error("handler was not called")
	}
}
