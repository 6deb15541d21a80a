package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT("operator")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims["sub"] != "operator" {
		t.Errorf("expected sub operator, got %v", claims["sub"])
	}
	if claims["role"] != "admin" {
		t.Errorf("expected admin role, got %v", claims["role"])
	}
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-one")
	token, err := GenerateJWT("operator")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	t.Setenv("JWT_SECRET", "secret-two")
	if _, err := ValidateJWT(token); err == nil {
		t.Fatal("token signed with a different secret was accepted")
	}
}

func TestValidateJWTRejectsWrongAlgorithm(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"role": "admin"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign unsecured token: %v", err)
	}

	if _, err := ValidateJWT(signed); err == nil {
		t.Fatal("unsecured token was accepted")
	}
}

func TestIsAdminMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	handler := IsAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// No token.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/security/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Garbage token.
	req := httptest.NewRequest(http.MethodGet, "/api/security/stats", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rec.Code)
	}

	// Valid token.
	token, err := GenerateJWT("operator")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/security/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rec.Code)
	}
}
