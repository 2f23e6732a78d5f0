package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAccessTokenRoundtrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)

	token, err := m.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	userID, err := m.Verify(token, TokenAccess)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("expected user-1, got %s", userID)
	}
}

func TestRefreshTokenIsNotAccessToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)

	refresh, err := m.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	if _, err := m.Verify(refresh, TokenAccess); err == nil {
		t.Error("expected refresh token to be rejected as access token")
	}
	if _, err := m.Verify(refresh, TokenRefresh); err != nil {
		t.Errorf("expected refresh token to verify as refresh: %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m1 := NewManager("secret-one", time.Hour, 24*time.Hour)
	m2 := NewManager("secret-two", time.Hour, 24*time.Hour)

	token, err := m1.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := m2.Verify(token, TokenAccess); err == nil {
		t.Error("expected token signed with other secret to be rejected")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, 24*time.Hour)

	token, err := m.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := m.Verify(token, TokenAccess); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestGenerateRequiresUserID(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)
	if _, err := m.GenerateAccessToken(""); err == nil {
		t.Error("expected error for empty user id")
	}
}

func TestMiddleware(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// no header
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/transactions", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without header, got %d", rec.Code)
	}

	// garbage token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for garbage token, got %d", rec.Code)
	}

	// valid token
	token, err := m.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", rec.Code)
	}
}
