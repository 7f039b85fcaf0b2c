package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/rigasset/internal/model"
)

func TestIssueAndVerify(t *testing.T) {
	iss := NewIssuer("test-secret-key", time.Hour)

	token, issued, err := iss.Issue(1, "admin", "Site Admin", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 1 || claims.Username != "admin" || claims.FullName != "Site Admin" {
		t.Errorf("unexpected identity claims: %+v", claims)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("expected role %q, got %q", model.RoleAdmin, claims.Role)
	}
	if claims.ID == "" || claims.ID != issued.ID {
		t.Errorf("expected jti %q, got %q", issued.ID, claims.ID)
	}
}

func TestIssueUniqueIDs(t *testing.T) {
	iss := NewIssuer("s", time.Hour)
	_, a, _ := iss.Issue(1, "a", "", model.RoleViewer)
	_, b, _ := iss.Issue(1, "a", "", model.RoleViewer)
	if a.ID == b.ID {
		t.Error("expected distinct token IDs")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, _ := NewIssuer("secret1", time.Hour).Issue(1, "admin", "", model.RoleAdmin)

	_, err := NewIssuer("secret2", time.Hour).Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyInvalid(t *testing.T) {
	_, err := NewIssuer("secret", time.Hour).Verify("not-a-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	iss := NewIssuer("secret", time.Minute)
	token, _, _ := iss.Issue(1, "a", "", model.RoleViewer)

	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := iss.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected expired token to fail, got %v", err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID: 1,
		Role:   model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if _, err := NewIssuer("secret", time.Hour).Verify(token); err == nil {
		t.Error("expected HS512 token to be rejected")
	}
}

func TestTokenExpiry(t *testing.T) {
	iss := NewIssuer("test", 0)
	_, claims, _ := iss.Issue(1, "test", "", model.RoleViewer)

	diff := time.Until(claims.ExpiresAt.Time) - DefaultTokenTTL
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}

	pw, err := GeneratePassword(16)
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	if len(pw) != 16 {
		t.Errorf("expected 16 chars, got %d", len(pw))
	}
}
