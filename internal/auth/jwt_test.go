package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

const (
	testSecret = "test-secret-at-least-32-chars-long-for-security"
	testIssuer = "salesdesk-test"
)

var testPrincipal = domain.Principal{ID: uuid.MustParse("5e11e7a0-0000-4000-8000-000000000001"), Name: "Ana", Role: domain.RoleSeller}

func TestJWTManager_GenerateAndValidate_Success(t *testing.T) {
	manager := NewJWTManager(testSecret, testIssuer, 15*time.Minute)

	token, err := manager.GenerateAccessToken(testPrincipal)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	got, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if got != testPrincipal {
		t.Errorf("expected principal %+v, got %+v", testPrincipal, got)
	}
}

func TestJWTManager_GenerateAndValidate_AdminRole(t *testing.T) {
	manager := NewJWTManager(testSecret, testIssuer, 15*time.Minute)

	token, err := manager.GenerateAccessToken(domain.Principal{ID: uuid.New(), Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	got, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if got.Role != domain.RoleAdmin {
		t.Errorf("expected role 'admin', got %q", got.Role)
	}
}

func TestJWTManager_UnknownRoleDowngradedToViewer(t *testing.T) {
	manager := NewJWTManager(testSecret, testIssuer, 15*time.Minute)

	token, err := manager.GenerateAccessToken(domain.Principal{ID: uuid.New(), Role: domain.Role("superuser")})
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	got, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if got.Role != domain.RoleViewer {
		t.Errorf("expected role 'viewer', got %q", got.Role)
	}
}

func TestJWTManager_GenerateAccessToken_EmptyID(t *testing.T) {
	manager := NewJWTManager(testSecret, testIssuer, 15*time.Minute)

	if _, err := manager.GenerateAccessToken(domain.Principal{Role: domain.RoleSeller}); err == nil {
		t.Fatal("expected error for empty principal id, got nil")
	}
}

func TestJWTManager_ValidateAccessToken_Expired(t *testing.T) {
	manager := NewJWTManager(testSecret, testIssuer, -1*time.Hour)

	token, err := manager.GenerateAccessToken(testPrincipal)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	_, err = manager.ValidateAccessToken(token)
	if err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
	if !strings.Contains(err.Error(), "expired") && !strings.Contains(err.Error(), "parse token") {
		t.Errorf("expected expiry-related error, got: %v", err)
	}
}

func TestJWTManager_ValidateAccessToken_ClockAdvancesPastTTL(t *testing.T) {
	manager := NewJWTManager(testSecret, testIssuer, time.Minute)
	issued := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return issued }

	token, err := manager.GenerateAccessToken(testPrincipal)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if _, err := manager.ValidateAccessToken(token); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}

	manager.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := manager.ValidateAccessToken(token); err == nil {
		t.Fatal("expected error once ttl elapsed, got nil")
	}
}

func TestJWTManager_ValidateAccessToken_InvalidSignature(t *testing.T) {
	manager1 := NewJWTManager(testSecret, testIssuer, 15*time.Minute)
	manager2 := NewJWTManager("different-secret-32-chars-long-for-security!!", testIssuer, 15*time.Minute)

	token, err := manager1.GenerateAccessToken(testPrincipal)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := manager2.ValidateAccessToken(token); err == nil {
		t.Fatal("expected error for invalid signature, got nil")
	}
}

func TestJWTManager_ValidateAccessToken_Malformed(t *testing.T) {
	manager := NewJWTManager(testSecret, testIssuer, 15*time.Minute)

	malformedTokens := []string{
		"not.a.jwt",
		"invalid-token",
		"header.payload", // Missing signature
	}

	for _, token := range malformedTokens {
		if _, err := manager.ValidateAccessToken(token); err == nil {
			t.Errorf("expected error for malformed token %q, got nil", token)
		}
	}
}

func TestJWTManager_ValidateAccessToken_WrongIssuer(t *testing.T) {
	manager1 := NewJWTManager(testSecret, testIssuer, 15*time.Minute)
	manager2 := NewJWTManager(testSecret, "wrong-issuer", 15*time.Minute)

	token, err := manager1.GenerateAccessToken(testPrincipal)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	_, err = manager2.ValidateAccessToken(token)
	if err == nil {
		t.Fatal("expected error for wrong issuer, got nil")
	}
	if !strings.Contains(err.Error(), "invalid issuer") {
		t.Errorf("expected 'invalid issuer' error, got: %v", err)
	}
}

func TestJWTManager_ValidateAccessToken_EmptyString(t *testing.T) {
	manager := NewJWTManager(testSecret, testIssuer, 15*time.Minute)

	_, err := manager.ValidateAccessToken("")
	if err == nil {
		t.Fatal("expected error for empty token, got nil")
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("expected 'empty' error, got: %v", err)
	}
}

func TestJWTManager_ValidateAccessToken_NonUUIDSubject(t *testing.T) {
	manager := NewJWTManager(testSecret, testIssuer, 15*time.Minute)

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, principalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "seller-1",
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: string(domain.RoleSeller),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = manager.ValidateAccessToken(token)
	if err == nil {
		t.Fatal("expected error for non-uuid subject, got nil")
	}
	if !strings.Contains(err.Error(), "invalid subject") {
		t.Errorf("expected 'invalid subject' error, got: %v", err)
	}
}
