package auth

import (
	"testing"

	"github.com/spec-kit/support-desk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()
	tm := NewTokenManager("test-secret", 60)

	role := domain.StaffRoleAdmin
	token, exp, err := tm.GenerateToken("staff-1", domain.SubjectTypeStaff, &role)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if exp.IsZero() {
		t.Error("expiry not set")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SubjectID != "staff-1" {
		t.Errorf("subject id = %s", claims.SubjectID)
	}
	if claims.Subject != domain.SubjectTypeStaff {
		t.Errorf("subject = %s", claims.Subject)
	}
	if claims.Role == nil || *claims.Role != domain.StaffRoleAdmin {
		t.Errorf("role = %v", claims.Role)
	}
}

func TestTokenCustomerHasNoRole(t *testing.T) {
	t.Parallel()
	tm := NewTokenManager("test-secret", 60)

	token, _, err := tm.GenerateToken("acct-1", domain.SubjectTypeCustomer, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != nil {
		t.Errorf("customer token carries role %v", *claims.Role)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, _, err := NewTokenManager("secret-a", 60).GenerateToken("acct-1", domain.SubjectTypeCustomer, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 60).ParseToken(token); err == nil {
		t.Error("token signed with another secret should not parse")
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	t.Parallel()
	tm := NewTokenManager("test-secret", 60)

	if _, err := tm.ParseToken("not.a.token"); err == nil {
		t.Error("garbage should not parse")
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	// Minimum cost keeps the test fast.
	hash, err := HashPassword("hunter2", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := ComparePassword(hash, "hunter2"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := ComparePassword(hash, "hunter3"); err == nil {
		t.Error("wrong password accepted")
	}
}
