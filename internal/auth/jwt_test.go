package auth

import (
	"testing"

	"github.com/google/uuid"

	"github.com/confera/backend/internal/models"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "admin@example.com", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, models.RoleAdmin)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "jane@example.com", models.RoleAuthor)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := NewJWTService("secret-b", 1).Validate(token); err != ErrInvalidToken {
		t.Errorf("Validate with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -1)
	token, err := svc.Generate(uuid.New(), "jane@example.com", models.RoleAuthor)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := svc.Validate(token); err != ErrInvalidToken {
		t.Errorf("Validate expired token = %v, want ErrInvalidToken", err)
	}
}
