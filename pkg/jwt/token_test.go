package jwtPkg

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignAndParse(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "test-secret")

	token, exp, err := Sign(map[string]interface{}{"id": "u1", "role": "manager"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if exp <= time.Now().Unix() {
		t.Errorf("expiry %d is not in the future", exp)
	}

	parsed, err := ParseToken(token, "JWT_ACCESS_TOKEN_SECRET")
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["id"] != "u1" || claims["role"] != "manager" {
		t.Errorf("claims: got %v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "test-secret")

	expired, _, err := Sign(map[string]interface{}{"id": "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	t.Setenv("OTHER_SECRET", "other")
	valid, _, _ := Sign(map[string]interface{}{"id": "u1"}, time.Hour)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"empty", "", "JWT_ACCESS_TOKEN_SECRET"},
		{"expired", expired, "JWT_ACCESS_TOKEN_SECRET"},
		{"wrong secret", valid, "OTHER_SECRET"},
		{"unset secret", valid, "MISSING_SECRET"},
		{"garbage", "not.a.token", "JWT_ACCESS_TOKEN_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token, tt.secret); err == nil {
				t.Errorf("ParseToken: expected error")
			}
		})
	}
}

func TestSignWithoutSecret(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "")
	if _, _, err := Sign(map[string]interface{}{"id": "u1"}, time.Hour); err == nil {
		t.Errorf("Sign: expected error without secret")
	}
}
