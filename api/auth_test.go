package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signHS256(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		valid  bool
	}{
		{"valid", "Bearer aaa.bbb.ccc", true},
		{"surrounding whitespace", "  Bearer aaa.bbb.ccc  ", true},
		{"missing prefix", "aaa.bbb.ccc", false},
		{"wrong scheme", "Basic aaa.bbb.ccc", false},
		{"empty", "", false},
		{"not a jwt", "Bearer just-a-string", false},
		{"too many segments", "Bearer a.b.c.d", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := bearerToken(tc.header)
			if tc.valid && err != nil {
				t.Fatalf("expected token, got error %v", err)
			}
			if !tc.valid && err == nil {
				t.Fatalf("expected error, got token %q", token)
			}
		})
	}
}

func TestSubjectFromTokenLocalHS256(t *testing.T) {
	secret := []byte("access-secret")
	auth := NewAuth(secret)

	token := signHS256(t, secret, jwt.MapClaims{
		"sub": "user-x",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	subject, err := auth.SubjectFromToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "user-x" {
		t.Fatalf("expected user-x, got %q", subject)
	}
}

func TestSubjectFromTokenExpired(t *testing.T) {
	secret := []byte("access-secret")
	auth := NewAuth(secret)

	token := signHS256(t, secret, jwt.MapClaims{
		"sub": "user-x",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	if _, err := auth.SubjectFromToken(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestSubjectFromTokenMissingExpiry(t *testing.T) {
	secret := []byte("access-secret")
	auth := NewAuth(secret)

	token := signHS256(t, secret, jwt.MapClaims{"sub": "user-x"})
	if _, err := auth.SubjectFromToken(token); err == nil {
		t.Fatal("expected token without exp to fail")
	}
}

func TestSubjectFromTokenMissingSubject(t *testing.T) {
	secret := []byte("access-secret")
	auth := NewAuth(secret)

	token := signHS256(t, secret, jwt.MapClaims{
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	if _, err := auth.SubjectFromToken(token); err == nil {
		t.Fatal("expected token without sub to fail")
	}
}

func TestSubjectFromTokenWrongSecret(t *testing.T) {
	auth := NewAuth([]byte("access-secret"))

	token := signHS256(t, []byte("other-secret"), jwt.MapClaims{
		"sub": "user-x",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	if _, err := auth.SubjectFromToken(token); err == nil {
		t.Fatal("expected bad signature to fail")
	}
}

func TestSubjectFromAuthHeader(t *testing.T) {
	secret := []byte("access-secret")
	auth := NewAuth(secret)

	token := signHS256(t, secret, jwt.MapClaims{
		"sub": "user-x",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	subject, err := auth.SubjectFromAuthHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "user-x" {
		t.Fatalf("expected user-x, got %q", subject)
	}

	if _, err := auth.SubjectFromAuthHeader(""); err == nil {
		t.Fatal("expected missing header to fail")
	}
}

func TestVerifyRefreshRoundTrip(t *testing.T) {
	issuer := testIssuer()

	refresh, err := issuer.SignRefresh("user-x")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	subject, err := issuer.VerifyRefresh(refresh)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "user-x" {
		t.Fatalf("expected user-x, got %q", subject)
	}
}

func TestVerifyRefreshRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer([]byte("access-secret"), []byte("refresh-secret"), time.Minute, time.Nanosecond)

	refresh, err := issuer.SignRefresh("user-x")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := issuer.VerifyRefresh(refresh); err == nil {
		t.Fatal("expected expired refresh token to fail")
	}
}
