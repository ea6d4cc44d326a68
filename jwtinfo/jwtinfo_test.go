package jwtinfo

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestDecodeDoesNotVerify(t *testing.T) {
	// Signature is made with a key Decode never sees; decoding must
	// still succeed because jwtinfo is display-only.
	token := signedToken(t, jwt.MapClaims{
		"sub": "user-1",
		"iss": "https://id.example",
		"exp": float64(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Unix()),
		"ten": "acme",
	})

	info, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.Subject != "user-1" {
		t.Errorf("Subject = %q", info.Subject)
	}
	if info.Issuer != "https://id.example" {
		t.Errorf("Issuer = %q", info.Issuer)
	}
	if info.ExpiresAt.IsZero() {
		t.Error("ExpiresAt not decoded")
	}
	if got, ok := info.Claims["ten"]; !ok || got != "acme" {
		t.Errorf("custom claim ten = %v", got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, tok := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		if _, err := Decode(tok); err == nil {
			t.Errorf("Decode(%q) expected error", tok)
		}
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	past := signedToken(t, jwt.MapClaims{"exp": float64(now.Add(-time.Hour).Unix())})
	if !Expired(past, now) {
		t.Error("past exp should report expired")
	}

	future := signedToken(t, jwt.MapClaims{"exp": float64(now.Add(time.Hour).Unix())})
	if Expired(future, now) {
		t.Error("future exp should not report expired")
	}

	none := signedToken(t, jwt.MapClaims{"sub": "u"})
	if Expired(none, now) {
		t.Error("missing exp should not report expired")
	}

	if !Expired("garbage", now) {
		t.Error("malformed token should report expired")
	}
}
