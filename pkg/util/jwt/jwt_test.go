package jwt

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	Init("test-secret-at-least-32-characters!!", 30)

	token, err := GenerateToken("U123", "alice")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "U123" || claims.Username != "alice" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParseGarbageToken(t *testing.T) {
	Init("test-secret-at-least-32-characters!!", 30)

	if _, err := ParseToken("not.a.token"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	Init("secret-one-aaaaaaaaaaaaaaaaaaaaaaaaa", 30)
	token, err := GenerateToken("U123", "alice")
	if err != nil {
		t.Fatal(err)
	}

	Init("secret-two-bbbbbbbbbbbbbbbbbbbbbbbbb", 30)
	if _, err := ParseToken(token); err == nil {
		t.Fatal("expected signature verification failure")
	}
}
