package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "unit-test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	st, err := NewAccessToken(testSecret, 42, 30)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if st.Token == "" {
		t.Fatal("expected a non-empty token string")
	}
	if !st.Exp.After(time.Now().UTC()) {
		t.Errorf("expiry %v is not in the future", st.Exp)
	}

	uid, err := ParseToken(testSecret, st.Token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if uid != 42 {
		t.Errorf("got user id %d, want 42", uid)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	st, err := NewRefreshToken(testSecret, 7, 7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	uid, err := ParseToken(testSecret, st.Token, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if uid != 7 {
		t.Errorf("got user id %d, want 7", uid)
	}
}

func TestParseTokenTypeMismatch(t *testing.T) {
	access, err := NewAccessToken(testSecret, 1, 30)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	refresh, err := NewRefreshToken(testSecret, 1, 7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}

	if _, err := ParseToken(testSecret, access.Token, TokenTypeRefresh); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Errorf("access token as refresh: got %v, want ErrTokenTypeMismatch", err)
	}
	if _, err := ParseToken(testSecret, refresh.Token, TokenTypeAccess); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Errorf("refresh token as access: got %v, want ErrTokenTypeMismatch", err)
	}
}

func TestParseTokenExpired(t *testing.T) {
	// A negative TTL produces a token that expired in the past.
	st, err := NewAccessToken(testSecret, 5, -1)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := ParseToken(testSecret, st.Token, TokenTypeAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("got %v, want ErrTokenExpired", err)
	}
}

func TestParseTokenMalformed(t *testing.T) {
	for _, raw := range []string{"", "not.a.jwt", "garbage"} {
		if _, err := ParseToken(testSecret, raw, TokenTypeAccess); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("ParseToken(%q): got %v, want ErrTokenMalformed", raw, err)
		}
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	st, err := NewAccessToken(testSecret, 9, 30)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := ParseToken("a-different-secret", st.Token, TokenTypeAccess); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("got %v, want ErrTokenMalformed", err)
	}
}

func TestParseTokenLegacySubClaim(t *testing.T) {
	// Tokens minted by older builds carried the user id under "sub".
	claims := jwt.MapClaims{
		"sub":  float64(13),
		"type": TokenTypeAccess,
		"exp":  time.Now().UTC().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	uid, err := ParseToken(testSecret, raw, TokenTypeAccess)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if uid != 13 {
		t.Errorf("got user id %d, want 13", uid)
	}
}

func TestParseTokenMissingSubject(t *testing.T) {
	claims := jwt.MapClaims{
		"type": TokenTypeAccess,
		"exp":  time.Now().UTC().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(testSecret, raw, TokenTypeAccess); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("got %v, want ErrTokenMalformed", err)
	}
}
