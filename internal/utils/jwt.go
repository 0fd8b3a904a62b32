package utils // package utils provides helper functions for token creation and hashing

import (
    "errors" // sentinel values for token validation failures
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Token type discriminators embedded in the "type" claim.  The check is
// mandatory during validation: a refresh token must never be accepted where
// an access token is expected, and vice versa.
const (
    TokenTypeAccess  = "access"
    TokenTypeRefresh = "refresh"
)

// Sentinel errors returned by ParseToken.  Callers switch on these to pick
// a machine-readable failure reason for the 401 response.
var (
    ErrTokenExpired      = errors.New("token expired")
    ErrTokenMalformed    = errors.New("token malformed")
    ErrTokenTypeMismatch = errors.New("token type mismatch")
)

// SignedToken represents a serialized HS256 JWT along with its expiry.
// The Token field contains the compact three-segment string handed to the
// client; Exp stores the UTC expiration time.  Both access and refresh
// tokens share this shape — only the "type" claim and the TTL differ, so
// neither kind needs server-side state.
type SignedToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs a short-lived HS256 access token for a
// user.  The JWT carries the claims user_id, type ("access"), exp and iat.
func NewAccessToken(secret string, userID uint64, ttlMin int) (SignedToken, error) {
    return newToken(secret, userID, TokenTypeAccess, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken builds and signs a long-lived HS256 refresh token.  It is
// identical to an access token except for the "type" claim and the TTL,
// which is expressed in days.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (SignedToken, error) {
    return newToken(secret, userID, TokenTypeRefresh, time.Duration(ttlDays)*24*time.Hour)
}

func newToken(secret string, userID uint64, typ string, ttl time.Duration) (SignedToken, error) {
    exp := time.Now().UTC().Add(ttl)
    claims := jwt.MapClaims{
        "user_id": userID,
        "type":    typ,
        "exp":     exp.Unix(),
        "iat":     time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SignedToken{}, err
    }
    return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseToken verifies the signature and expiry of a serialized token and
// checks its "type" claim against expectedType.  On success it returns the
// user ID from the user_id claim (falling back to a legacy "sub" claim for
// tokens issued by older builds).  Failures map onto the sentinel errors
// above: ErrTokenExpired past exp, ErrTokenTypeMismatch when the type claim
// differs, and ErrTokenMalformed for every other structural or signature
// problem.
func ParseToken(secret, raw, expectedType string) (uint64, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything other than HMAC; accepting a
        // caller-chosen algorithm would defeat the signature check.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrTokenMalformed
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return 0, ErrTokenExpired
        }
        return 0, ErrTokenMalformed
    }
    if !tok.Valid {
        return 0, ErrTokenMalformed
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return 0, ErrTokenMalformed
    }
    if typ, _ := claims["type"].(string); typ != expectedType {
        return 0, ErrTokenTypeMismatch
    }
    uid, ok := claimUserID(claims)
    if !ok {
        return 0, ErrTokenMalformed
    }
    return uid, nil
}

// claimUserID extracts the subject user ID from the claim set.  Numeric JSON
// values decode as float64; the legacy "sub" key is consulted when user_id
// is absent.
func claimUserID(claims jwt.MapClaims) (uint64, bool) {
    for _, key := range []string{"user_id", "sub"} {
        if v, ok := claims[key].(float64); ok && v > 0 {
            return uint64(v), true
        }
    }
    return 0, false
}
