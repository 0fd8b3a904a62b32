package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"  // context for the user lookup call
    "errors"   // errors.Is for sentinel matching
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/fire-safety-monitor/internal/repository"
    "github.com/iliyamo/fire-safety-monitor/internal/utils"
)

// UserSource resolves a token subject to a full user record.  The
// UserRepo satisfies it; tests substitute an in-memory fake.
type UserSource interface {
    GetByID(ctx context.Context, id uint64) (repository.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and resolves it to the caller's user record.  On success the record is
// stored in the request context under "caller" along with "user_id" and
// "is_admin" for convenience.  Validation failures respond 401 with a
// machine-readable reason (missing, expired, malformed, type_mismatch).
// A token whose subject no longer exists — the user was deleted after
// issuance — responds 404 rather than passing through as anonymous.
func JWTAuth(secret string, users UserSource) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token", "reason": "missing"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Only access tokens open protected routes; a refresh token in
            // the Authorization header is a type mismatch, not a valid
            // credential.
            uid, err := utils.ParseToken(secret, raw, utils.TokenTypeAccess)
            if err != nil {
                reason := "malformed"
                switch {
                case errors.Is(err, utils.ErrTokenExpired):
                    reason = "expired"
                case errors.Is(err, utils.ErrTokenTypeMismatch):
                    reason = "type_mismatch"
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token", "reason": reason})
            }

            u, err := users.GetByID(c.Request().Context(), uid)
            if err != nil {
                if errors.Is(err, repository.ErrUserNotFound) {
                    return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load user"})
            }

            c.Set("caller", u)
            c.Set("user_id", u.ID)
            c.Set("is_admin", u.IsAdmin)
            return next(c)
        }
    }
}
