package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fire-safety-monitor/internal/config"
	"github.com/iliyamo/fire-safety-monitor/internal/repository"
	"github.com/iliyamo/fire-safety-monitor/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewAuthHandler(cfg config.Config, u UserStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type validateReq struct {
	Token string `json:"token"`
}

// tokenResp is the wire shape for every endpoint that issues tokens.
type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// issuePair signs a fresh access+refresh pair for a user.  Neither token is
// stored anywhere server-side: validation later is purely cryptographic.
func (h *AuthHandler) issuePair(userID uint64) (tokenResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, h.Cfg.AccessTTLMin)
	if err != nil {
		return tokenResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, userID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return tokenResp{}, err
	}
	return tokenResp{AccessToken: access.Token, RefreshToken: refresh.Token, TokenType: "bearer"}, nil
}

// Register handles POST /register: create the user and return tokens
// immediately so a separate login round-trip is unnecessary.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "username/email/password required"})
	}

	uid, err := h.Users.Create(c.Request().Context(), req.Username, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		case errors.Is(err, repository.ErrUsernameExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already taken"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "user already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	pair, err := h.issuePair(uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token creation failed"})
	}
	return c.JSON(http.StatusCreated, pair)
}

// Login handles POST /token: verify the password hash and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "email/password required"})
	}

	u, err := h.Users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same response as a wrong password so the endpoint does not
			// reveal which emails are registered.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect credentials"})
	}

	pair, err := h.issuePair(u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token creation failed"})
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh handles POST /refresh-token: validate the supplied token as
// type=refresh and issue a fresh access+refresh pair.  The old refresh
// token stays valid until its natural expiry — tokens are stateless and
// cannot be revoked early.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "refresh_token required"})
	}

	uid, err := utils.ParseToken(h.Cfg.JWTSecret, strings.TrimSpace(req.RefreshToken), utils.TokenTypeRefresh)
	if err != nil {
		reason := "malformed"
		switch {
		case errors.Is(err, utils.ErrTokenExpired):
			reason = "expired"
		case errors.Is(err, utils.ErrTokenTypeMismatch):
			reason = "type_mismatch"
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token", "reason": reason})
	}

	// The subject must still exist; a deleted account cannot mint new tokens.
	if _, err := h.Users.GetByID(c.Request().Context(), uid); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	pair, err := h.issuePair(uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token creation failed"})
	}
	return c.JSON(http.StatusOK, pair)
}

// Validate handles POST /validate-token: report whether the supplied token
// is a currently valid access token and, if so, whose it is.  Invalid
// tokens produce {"valid": false} with a 200 status — this endpoint exists
// for other services to probe tokens, not to gate anything itself.
func (h *AuthHandler) Validate(c echo.Context) error {
	var req validateReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "token required"})
	}

	uid, err := utils.ParseToken(h.Cfg.JWTSecret, strings.TrimSpace(req.Token), utils.TokenTypeAccess)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"valid": false})
	}
	u, err := h.Users.GetByID(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"valid": false})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid": true,
		"user":  echo.Map{"id": u.ID, "email": u.Email},
	})
}
