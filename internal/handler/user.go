package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fire-safety-monitor/internal/config"
	"github.com/iliyamo/fire-safety-monitor/internal/repository"
)

// UserHandler implements plain user CRUD.  Creation and update are open
// endpoints (registration via POST /register is the authenticated path to
// an account with tokens); deletion requires the caller to be the user
// themselves or an admin.
type UserHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewUserHandler(cfg config.Config, u UserStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u}
}

type userReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *userReq) normalize() bool {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	return r.Username != "" && r.Email != "" && r.Password != ""
}

// Create handles POST /users.
func (h *UserHandler) Create(c echo.Context) error {
	var req userReq
	if err := c.Bind(&req); err != nil || !req.normalize() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "username/email/password required"})
	}
	uid, err := h.Users.Create(c.Request().Context(), req.Username, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if isDuplicateUser(err) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email or username already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusCreated, u)
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// List handles GET /users with skip/limit pagination.
func (h *UserHandler) List(c echo.Context) error {
	skip, limit := pageParams(c)
	items, err := h.Users.List(c.Request().Context(), skip, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// Update handles PUT /users/:id, replacing username, email and password.
// The password is the only occasion a stored hash is ever rewritten.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req userReq
	if err := c.Bind(&req); err != nil || !req.normalize() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "username/email/password required"})
	}
	u, err := h.Users.Update(c.Request().Context(), id, req.Username, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case isDuplicateUser(err):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email or username already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /users/:id.  Requires a bearer token; only the
// user themselves or an admin may delete the account.  Buildings owned by
// the user are left untouched.
func (h *UserHandler) Delete(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	// Existence first: a missing account is 404 even for non-admin callers.
	if _, err := h.Users.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ownerOrAdmin(caller, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func isDuplicateUser(err error) bool {
	return errors.Is(err, repository.ErrEmailExists) ||
		errors.Is(err, repository.ErrUsernameExists) ||
		errors.Is(err, repository.ErrConflict)
}
