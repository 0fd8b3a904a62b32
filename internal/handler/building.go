package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fire-safety-monitor/internal/repository"
)

// BuildingHandler implements building CRUD.  Reads are open; every
// mutation resolves the caller, confirms the building exists, and then
// runs the owner-or-admin guard — strictly in that order so a missing
// building is always 404 and never leaks as 403.
type BuildingHandler struct {
	Buildings BuildingStore
}

func NewBuildingHandler(b BuildingStore) *BuildingHandler {
	return &BuildingHandler{Buildings: b}
}

type buildingReq struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (r *buildingReq) normalize() bool {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	return r.Name != "" && r.Address != ""
}

// Create handles POST /buildings.  The authenticated caller becomes the
// owner; owner_id in the body is ignored.
func (h *BuildingHandler) Create(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req buildingReq
	if err := c.Bind(&req); err != nil || !req.normalize() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name and address required"})
	}
	b := &repository.Building{Name: req.Name, Address: req.Address, OwnerID: caller.ID}
	if err := h.Buildings.Create(c.Request().Context(), b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create building failed"})
	}
	return c.JSON(http.StatusCreated, b)
}

// Get handles GET /buildings/:id.
func (h *BuildingHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Buildings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, b)
}

// List handles GET /buildings.
func (h *BuildingHandler) List(c echo.Context) error {
	skip, limit := pageParams(c)
	items, err := h.Buildings.List(c.Request().Context(), skip, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// Update handles PUT /buildings/:id.
func (h *BuildingHandler) Update(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req buildingReq
	if err := c.Bind(&req); err != nil || !req.normalize() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "name and address required"})
	}

	b, err := h.Buildings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ownerOrAdmin(caller, b.OwnerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	updated, err := h.Buildings.Update(c.Request().Context(), id, req.Name, req.Address)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /buildings/:id.  Sensors attached to the building
// are not deleted with it.
func (h *BuildingHandler) Delete(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	b, err := h.Buildings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ownerOrAdmin(caller, b.OwnerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if err := h.Buildings.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
