package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fire-safety-monitor/internal/repository"
)

// SensorHandler implements sensor CRUD.  Sensors carry no owner of their
// own, so every mutation resolves the parent building and runs the
// owner-or-admin guard against the building's owner.  Order matters:
// sensor existence, then building existence, then the guard.
type SensorHandler struct {
	Sensors   SensorStore
	Buildings BuildingStore
}

func NewSensorHandler(s SensorStore, b BuildingStore) *SensorHandler {
	return &SensorHandler{Sensors: s, Buildings: b}
}

type sensorReq struct {
	BuildingID  uint64     `json:"building_id"`
	Type        string     `json:"type"`
	Location    string     `json:"location"`
	InstalledAt *time.Time `json:"installed_at"`
	IsActive    bool       `json:"is_active"`
}

func (r *sensorReq) normalize() bool {
	r.Type = strings.TrimSpace(r.Type)
	r.Location = strings.TrimSpace(r.Location)
	return r.BuildingID != 0 && r.Type != ""
}

// guardBuilding loads a building and checks the caller against its owner.
// When the check fails the response (404, 403 or 500) has already been
// written and ok is false; the caller just relays the returned error.
func (h *SensorHandler) guardBuilding(c echo.Context, caller repository.User, buildingID uint64) (ok bool, resp error) {
	b, err := h.Buildings.GetByID(c.Request().Context(), buildingID)
	if err != nil {
		if errors.Is(err, repository.ErrBuildingNotFound) {
			return false, c.JSON(http.StatusNotFound, echo.Map{"error": "building not found"})
		}
		return false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !ownerOrAdmin(caller, b.OwnerID) {
		return false, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return true, nil
}

// Create handles POST /sensors.  The target building must exist and belong
// to the caller (or the caller is admin) — attaching hardware to somebody
// else's building is a mutation of that building's state.
func (h *SensorHandler) Create(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req sensorReq
	if err := c.Bind(&req); err != nil || !req.normalize() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "building_id and type required"})
	}
	if ok, resp := h.guardBuilding(c, caller, req.BuildingID); !ok {
		return resp
	}
	s := &repository.Sensor{
		BuildingID:  req.BuildingID,
		Type:        req.Type,
		Location:    req.Location,
		InstalledAt: req.InstalledAt,
		IsActive:    req.IsActive,
	}
	if err := h.Sensors.Create(c.Request().Context(), s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create sensor failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// Get handles GET /sensors/:id.
func (h *SensorHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, err := h.Sensors.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSensorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sensor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// List handles GET /sensors with an optional building_id filter.
func (h *SensorHandler) List(c echo.Context) error {
	skip, limit := pageParams(c)
	var buildingID *uint64
	if v := strings.TrimSpace(c.QueryParam("building_id")); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid building_id"})
		}
		buildingID = &n
	}
	items, err := h.Sensors.List(c.Request().Context(), buildingID, skip, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// Update handles PUT /sensors/:id, replacing every mutable field.  The
// caller must pass the guard for the sensor's current building, and — when
// the update re-homes the sensor — for the target building as well.
func (h *SensorHandler) Update(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req sensorReq
	if err := c.Bind(&req); err != nil || !req.normalize() {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "building_id and type required"})
	}

	s, err := h.Sensors.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSensorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sensor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if ok, resp := h.guardBuilding(c, caller, s.BuildingID); !ok {
		return resp
	}
	if req.BuildingID != s.BuildingID {
		if ok, resp := h.guardBuilding(c, caller, req.BuildingID); !ok {
			return resp
		}
	}

	s.BuildingID = req.BuildingID
	s.Type = req.Type
	s.Location = req.Location
	s.InstalledAt = req.InstalledAt
	s.IsActive = req.IsActive
	if err := h.Sensors.Update(c.Request().Context(), s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// Delete handles DELETE /sensors/:id.  Incidents that reference the sensor
// keep their rows; the reference simply goes stale.
func (h *SensorHandler) Delete(c echo.Context) error {
	caller, err := currentUser(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	s, err := h.Sensors.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSensorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sensor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if ok, resp := h.guardBuilding(c, caller, s.BuildingID); !ok {
		return resp
	}

	if err := h.Sensors.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrSensorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sensor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
