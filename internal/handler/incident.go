package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fire-safety-monitor/internal/queue"
	"github.com/iliyamo/fire-safety-monitor/internal/repository"
)

// IncidentHandler implements incident CRUD.  Reporting an incident
// requires an authenticated caller and an existing sensor; afterwards the
// incident lives on its own — updates touch only the allow-listed fields
// and need no ownership check because incidents have no owner.
type IncidentHandler struct {
	Incidents IncidentStore
	Sensors   SensorStore
	Events    IncidentPublisher
}

func NewIncidentHandler(i IncidentStore, s SensorStore, ev IncidentPublisher) *IncidentHandler {
	return &IncidentHandler{Incidents: i, Sensors: s, Events: ev}
}

type incidentCreateReq struct {
	SensorID    uint64     `json:"sensor_id"`
	Level       string     `json:"level"`
	Description *string    `json:"description"`
	DetectedAt  *time.Time `json:"detected_at"`
}

type incidentPatchReq struct {
	Resolved    *bool   `json:"resolved"`
	Description *string `json:"description"`
}

// Create handles POST /incidents.  Severity defaults to "medium",
// detected_at to the server's current time, and resolved always starts
// false regardless of the body.
func (h *IncidentHandler) Create(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req incidentCreateReq
	if err := c.Bind(&req); err != nil || req.SensorID == 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "sensor_id required"})
	}

	s, err := h.Sensors.GetByID(c.Request().Context(), req.SensorID)
	if err != nil {
		if errors.Is(err, repository.ErrSensorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sensor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	level := strings.TrimSpace(req.Level)
	if level == "" {
		level = "medium"
	}
	detectedAt := time.Now().UTC()
	if req.DetectedAt != nil {
		detectedAt = req.DetectedAt.UTC()
	}

	sensorID := s.ID
	in := &repository.Incident{
		SensorID:    &sensorID,
		Level:       level,
		Description: req.Description,
		DetectedAt:  detectedAt,
		Resolved:    false,
	}
	if err := h.Incidents.Create(c.Request().Context(), in); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create incident failed"})
	}

	h.publishReported(in, s.BuildingID)

	return c.JSON(http.StatusCreated, in)
}

// publishReported pushes an incident.reported event to the broker.  This is
// best-effort: the incident row is already committed and a broker outage
// must not fail the request.  The publisher logs its own errors.
func (h *IncidentHandler) publishReported(in *repository.Incident, buildingID uint64) {
	if h.Events == nil {
		return
	}
	ev := queue.IncidentReportedEvent{
		IncidentID: in.ID,
		SensorID:   in.SensorID,
		BuildingID: buildingID,
		Level:      in.Level,
		DetectedAt: in.DetectedAt.Format(time.RFC3339),
	}
	if in.Description != nil {
		ev.Description = *in.Description
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.Events.PublishIncidentReported(ctx, ev)
	}()
}

// Get handles GET /incidents/:id.
func (h *IncidentHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	in, err := h.Incidents.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrIncidentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "incident not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, in)
}

// List handles GET /incidents with an optional resolved=true|false filter.
func (h *IncidentHandler) List(c echo.Context) error {
	skip, limit := pageParams(c)
	var resolved *bool
	switch strings.ToLower(strings.TrimSpace(c.QueryParam("resolved"))) {
	case "":
	case "true", "1":
		v := true
		resolved = &v
	case "false", "0":
		v := false
		resolved = &v
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resolved filter"})
	}
	items, err := h.Incidents.List(c.Request().Context(), resolved, skip, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// Patch handles PATCH /incidents/:id.  Only resolved and description are
// mutable; every other field is fixed at creation.  Fields absent from the
// body stay untouched.
func (h *IncidentHandler) Patch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req incidentPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid body"})
	}
	if _, err := h.Incidents.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrIncidentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "incident not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	in, err := h.Incidents.Patch(c.Request().Context(), id, req.Resolved, req.Description)
	if err != nil {
		if errors.Is(err, repository.ErrIncidentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "incident not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, in)
}

// Delete handles DELETE /incidents/:id.
func (h *IncidentHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Incidents.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrIncidentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "incident not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
