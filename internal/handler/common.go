package handler // handler defines http handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/fire-safety-monitor/internal/queue"
	"github.com/iliyamo/fire-safety-monitor/internal/repository"
)

// The handlers consume narrow persistence interfaces rather than concrete
// repositories so the storage engine stays swappable and tests can run
// against in-memory fakes.  The repository types satisfy them.

// UserStore persists user identity records.
type UserStore interface {
	Create(ctx context.Context, username, email, password string, cost int) (uint64, error)
	GetByID(ctx context.Context, id uint64) (repository.User, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	List(ctx context.Context, skip, limit int) ([]repository.User, error)
	Update(ctx context.Context, id uint64, username, email, password string, cost int) (repository.User, error)
	Delete(ctx context.Context, id uint64) error
}

// BuildingStore persists buildings.
type BuildingStore interface {
	Create(ctx context.Context, b *repository.Building) error
	GetByID(ctx context.Context, id uint64) (*repository.Building, error)
	List(ctx context.Context, skip, limit int) ([]*repository.Building, error)
	Update(ctx context.Context, id uint64, name, address string) (*repository.Building, error)
	Delete(ctx context.Context, id uint64) error
}

// SensorStore persists sensors.
type SensorStore interface {
	Create(ctx context.Context, s *repository.Sensor) error
	GetByID(ctx context.Context, id uint64) (*repository.Sensor, error)
	List(ctx context.Context, buildingID *uint64, skip, limit int) ([]*repository.Sensor, error)
	Update(ctx context.Context, s *repository.Sensor) error
	Delete(ctx context.Context, id uint64) error
}

// IncidentStore persists incidents.
type IncidentStore interface {
	Create(ctx context.Context, in *repository.Incident) error
	GetByID(ctx context.Context, id uint64) (*repository.Incident, error)
	List(ctx context.Context, resolved *bool, skip, limit int) ([]*repository.Incident, error)
	Patch(ctx context.Context, id uint64, resolved *bool, description *string) (*repository.Incident, error)
	Delete(ctx context.Context, id uint64) error
}

// IncidentPublisher pushes incident events to the message broker.  May be
// nil-valued in tests; handlers treat publishing as best-effort.
type IncidentPublisher interface {
	PublishIncidentReported(ctx context.Context, ev queue.IncidentReportedEvent) error
}

// currentUser extracts the caller record stored by the JWTAuth middleware.
func currentUser(c echo.Context) (repository.User, error) {
	if u, ok := c.Get("caller").(repository.User); ok {
		return u, nil
	}
	return repository.User{}, errors.New("no authenticated user in context")
}

// ownerOrAdmin implements the owner-or-admin rule: a mutation is allowed
// when the caller owns the resource or holds the admin flag.  Handlers run
// it only after the target resource is known to exist, so a denial is
// always a 403 and never masks a 404.
func ownerOrAdmin(caller repository.User, resourceOwnerID uint64) bool {
	return caller.ID == resourceOwnerID || caller.IsAdmin
}

// pathID parses the numeric :id path parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// pageParams reads skip/limit query parameters with the defaults the API
// has always used (skip=0, limit=100).
func pageParams(c echo.Context) (skip, limit int) {
	skip, limit = 0, 100
	if v := strings.TrimSpace(c.QueryParam("skip")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := strings.TrimSpace(c.QueryParam("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			limit = n
		}
	}
	return skip, limit
}
