package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/fire-safety-monitor/internal/config"
	"github.com/iliyamo/fire-safety-monitor/internal/queue"
	"github.com/iliyamo/fire-safety-monitor/internal/repository"
	"github.com/iliyamo/fire-safety-monitor/internal/utils"
)

// testConfig returns a config suitable for handler tests.  MinCost keeps
// the bcrypt work factor out of the test runtime.
func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "handler-test-secret",
		AccessTTLMin:   30,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
}

// newCtx builds an Echo context for a JSON request.  Path parameters are
// given as alternating name/value pairs.
func newCtx(method, target, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

// asCaller stores an authenticated user in the context the way the JWT
// middleware would.
func asCaller(c echo.Context, u repository.User) {
	c.Set("caller", u)
	c.Set("user_id", u.ID)
	c.Set("is_admin", u.IsAdmin)
}

// ----- in-memory stores -----

type fakeUserStore struct {
	nextID uint64
	users  map[uint64]repository.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]repository.User{}}
}

func (f *fakeUserStore) add(u repository.User) repository.User {
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = u
	return u
}

func (f *fakeUserStore) Create(_ context.Context, username, email, password string, cost int) (uint64, error) {
	for _, u := range f.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
		if u.Username == username {
			return 0, repository.ErrUsernameExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u := f.add(repository.User{Username: username, Email: email, PasswordHash: hash})
	return u.ID, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (repository.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) List(_ context.Context, skip, limit int) ([]repository.User, error) {
	out := make([]repository.User, 0, len(f.users))
	for id := uint64(1); id <= f.nextID; id++ {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUserStore) Update(_ context.Context, id uint64, username, email, password string, cost int) (repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, repository.ErrUserNotFound
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return repository.User{}, err
	}
	u.Username, u.Email, u.PasswordHash = username, email, hash
	f.users[id] = u
	return u, nil
}

func (f *fakeUserStore) Delete(_ context.Context, id uint64) error {
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeBuildingStore struct {
	nextID    uint64
	buildings map[uint64]*repository.Building
}

func newFakeBuildingStore() *fakeBuildingStore {
	return &fakeBuildingStore{buildings: map[uint64]*repository.Building{}}
}

func (f *fakeBuildingStore) Create(_ context.Context, b *repository.Building) error {
	f.nextID++
	b.ID = f.nextID
	cp := *b
	f.buildings[b.ID] = &cp
	return nil
}

func (f *fakeBuildingStore) GetByID(_ context.Context, id uint64) (*repository.Building, error) {
	b, ok := f.buildings[id]
	if !ok {
		return nil, repository.ErrBuildingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBuildingStore) List(_ context.Context, skip, limit int) ([]*repository.Building, error) {
	out := make([]*repository.Building, 0, len(f.buildings))
	for id := uint64(1); id <= f.nextID; id++ {
		if b, ok := f.buildings[id]; ok {
			cp := *b
			out = append(out, &cp)
		}
	}
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBuildingStore) Update(_ context.Context, id uint64, name, address string) (*repository.Building, error) {
	b, ok := f.buildings[id]
	if !ok {
		return nil, repository.ErrBuildingNotFound
	}
	b.Name, b.Address = name, address
	cp := *b
	return &cp, nil
}

func (f *fakeBuildingStore) Delete(_ context.Context, id uint64) error {
	if _, ok := f.buildings[id]; !ok {
		return repository.ErrBuildingNotFound
	}
	delete(f.buildings, id)
	return nil
}

type fakeSensorStore struct {
	nextID  uint64
	sensors map[uint64]*repository.Sensor
}

func newFakeSensorStore() *fakeSensorStore {
	return &fakeSensorStore{sensors: map[uint64]*repository.Sensor{}}
}

func (f *fakeSensorStore) Create(_ context.Context, s *repository.Sensor) error {
	f.nextID++
	s.ID = f.nextID
	cp := *s
	f.sensors[s.ID] = &cp
	return nil
}

func (f *fakeSensorStore) GetByID(_ context.Context, id uint64) (*repository.Sensor, error) {
	s, ok := f.sensors[id]
	if !ok {
		return nil, repository.ErrSensorNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSensorStore) List(_ context.Context, buildingID *uint64, skip, limit int) ([]*repository.Sensor, error) {
	out := make([]*repository.Sensor, 0, len(f.sensors))
	for id := uint64(1); id <= f.nextID; id++ {
		s, ok := f.sensors[id]
		if !ok {
			continue
		}
		if buildingID != nil && s.BuildingID != *buildingID {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSensorStore) Update(_ context.Context, s *repository.Sensor) error {
	if _, ok := f.sensors[s.ID]; !ok {
		return repository.ErrSensorNotFound
	}
	cp := *s
	f.sensors[s.ID] = &cp
	return nil
}

func (f *fakeSensorStore) Delete(_ context.Context, id uint64) error {
	if _, ok := f.sensors[id]; !ok {
		return repository.ErrSensorNotFound
	}
	delete(f.sensors, id)
	return nil
}

type fakeIncidentStore struct {
	nextID    uint64
	incidents map[uint64]*repository.Incident
}

func newFakeIncidentStore() *fakeIncidentStore {
	return &fakeIncidentStore{incidents: map[uint64]*repository.Incident{}}
}

func (f *fakeIncidentStore) Create(_ context.Context, in *repository.Incident) error {
	f.nextID++
	in.ID = f.nextID
	cp := *in
	f.incidents[in.ID] = &cp
	return nil
}

func (f *fakeIncidentStore) GetByID(_ context.Context, id uint64) (*repository.Incident, error) {
	in, ok := f.incidents[id]
	if !ok {
		return nil, repository.ErrIncidentNotFound
	}
	cp := *in
	return &cp, nil
}

func (f *fakeIncidentStore) List(_ context.Context, resolved *bool, skip, limit int) ([]*repository.Incident, error) {
	out := make([]*repository.Incident, 0, len(f.incidents))
	for id := uint64(1); id <= f.nextID; id++ {
		in, ok := f.incidents[id]
		if !ok {
			continue
		}
		if resolved != nil && in.Resolved != *resolved {
			continue
		}
		cp := *in
		out = append(out, &cp)
	}
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeIncidentStore) Patch(_ context.Context, id uint64, resolved *bool, description *string) (*repository.Incident, error) {
	in, ok := f.incidents[id]
	if !ok {
		return nil, repository.ErrIncidentNotFound
	}
	if resolved != nil {
		in.Resolved = *resolved
	}
	if description != nil {
		d := *description
		in.Description = &d
	}
	cp := *in
	return &cp, nil
}

func (f *fakeIncidentStore) Delete(_ context.Context, id uint64) error {
	if _, ok := f.incidents[id]; !ok {
		return repository.ErrIncidentNotFound
	}
	delete(f.incidents, id)
	return nil
}

// fakePublisher receives incident events on a channel so tests can wait
// for the asynchronous publish.
type fakePublisher struct {
	ch chan queue.IncidentReportedEvent
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{ch: make(chan queue.IncidentReportedEvent, 8)}
}

func (f *fakePublisher) PublishIncidentReported(_ context.Context, ev queue.IncidentReportedEvent) error {
	f.ch <- ev
	return nil
}

// ----- helper behavior -----

func TestOwnerOrAdmin(t *testing.T) {
	cases := []struct {
		name    string
		caller  repository.User
		ownerID uint64
		want    bool
	}{
		{"owner", repository.User{ID: 1}, 1, true},
		{"other user", repository.User{ID: 2}, 1, false},
		{"admin over foreign resource", repository.User{ID: 2, IsAdmin: true}, 1, true},
		{"admin over own resource", repository.User{ID: 1, IsAdmin: true}, 1, true},
	}
	for _, tc := range cases {
		if got := ownerOrAdmin(tc.caller, tc.ownerID); got != tc.want {
			t.Errorf("%s: ownerOrAdmin = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPageParams(t *testing.T) {
	c, _ := newCtx(http.MethodGet, "/buildings", "")
	skip, limit := pageParams(c)
	if skip != 0 || limit != 100 {
		t.Errorf("defaults = (%d, %d), want (0, 100)", skip, limit)
	}

	c, _ = newCtx(http.MethodGet, "/buildings?skip=10&limit=5", "")
	skip, limit = pageParams(c)
	if skip != 10 || limit != 5 {
		t.Errorf("got (%d, %d), want (10, 5)", skip, limit)
	}

	// Negative or unparsable values fall back to the defaults.
	c, _ = newCtx(http.MethodGet, "/buildings?skip=-3&limit=abc", "")
	skip, limit = pageParams(c)
	if skip != 0 || limit != 100 {
		t.Errorf("bad values = (%d, %d), want (0, 100)", skip, limit)
	}
}
