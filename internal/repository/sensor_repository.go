// This file defines the Sensor model and its repository. Sensors belong to
// exactly one building and carry no owner of their own; authorization for
// sensor mutations is always resolved through the parent building.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Sensor represents a sensor attached to a building. Type and Location are
// free-text; InstalledAt is optional.
type Sensor struct {
	ID          uint64     `json:"id"`
	BuildingID  uint64     `json:"building_id"`
	Type        string     `json:"type"`
	Location    string     `json:"location"`
	InstalledAt *time.Time `json:"installed_at"`
	IsActive    bool       `json:"is_active"`
}

// ErrSensorNotFound is returned when a sensor cannot be found in the DB.
var ErrSensorNotFound = errors.New("sensor not found")

type SensorRepo struct {
	db *sql.DB
}

func NewSensorRepo(db *sql.DB) *SensorRepo {
	return &SensorRepo{db: db}
}

const sensorCols = "id, building_id, type, location, installed_at, is_active"

// Create inserts a new sensor and populates its ID.
func (r *SensorRepo) Create(ctx context.Context, s *Sensor) error {
	const q = "INSERT INTO sensors (building_id, type, location, installed_at, is_active) VALUES (?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, s.BuildingID, s.Type, s.Location, s.InstalledAt, s.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID fetches a sensor by id, returning ErrSensorNotFound when absent.
func (r *SensorRepo) GetByID(ctx context.Context, id uint64) (*Sensor, error) {
	const q = "SELECT " + sensorCols + " FROM sensors WHERE id = ?"
	var s Sensor
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.BuildingID, &s.Type, &s.Location, &s.InstalledAt, &s.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns sensors ordered by id, optionally filtered to a single
// building when buildingID is non-nil.
func (r *SensorRepo) List(ctx context.Context, buildingID *uint64, skip, limit int) ([]*Sensor, error) {
	q := "SELECT " + sensorCols + " FROM sensors"
	args := []any{}
	if buildingID != nil {
		q += " WHERE building_id = ?"
		args = append(args, *buildingID)
	}
	q += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, skip)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Sensor{}
	for rows.Next() {
		s := new(Sensor)
		if err := rows.Scan(&s.ID, &s.BuildingID, &s.Type, &s.Location, &s.InstalledAt, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update replaces every mutable field of a sensor identified by s.ID.
// Callers verify existence and ownership of the parent building first.
func (r *SensorRepo) Update(ctx context.Context, s *Sensor) error {
	const q = "UPDATE sensors SET building_id = ?, type = ?, location = ?, installed_at = ?, is_active = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, q, s.BuildingID, s.Type, s.Location, s.InstalledAt, s.IsActive, s.ID)
	return err
}

// Delete removes a sensor row. Incidents referencing it keep their row;
// the sensor_id column on incidents is nullable for this reason.
func (r *SensorRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sensors WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSensorNotFound
	}
	return nil
}
