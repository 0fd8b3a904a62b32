// This file defines the Incident model and its repository. Incidents
// reference a sensor optionally: the reference goes NULL when the sensor
// is deleted or was never set, and the incident row survives on its own.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Incident represents a detected incident. Level is free-text severity,
// Description is optional, DetectedAt defaults to the server time at
// creation and Resolved always starts false.
type Incident struct {
	ID          uint64    `json:"id"`
	SensorID    *uint64   `json:"sensor_id"`
	Level       string    `json:"level"`
	Description *string   `json:"description"`
	DetectedAt  time.Time `json:"detected_at"`
	Resolved    bool      `json:"resolved"`
}

// ErrIncidentNotFound is returned when an incident cannot be found in the DB.
var ErrIncidentNotFound = errors.New("incident not found")

type IncidentRepo struct {
	db *sql.DB
}

func NewIncidentRepo(db *sql.DB) *IncidentRepo {
	return &IncidentRepo{db: db}
}

const incidentCols = "id, sensor_id, level, description, detected_at, resolved"

// Create inserts a new incident and populates its ID. DetectedAt and
// Resolved must already hold their final values; defaulting happens in the
// handler so the stored row and the response are identical.
func (r *IncidentRepo) Create(ctx context.Context, in *Incident) error {
	const q = "INSERT INTO incidents (sensor_id, level, description, detected_at, resolved) VALUES (?, ?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, in.SensorID, in.Level, in.Description, in.DetectedAt, in.Resolved)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	in.ID = uint64(id)
	return nil
}

// GetByID fetches an incident by id, returning ErrIncidentNotFound when absent.
func (r *IncidentRepo) GetByID(ctx context.Context, id uint64) (*Incident, error) {
	const q = "SELECT " + incidentCols + " FROM incidents WHERE id = ?"
	var in Incident
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&in.ID, &in.SensorID, &in.Level, &in.Description, &in.DetectedAt, &in.Resolved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIncidentNotFound
		}
		return nil, err
	}
	return &in, nil
}

// List returns incidents ordered by id, optionally filtered by resolved
// state when the pointer is non-nil.
func (r *IncidentRepo) List(ctx context.Context, resolved *bool, skip, limit int) ([]*Incident, error) {
	q := "SELECT " + incidentCols + " FROM incidents"
	args := []any{}
	if resolved != nil {
		q += " WHERE resolved = ?"
		args = append(args, *resolved)
	}
	q += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, skip)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Incident{}
	for rows.Next() {
		in := new(Incident)
		if err := rows.Scan(&in.ID, &in.SensorID, &in.Level, &in.Description, &in.DetectedAt, &in.Resolved); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Patch applies the allow-listed mutable fields (resolved, description) to
// an incident. Nil pointers leave the stored value untouched. There is no
// generic field mapping on purpose: these two columns are the only ones an
// update may ever touch. Returns the updated record, or
// ErrIncidentNotFound when the row does not exist.
func (r *IncidentRepo) Patch(ctx context.Context, id uint64, resolved *bool, description *string) (*Incident, error) {
	sets := []string{}
	args := []any{}
	if resolved != nil {
		sets = append(sets, "resolved = ?")
		args = append(args, *resolved)
	}
	if description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *description)
	}
	if len(sets) > 0 {
		args = append(args, id)
		q := "UPDATE incidents SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes an incident row.
func (r *IncidentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM incidents WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrIncidentNotFound
	}
	return nil
}
