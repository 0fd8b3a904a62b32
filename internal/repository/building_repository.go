// This file defines the Building model and repository methods for CRUD and
// lookup operations. A Building is owned by exactly one user and may have
// any number of sensors attached. Ownership is what the authorization
// guard checks before any mutation.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Building represents a building entity persisted in the database. OwnerID
// references users.id and is required; CreatedAt is assigned by the server
// at insert time.
type Building struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	OwnerID   uint64    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrBuildingNotFound is returned when a building cannot be found in the DB.
var ErrBuildingNotFound = errors.New("building not found")

// BuildingRepo encapsulates all database queries related to buildings.
type BuildingRepo struct {
	db *sql.DB
}

func NewBuildingRepo(db *sql.DB) *BuildingRepo {
	return &BuildingRepo{db: db}
}

const buildingCols = "id, name, address, owner_id, created_at"

// Create inserts a new building with a server-assigned creation timestamp.
// On success the ID and CreatedAt fields are populated from the stored row.
func (r *BuildingRepo) Create(ctx context.Context, b *Building) error {
	const qInsert = "INSERT INTO buildings (name, address, owner_id, created_at) VALUES (?, ?, ?, UTC_TIMESTAMP())"
	res, err := r.db.ExecContext(ctx, qInsert, b.Name, b.Address, b.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	// Follow-up SELECT so callers receive the stored timestamp.
	const qSelect = "SELECT name, address, owner_id, created_at FROM buildings WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, b.ID).Scan(&b.Name, &b.Address, &b.OwnerID, &b.CreatedAt)
}

// GetByID fetches a building by its ID. It returns ErrBuildingNotFound if
// no row is found.
func (r *BuildingRepo) GetByID(ctx context.Context, id uint64) (*Building, error) {
	const q = "SELECT " + buildingCols + " FROM buildings WHERE id = ?"
	var b Building
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Name, &b.Address, &b.OwnerID, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBuildingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns buildings ordered by id with skip/limit pagination.
func (r *BuildingRepo) List(ctx context.Context, skip, limit int) ([]*Building, error) {
	const q = "SELECT " + buildingCols + " FROM buildings ORDER BY id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Building{}
	for rows.Next() {
		b := new(Building)
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.OwnerID, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update replaces the name and address of a building. The owner is never
// reassigned through this path. Callers verify existence and ownership
// before invoking it; the updated record is read back and returned.
func (r *BuildingRepo) Update(ctx context.Context, id uint64, name, address string) (*Building, error) {
	const q = "UPDATE buildings SET name = ?, address = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, name, address, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a building row. Sensors that reference it are left in
// place (no cascade), matching the documented integrity gap. Returns
// ErrBuildingNotFound when nothing was deleted.
func (r *BuildingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM buildings WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBuildingNotFound
	}
	return nil
}
