package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

// ZoneRepository handles database operations for zones and zone assignments
type ZoneRepository struct {
	db DB
}

// NewZoneRepository creates a new ZoneRepository
func NewZoneRepository(db DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

// Create creates a new zone
func (r *ZoneRepository) Create(zone *models.Zone) error {
	query := `
		INSERT INTO zones (
			id, name, center_lat, center_lon, radius_meters, is_shared
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		RETURNING created_at, updated_at
	`

	if zone.ID == uuid.Nil {
		zone.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		zone.ID, zone.Name, zone.CenterLat, zone.CenterLon, zone.RadiusMeters, zone.IsShared,
	).Scan(&zone.CreatedAt, &zone.UpdatedAt)

	return err
}

// GetByID retrieves a zone by ID
func (r *ZoneRepository) GetByID(zoneID uuid.UUID) (*models.Zone, error) {
	query := `
		SELECT id, name, center_lat, center_lon, radius_meters, is_shared,
		       created_at, updated_at
		FROM zones
		WHERE id = $1
	`

	var zone models.Zone
	err := r.db.QueryRow(query, zoneID).Scan(
		&zone.ID, &zone.Name, &zone.CenterLat, &zone.CenterLon,
		&zone.RadiusMeters, &zone.IsShared, &zone.CreatedAt, &zone.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &zone, nil
}

// List retrieves all zones
func (r *ZoneRepository) List() ([]models.Zone, error) {
	query := `
		SELECT id, name, center_lat, center_lon, radius_meters, is_shared,
		       created_at, updated_at
		FROM zones
		ORDER BY name
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanZones(rows)
}

// Delete removes a zone and its assignments
func (r *ZoneRepository) Delete(zoneID uuid.UUID) error {
	if _, err := r.db.Exec(`DELETE FROM zone_assignments WHERE zone_id = $1`, zoneID); err != nil {
		return fmt.Errorf("failed to delete zone assignments: %w", err)
	}

	result, err := r.db.Exec(`DELETE FROM zones WHERE id = $1`, zoneID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("zone not found: %s", zoneID)
	}

	return nil
}

// Assign links an employee to a zone. Re-assigning the same pair is a no-op.
func (r *ZoneRepository) Assign(zoneID, employeeID uuid.UUID) error {
	query := `
		INSERT INTO zone_assignments (zone_id, employee_id)
		VALUES ($1, $2)
		ON CONFLICT (zone_id, employee_id) DO NOTHING
	`

	_, err := r.db.Exec(query, zoneID, employeeID)
	return err
}

// Unassign removes an employee-zone link
func (r *ZoneRepository) Unassign(zoneID, employeeID uuid.UUID) error {
	query := `DELETE FROM zone_assignments WHERE zone_id = $1 AND employee_id = $2`

	_, err := r.db.Exec(query, zoneID, employeeID)
	return err
}

// GetZonesForEmployee retrieves all zones assigned to an employee. The id
// ordering makes the geofence evaluation tie-break deterministic.
func (r *ZoneRepository) GetZonesForEmployee(employeeID uuid.UUID) ([]models.Zone, error) {
	query := `
		SELECT z.id, z.name, z.center_lat, z.center_lon, z.radius_meters, z.is_shared,
		       z.created_at, z.updated_at
		FROM zones z
		JOIN zone_assignments za ON za.zone_id = z.id
		WHERE za.employee_id = $1
		ORDER BY z.id
	`

	rows, err := r.db.Query(query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanZones(rows)
}

// scanZones scans multiple zone rows
func (r *ZoneRepository) scanZones(rows *sql.Rows) ([]models.Zone, error) {
	var zones []models.Zone

	for rows.Next() {
		var zone models.Zone
		err := rows.Scan(
			&zone.ID, &zone.Name, &zone.CenterLat, &zone.CenterLon,
			&zone.RadiusMeters, &zone.IsShared, &zone.CreatedAt, &zone.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}

	return zones, rows.Err()
}
