package database

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

// CheckInResultRepository handles database operations for the
// check_in_results table. The unique index on request_id plus the upsert
// statements guarantee at most one result row per request even under
// concurrent retries.
type CheckInResultRepository struct {
	db DB
}

// NewCheckInResultRepository creates a new CheckInResultRepository
func NewCheckInResultRepository(db DB) *CheckInResultRepository {
	return &CheckInResultRepository{db: db}
}

// GetByRequestID retrieves the result row for a request, or nil
func (r *CheckInResultRepository) GetByRequestID(requestID uuid.UUID) (*models.CheckInResult, error) {
	query := `
		SELECT id, request_id, location_lat, location_lon, is_within_zone,
		       distance_to_zone, nearest_zone_id, photo_ref, created_at, updated_at
		FROM check_in_results
		WHERE request_id = $1
	`

	var result models.CheckInResult
	err := r.db.QueryRow(query, requestID).Scan(
		&result.ID, &result.RequestID, &result.LocationLat, &result.LocationLon,
		&result.IsWithinZone, &result.DistanceToZone, &result.NearestZoneID,
		&result.PhotoRef, &result.CreatedAt, &result.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// UpsertLocation creates the result row on first location submission or
// updates the location fields in place on resubmission
func (r *CheckInResultRepository) UpsertLocation(
	requestID uuid.UUID,
	lat, lon float64,
	isWithinZone bool,
	distanceToZone *float64,
	nearestZoneID *uuid.UUID,
) error {
	query := `
		INSERT INTO check_in_results (
			id, request_id, location_lat, location_lon,
			is_within_zone, distance_to_zone, nearest_zone_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (request_id) DO UPDATE
		SET location_lat = EXCLUDED.location_lat,
		    location_lon = EXCLUDED.location_lon,
		    is_within_zone = EXCLUDED.is_within_zone,
		    distance_to_zone = EXCLUDED.distance_to_zone,
		    nearest_zone_id = EXCLUDED.nearest_zone_id,
		    updated_at = NOW()
	`

	_, err := r.db.Exec(query, uuid.New(), requestID, lat, lon, isWithinZone, distanceToZone, nearestZoneID)
	return err
}

// UpsertPhoto creates the result row on first photo submission or updates
// the photo reference in place on resubmission
func (r *CheckInResultRepository) UpsertPhoto(requestID uuid.UUID, photoRef string) error {
	query := `
		INSERT INTO check_in_results (id, request_id, photo_ref)
		VALUES ($1, $2, $3)
		ON CONFLICT (request_id) DO UPDATE
		SET photo_ref = EXCLUDED.photo_ref,
		    updated_at = NOW()
	`

	_, err := r.db.Exec(query, uuid.New(), requestID, photoRef)
	return err
}
