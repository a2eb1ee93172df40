package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CheckInResult holds the evidence submitted for a single request: a GPS fix
// and a photo reference. There is at most one result row per request; it is
// created on the first submission and updated in place afterwards.
type CheckInResult struct {
	ID        uuid.UUID `json:"id" db:"id"`
	RequestID uuid.UUID `json:"request_id" db:"request_id"`

	LocationLat *float64 `json:"location_lat,omitempty" db:"location_lat"`
	LocationLon *float64 `json:"location_lon,omitempty" db:"location_lon"`

	IsWithinZone   *bool      `json:"is_within_zone,omitempty" db:"is_within_zone"`
	DistanceToZone *float64   `json:"distance_to_zone,omitempty" db:"distance_to_zone"` // meters to nearest assigned zone
	NearestZoneID  *uuid.UUID `json:"nearest_zone_id,omitempty" db:"nearest_zone_id"`

	PhotoRef *string `json:"photo_ref,omitempty" db:"photo_ref"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasLocation reports whether a real GPS fix was submitted. The (0,0)
// placeholder some clients send before acquiring a fix does not count.
func (r *CheckInResult) HasLocation() bool {
	if r.LocationLat == nil || r.LocationLon == nil {
		return false
	}
	return *r.LocationLat != 0 || *r.LocationLon != 0
}

// HasPhoto reports whether a photo reference was submitted
func (r *CheckInResult) HasPhoto() bool {
	return r.PhotoRef != nil && *r.PhotoRef != ""
}

// SubmitLocationRequest represents a GPS fix submission from the employee app
type SubmitLocationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate validates the location submission
func (r *SubmitLocationRequest) Validate() error {
	if r.Lat < -90 || r.Lat > 90 {
		return errors.New("lat must be between -90 and 90")
	}

	if r.Lon < -180 || r.Lon > 180 {
		return errors.New("lon must be between -180 and 180")
	}

	return nil
}
