package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Zone radius bounds in meters
const (
	MinZoneRadiusMeters = 10
	MaxZoneRadiusMeters = 5000
)

// Zone represents a circular geofence an employee must be inside to pass a check
type Zone struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	CenterLat    float64   `json:"center_lat" db:"center_lat"`
	CenterLon    float64   `json:"center_lon" db:"center_lon"`
	RadiusMeters float64   `json:"radius_meters" db:"radius_meters"`

	// IsShared zones may be assigned to many employees; individual zones
	// have exactly one assignment
	IsShared bool `json:"is_shared" db:"is_shared"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ZoneAssignment links an employee to a zone (many-to-many)
type ZoneAssignment struct {
	ZoneID     uuid.UUID `json:"zone_id" db:"zone_id"`
	EmployeeID uuid.UUID `json:"employee_id" db:"employee_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CreateZoneRequest represents the request to create a new geofence zone
type CreateZoneRequest struct {
	Name         string  `json:"name" binding:"required"`
	CenterLat    float64 `json:"center_lat"`
	CenterLon    float64 `json:"center_lon"`
	RadiusMeters float64 `json:"radius_meters" binding:"required"`
	IsShared     bool    `json:"is_shared"`
	EmployeeID   *string `json:"employee_id,omitempty"` // required for individual zones
}

// Validate validates the create zone request
func (r *CreateZoneRequest) Validate() error {
	if r.CenterLat < -90 || r.CenterLat > 90 {
		return errors.New("center_lat must be between -90 and 90")
	}

	if r.CenterLon < -180 || r.CenterLon > 180 {
		return errors.New("center_lon must be between -180 and 180")
	}

	if r.RadiusMeters < MinZoneRadiusMeters || r.RadiusMeters > MaxZoneRadiusMeters {
		return errors.New("radius_meters must be between 10 and 5000")
	}

	if !r.IsShared && r.EmployeeID == nil {
		return errors.New("employee_id is required for individual zones")
	}

	return nil
}
