package services

import (
	"math"

	"github.com/google/uuid"
	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

// earthRadiusMeters is the spherical Earth radius used by the haversine formula
const earthRadiusMeters = 6371000.0

// GeofenceEvaluation is the outcome of checking a GPS fix against an
// employee's assigned zones
type GeofenceEvaluation struct {
	IsWithinZone   bool       `json:"is_within_zone"`
	DistanceToZone *float64   `json:"distance_to_zone,omitempty"` // meters to nearest zone, nil when no zones assigned
	NearestZoneID  *uuid.UUID `json:"nearest_zone_id,omitempty"`
}

// EvaluateGeofence checks a submitted location against the given zones.
// The first zone containing the point wins; with no containing zone the
// minimum-distance zone is reported. Pure and deterministic for a fixed
// zone order.
func EvaluateGeofence(lat, lon float64, zones []models.Zone) GeofenceEvaluation {
	if len(zones) == 0 {
		return GeofenceEvaluation{}
	}

	var nearest *models.Zone
	nearestDistance := math.MaxFloat64

	for i := range zones {
		zone := &zones[i]
		distance := HaversineMeters(lat, lon, zone.CenterLat, zone.CenterLon)

		if distance <= zone.RadiusMeters {
			return GeofenceEvaluation{
				IsWithinZone:   true,
				DistanceToZone: &distance,
				NearestZoneID:  &zone.ID,
			}
		}

		if distance < nearestDistance {
			nearestDistance = distance
			nearest = zone
		}
	}

	return GeofenceEvaluation{
		IsWithinZone:   false,
		DistanceToZone: &nearestDistance,
		NearestZoneID:  &nearest.ID,
	}
}

// HaversineMeters computes the great-circle distance between two points on
// a spherical Earth of radius 6 371 000 m
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
