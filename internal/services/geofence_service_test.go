package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marchelxyz/GeoCheck-sub000/internal/models"
)

func TestHaversineMeters(t *testing.T) {
	t.Run("Zero Distance", func(t *testing.T) {
		assert.Equal(t, 0.0, HaversineMeters(55.7558, 37.6173, 55.7558, 37.6173))
	})

	t.Run("Moscow To Saint Petersburg", func(t *testing.T) {
		// Roughly 634 km between the city centers
		d := HaversineMeters(55.7558, 37.6173, 59.9343, 30.3351)
		assert.InDelta(t, 634000, d, 5000)
	})

	t.Run("Short Distance", func(t *testing.T) {
		// About 111 m per 0.001 degrees of latitude
		d := HaversineMeters(55.7558, 37.6173, 55.7568, 37.6173)
		assert.InDelta(t, 111, d, 1)
	})

	t.Run("Symmetric", func(t *testing.T) {
		a := HaversineMeters(55.75, 37.61, 56.0, 38.0)
		b := HaversineMeters(56.0, 38.0, 55.75, 37.61)
		assert.InDelta(t, a, b, 1e-9)
	})
}

func TestEvaluateGeofence(t *testing.T) {
	officeZone := models.Zone{
		ID:           uuid.New(),
		Name:         "Office",
		CenterLat:    55.7558,
		CenterLon:    37.6173,
		RadiusMeters: 150,
	}
	warehouseZone := models.Zone{
		ID:           uuid.New(),
		Name:         "Warehouse",
		CenterLat:    55.80,
		CenterLon:    37.70,
		RadiusMeters: 100,
	}

	t.Run("No Zones Assigned", func(t *testing.T) {
		eval := EvaluateGeofence(55.7558, 37.6173, nil)

		assert.False(t, eval.IsWithinZone)
		assert.Nil(t, eval.DistanceToZone)
		assert.Nil(t, eval.NearestZoneID)
	})

	t.Run("Inside Zone", func(t *testing.T) {
		// ~111 m north of the office center, inside the 150 m radius
		eval := EvaluateGeofence(55.7568, 37.6173, []models.Zone{officeZone, warehouseZone})

		assert.True(t, eval.IsWithinZone)
		require.NotNil(t, eval.NearestZoneID)
		assert.Equal(t, officeZone.ID, *eval.NearestZoneID)
		require.NotNil(t, eval.DistanceToZone)
		assert.Less(t, *eval.DistanceToZone, officeZone.RadiusMeters)
	})

	t.Run("On Boundary Counts As Inside", func(t *testing.T) {
		zone := models.Zone{ID: uuid.New(), CenterLat: 55.7558, CenterLon: 37.6173, RadiusMeters: 112}

		eval := EvaluateGeofence(55.7568, 37.6173, []models.Zone{zone})
		assert.True(t, eval.IsWithinZone)
	})

	t.Run("Far Outside All Zones", func(t *testing.T) {
		// Tver is roughly 160 km from the Moscow office
		eval := EvaluateGeofence(56.8587, 35.9176, []models.Zone{officeZone, warehouseZone})

		assert.False(t, eval.IsWithinZone)
		require.NotNil(t, eval.DistanceToZone)
		assert.Greater(t, *eval.DistanceToZone, 100000.0)
		require.NotNil(t, eval.NearestZoneID)
	})

	t.Run("Nearest Zone Reported When Outside", func(t *testing.T) {
		// A point slightly north of the warehouse but outside both radii
		eval := EvaluateGeofence(55.81, 37.70, []models.Zone{officeZone, warehouseZone})

		assert.False(t, eval.IsWithinZone)
		require.NotNil(t, eval.NearestZoneID)
		assert.Equal(t, warehouseZone.ID, *eval.NearestZoneID)
	})

	t.Run("First Containing Zone Wins", func(t *testing.T) {
		inner := models.Zone{ID: uuid.New(), CenterLat: 55.7558, CenterLon: 37.6173, RadiusMeters: 500}
		outer := models.Zone{ID: uuid.New(), CenterLat: 55.7558, CenterLon: 37.6173, RadiusMeters: 5000}

		eval := EvaluateGeofence(55.7558, 37.6173, []models.Zone{inner, outer})

		assert.True(t, eval.IsWithinZone)
		require.NotNil(t, eval.NearestZoneID)
		assert.Equal(t, inner.ID, *eval.NearestZoneID)
	})
}
