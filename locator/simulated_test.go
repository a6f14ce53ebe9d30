package locator

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulated_Geocode(t *testing.T) {
	s := NewSimulated(42)
	ctx := context.Background()

	t.Run("named city", func(t *testing.T) {
		at, err := s.Geocode(ctx, "MG Road, Bangalore")
		require.NoError(t, err)
		assert.Equal(t, Coordinates{Lat: 12.9716, Lon: 77.5946}, *at)
	})

	t.Run("blank address", func(t *testing.T) {
		_, err := s.Geocode(ctx, "   ")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown address is deterministic", func(t *testing.T) {
		first, err := s.Geocode(ctx, "12 Nowhere Lane")
		require.NoError(t, err)
		again, err := NewSimulated(42).Geocode(ctx, "12 nowhere lane ")
		require.NoError(t, err)
		assert.Equal(t, first, again)

		centers := make([]Coordinates, len(simulatedCities))
		for i, c := range simulatedCities {
			centers[i] = c.center
		}
		assert.Contains(t, centers, *first)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Geocode(cancelled, "Delhi")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSimulated_FindNearby(t *testing.T) {
	s := NewSimulated(7)
	ctx := context.Background()
	delhi := Coordinates{Lat: 28.6139, Lon: 77.2090}

	found, err := s.FindNearby(ctx, delhi, DefaultRadiusMeters, DefaultSpecialist, DefaultLimit)
	require.NoError(t, err)
	require.Len(t, found, DefaultLimit)

	assert.True(t, slices.IsSortedFunc(found, func(a, b Specialist) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		}
		return 0
	}))
	for _, sp := range found {
		assert.Contains(t, simulatedClinics, sp.Name)
		assert.Equal(t, "Delhi", sp.City)
		assert.GreaterOrEqual(t, sp.DistanceKm, 0.0)
		// 0.01 degrees on both axes stays well under 2 km.
		assert.Less(t, sp.DistanceKm, 2.0)
	}

	again, err := NewSimulated(7).FindNearby(ctx, delhi, DefaultRadiusMeters, DefaultSpecialist, DefaultLimit)
	require.NoError(t, err)
	assert.Equal(t, found, again)
}

func TestSimulated_FindNearbyRadiusFilter(t *testing.T) {
	s := NewSimulated(7)
	center := Coordinates{Lat: 19.0760, Lon: 72.8777}

	found, err := s.FindNearby(context.Background(), center, 1, DefaultSpecialist, 20)
	require.NoError(t, err)
	for _, sp := range found {
		assert.LessOrEqual(t, sp.DistanceKm, 0.01)
	}
}

func TestSimulated_FindNearbyInvalid(t *testing.T) {
	s := NewSimulated(1)
	ctx := context.Background()

	_, err := s.FindNearby(ctx, Coordinates{}, 0, DefaultSpecialist, 5)
	assert.ErrorIs(t, err, ErrInvalidRadius)

	_, err = s.FindNearby(ctx, Coordinates{}, 100, DefaultSpecialist, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestNearestCity(t *testing.T) {
	assert.Equal(t, "Kolkata", nearestCity(Coordinates{Lat: 22.6, Lon: 88.4}))
	assert.Equal(t, "Chennai", nearestCity(Coordinates{Lat: 13.0, Lon: 80.3}))
}
