// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package locator resolves free-text addresses to coordinates and finds
// nearby specialists around them.
//
// Three implementations are provided: Simulated, a deterministic offline
// provider for demos and tests, and the Nominatim and Overpass HTTP clients
// for live OpenStreetMap data.
package locator

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("location not found")
	ErrInvalidRadius = errors.New("radius must be positive")
	ErrInvalidLimit  = errors.New("limit must be positive")
	ErrRequestFailed = errors.New("lookup request failed")
)

// Default search parameters used when callers have no preference.
const (
	DefaultRadiusMeters = 5000
	DefaultLimit        = 5
	DefaultSpecialist   = "dentist"
)

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Specialist is a practice found near a query location.
type Specialist struct {
	Name       string  `json:"name"`
	City       string  `json:"city"`
	DistanceKm float64 `json:"distance_km"`
}

// Geocoder resolves an address. A miss is reported as ErrNotFound.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Coordinates, error)
}

// SpecialistFinder lists practices of the given kind within radiusMeters of
// center, closest first, at most limit entries.
type SpecialistFinder interface {
	FindNearby(ctx context.Context, center Coordinates, radiusMeters float64, specialist string, limit int) ([]Specialist, error)
}

func validateSearch(radiusMeters float64, limit int) error {
	if radiusMeters <= 0 {
		return ErrInvalidRadius
	}
	if limit <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
