package locator

import (
	"cmp"
	"context"
	"encoding/binary"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

type city struct {
	name   string
	center Coordinates
}

var simulatedCities = []city{
	{"Delhi", Coordinates{Lat: 28.6139, Lon: 77.2090}},
	{"Mumbai", Coordinates{Lat: 19.0760, Lon: 72.8777}},
	{"Kolkata", Coordinates{Lat: 22.5726, Lon: 88.3639}},
	{"Bangalore", Coordinates{Lat: 12.9716, Lon: 77.5946}},
	{"Chennai", Coordinates{Lat: 13.0827, Lon: 80.2707}},
}

var simulatedClinics = []string{
	"Smile Care Dental",
	"Happy Teeth Clinic",
	"Bright Smile Dental",
	"Pearl Dental Care",
	"Oral Health Center",
	"Tooth Fairy Clinic",
}

// maxOffsetDegrees bounds how far a simulated clinic lies from the centre on
// each axis.
const maxOffsetDegrees = 0.01

// Simulated is an offline Geocoder and SpecialistFinder. Results depend only
// on the seed and the arguments, so repeated calls return identical answers.
type Simulated struct {
	seed uint64
}

// NewSimulated creates a simulated locator.
func NewSimulated(seed uint64) *Simulated {
	return &Simulated{seed: seed}
}

// Geocode resolves addresses that name a known city to that city's centre.
// Any other non-blank address maps to a pseudo-random known city.
func (s *Simulated) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized := strings.ToLower(strings.TrimSpace(address))
	if normalized == "" {
		return nil, ErrNotFound
	}

	for _, c := range simulatedCities {
		if strings.Contains(normalized, strings.ToLower(c.name)) {
			center := c.center
			return &center, nil
		}
	}

	rng := s.rand(normalized)
	center := simulatedCities[rng.IntN(len(simulatedCities))].center
	return &center, nil
}

// FindNearby places limit clinics around center and keeps those within
// radiusMeters, closest first.
func (s *Simulated) FindNearby(ctx context.Context, center Coordinates, radiusMeters float64, specialist string, limit int) ([]Specialist, error) {
	if err := validateSearch(radiusMeters, limit); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := s.rand(strings.ToLower(specialist),
		math.Float64bits(center.Lat), math.Float64bits(center.Lon))
	cityName := nearestCity(center)
	radiusKm := radiusMeters / 1000

	found := make([]Specialist, 0, limit)
	for range limit {
		name := simulatedClinics[rng.IntN(len(simulatedClinics))]
		at := Coordinates{
			Lat: center.Lat + offset(rng),
			Lon: center.Lon + offset(rng),
		}
		km := Distance(center, at)
		if km > radiusKm {
			continue
		}
		found = append(found, Specialist{Name: name, City: cityName, DistanceKm: roundKm(km)})
	}

	sortByDistance(found)
	return found, nil
}

func (s *Simulated) rand(key string, extra ...uint64) *rand.Rand {
	h, _ := blake2b.New(16, nil)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], s.seed)
	h.Write(buf[:])
	for _, v := range extra {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	h.Write([]byte(key))
	sum := h.Sum(nil)
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(sum[:8]),
		binary.LittleEndian.Uint64(sum[8:]),
	))
}

func offset(rng *rand.Rand) float64 {
	return (rng.Float64()*2 - 1) * maxOffsetDegrees
}

func nearestCity(at Coordinates) string {
	best := simulatedCities[0]
	bestKm := Distance(at, best.center)
	for _, c := range simulatedCities[1:] {
		if km := Distance(at, c.center); km < bestKm {
			best, bestKm = c, km
		}
	}
	return best.name
}

// sortByDistance orders closest first; equal distances keep name order.
func sortByDistance(specialists []Specialist) {
	slices.SortStableFunc(specialists, func(a, b Specialist) int {
		return cmp.Or(
			cmp.Compare(a.DistanceKm, b.DistanceKm),
			strings.Compare(a.Name, b.Name),
		)
	})
}
