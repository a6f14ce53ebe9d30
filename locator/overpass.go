package locator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultOverpassURL is the public Overpass interpreter endpoint.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

const (
	unnamedPractice = "Dentist"
	unknownCity     = "Unknown"
)

// Overpass finds practices tagged in OpenStreetMap via the Overpass API.
type Overpass struct {
	client
}

// NewOverpass creates an Overpass finder.
func NewOverpass(opts ...Option) *Overpass {
	return &Overpass{client: newClient(DefaultOverpassURL, opts)}
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *Coordinates      `json:"center"`
	Tags   map[string]string `json:"tags"`
}

func (e overpassElement) position() (Coordinates, bool) {
	if e.Center != nil {
		return *e.Center, true
	}
	if e.Lat != nil && e.Lon != nil {
		return Coordinates{Lat: *e.Lat, Lon: *e.Lon}, true
	}
	return Coordinates{}, false
}

// FindNearby queries nodes, ways and relations carrying the amenity tag for
// specialist within radiusMeters of center.
func (o *Overpass) FindNearby(ctx context.Context, center Coordinates, radiusMeters float64, specialist string, limit int) ([]Specialist, error) {
	if err := validateSearch(radiusMeters, limit); err != nil {
		return nil, err
	}

	form := url.Values{"data": []string{overpassQuery(center, radiusMeters, amenityFor(specialist), limit)}}
	req, err := newRequest(ctx, http.MethodPost, o.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp overpassResponse
	if err := o.do(req, &resp); err != nil {
		return nil, err
	}

	found := make([]Specialist, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		at, ok := el.position()
		if !ok {
			o.logger.Debug("skipping element without position", "type", el.Type, "id", el.ID)
			continue
		}
		name := el.Tags["name"]
		if name == "" {
			name = unnamedPractice
		}
		city := el.Tags["addr:city"]
		if city == "" {
			city = unknownCity
		}
		found = append(found, Specialist{
			Name:       name,
			City:       city,
			DistanceKm: roundKm(Distance(center, at)),
		})
	}

	sortByDistance(found)
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func overpassQuery(center Coordinates, radiusMeters float64, amenity string, limit int) string {
	around := fmt.Sprintf("(around:%.0f,%f,%f)", radiusMeters, center.Lat, center.Lon)
	filter := fmt.Sprintf(`["amenity"=%q]`, amenity)

	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	for _, kind := range []string{"node", "way", "rel"} {
		fmt.Fprintf(&b, "  %s%s%s;\n", kind, filter, around)
	}
	fmt.Fprintf(&b, ");\nout center %d;\n", limit)
	return b.String()
}

// amenityFor maps a specialist kind to an OpenStreetMap amenity value. Dental
// specialities are tagged as dentists.
func amenityFor(specialist string) string {
	s := strings.ToLower(strings.TrimSpace(specialist))
	switch {
	case s == "":
		return DefaultSpecialist
	case strings.Contains(s, "dent"), strings.Contains(s, "dontist"), strings.HasPrefix(s, "oral"):
		return "dentist"
	}
	return strings.Join(strings.Fields(s), "_")
}
