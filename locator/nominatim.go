package locator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultNominatimURL is the public OpenStreetMap geocoder.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim geocodes addresses with the Nominatim search API.
type Nominatim struct {
	client
}

// NewNominatim creates a Nominatim geocoder.
func NewNominatim(opts ...Option) *Nominatim {
	return &Nominatim{client: newClient(DefaultNominatimURL, opts)}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the coordinates of the best match for address.
func (n *Nominatim) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, ErrNotFound
	}

	params := url.Values{
		"q":               []string{trimmed},
		"format":          []string{"jsonv2"},
		"limit":           []string{"1"},
		"accept-language": []string{"en"},
	}
	req, err := newRequest(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := n.do(req, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, trimmed)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude %q", ErrRequestFailed, places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude %q", ErrRequestFailed, places[0].Lon)
	}

	n.logger.Debug("geocoded address", "address", trimmed, "match", places[0].DisplayName)
	return &Coordinates{Lat: lat, Lon: lon}, nil
}
