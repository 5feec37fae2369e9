package providers

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-watchface/internal/weather"
)

var errNoGeocoderKey = errors.New("geocoder api key is not configured")

// Geocoder resolves city/country locations to coordinates with the Google
// Geocoding API and caches the result per location.
type Geocoder struct {
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)

	mu    sync.Mutex
	cache map[string]weather.Location
}

// NewGeocoder returns nil when apiKey is empty so callers can pass the result
// straight to NewOpenMeteoProvider.
func NewGeocoder(apiKey string) *Geocoder {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &Geocoder{
		apiKey: apiKey,
		lookup: geocoder.Geocoding,
		cache:  make(map[string]weather.Location),
	}
}

// Resolve fills in Lat/Lon for loc.
func (g *Geocoder) Resolve(loc weather.Location) (weather.Location, error) {
	if loc.Lat != nil && loc.Lon != nil {
		return loc, nil
	}
	if g == nil || g.apiKey == "" {
		return loc, errNoGeocoderKey
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if cached, ok := g.cache[loc.Key()]; ok {
		return cached, nil
	}

	// The library reads its key from a package variable.
	geocoder.ApiKey = g.apiKey
	found, err := g.lookup(geocoder.Address{City: loc.City, Country: loc.Country})
	if err != nil {
		return loc, fmt.Errorf("geocode %s: %w", loc.Key(), err)
	}

	lat, lon := found.Latitude, found.Longitude
	loc.Lat = &lat
	loc.Lon = &lon
	g.cache[loc.Key()] = loc
	return loc, nil
}
