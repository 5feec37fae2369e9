package weather

import (
	"context"
)

// Provider abstracts a weather data source (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Reading, error)
}

// Publisher is the producer side of the data layer the watch listens on.
type Publisher interface {
	PutDataItem(path string, data map[string]any) error
}
