package store

import (
	"fmt"
	"log"

	"github.com/i474232898/weather-watchface/internal/weather"
)

// Namespace and keys of the persisted weather state.
const (
	Namespace    = "PREFERENCES"
	KeyWeather   = "KEY_WEATHER"
	KeyWeatherID = "KEY_WEATHER_ID"
)

// WeatherStore keeps the last weather state in a Prefs namespace.
type WeatherStore struct {
	prefs Prefs
}

// NewWeatherStore wraps prefs.
func NewWeatherStore(prefs Prefs) *WeatherStore {
	return &WeatherStore{prefs: prefs}
}

// Load returns the persisted state. Missing keys read as zero values, and a
// summary that does not parse leaves both temperatures at zero.
func (s *WeatherStore) Load() weather.State {
	code := s.prefs.Int(KeyWeatherID, 0)
	state := weather.State{
		ConditionCode: code,
		Icon:          weather.IconForCode(code),
	}

	summary := s.prefs.String(KeyWeather, "")
	if summary == "" {
		return state
	}
	high, low, err := weather.ParseSummary(summary)
	if err != nil {
		log.Printf("store: DEBUG: ignoring stored summary: %v", err)
		return state
	}
	state.High = high
	state.Low = low
	return state
}

// Save writes the summary and condition code in one commit.
func (s *WeatherStore) Save(state weather.State) error {
	err := s.prefs.Edit().
		PutString(KeyWeather, state.Summary()).
		PutInt(KeyWeatherID, state.ConditionCode).
		Commit()
	if err != nil {
		return fmt.Errorf("save weather state: %w", err)
	}
	return nil
}
