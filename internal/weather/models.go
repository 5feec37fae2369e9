package weather

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Location represents a logical place for which the companion fetches weather.
// City/Country identify it; Lat/Lon are required by coordinate-only providers.
type Location struct {
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// Key returns a canonical string key for logging and caching.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// Reading is one provider's view of today's weather, in the units the watch
// consumes: Celsius high/low and an OpenWeatherMap condition id.
type Reading struct {
	ProviderName string    `json:"provider,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	ConditionID  int       `json:"id"`
}

// State is the last weather the watch face knows about.
type State struct {
	ConditionCode int  `json:"conditionCode"`
	High          int  `json:"high"`
	Low           int  `json:"low"`
	Icon          Icon `json:"icon"`
}

// NewState rounds the reading's temperatures and resolves its icon.
func NewState(r Reading) State {
	return State{
		ConditionCode: r.ConditionID,
		High:          RoundHalfUp(r.High),
		Low:           RoundHalfUp(r.Low),
		Icon:          IconForCode(r.ConditionID),
	}
}

// Summary is the "high/low" text drawn next to the icon and persisted.
func (s State) Summary() string {
	return fmt.Sprintf("%d/%d", s.High, s.Low)
}

// HasIcon reports whether the state resolves to a drawable icon.
func (s State) HasIcon() bool {
	return s.Icon != "" && s.Icon != IconNone
}

// ParseSummary reverses Summary.
func ParseSummary(summary string) (high, low int, err error) {
	parts := strings.Split(strings.TrimSpace(summary), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("summary %q: want <high>/<low>", summary)
	}
	high, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("summary %q high: %w", summary, err)
	}
	low, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("summary %q low: %w", summary, err)
	}
	return high, low, nil
}

// RoundHalfUp rounds to the nearest integer with halves going towards
// positive infinity (29.5 -> 30, -14.5 -> -14). Results are clamped to the
// int32 range and NaN rounds to 0.
func RoundHalfUp(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	f := math.Floor(v)
	if v-f >= 0.5 {
		f++
	}
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}
