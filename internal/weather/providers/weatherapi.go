package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-watchface/internal/weather"
)

// WeatherAPIProvider implements weather.Provider for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		httpCfg: defaultHTTPConfig(client),
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("days", "1")
	// WeatherAPI uses "q" for location; it accepts "city,country" or "lat,lon".
	if loc.Lat != nil && loc.Lon != nil {
		values.Set("q", fmt.Sprintf("%f,%f", *loc.Lat, *loc.Lon))
	} else {
		q := loc.City
		if loc.Country != "" {
			q = fmt.Sprintf("%s,%s", loc.City, loc.Country)
		}
		values.Set("q", q)
	}

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				DateEpoch int64 `json:"date_epoch"`
				Day       struct {
					MaxTempC  float64 `json:"maxtemp_c"`
					MinTempC  float64 `json:"mintemp_c"`
					Condition struct {
						Text string `json:"text"`
					} `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Reading{}, err
	}
	if len(payload.Forecast.ForecastDay) == 0 {
		return weather.Reading{}, errNoForecast
	}

	today := payload.Forecast.ForecastDay[0]
	ts := time.Now().UTC()
	if today.DateEpoch > 0 {
		ts = time.Unix(today.DateEpoch, 0).UTC()
	}

	return weather.Reading{
		ProviderName: p.name,
		Timestamp:    ts,
		High:         today.Day.MaxTempC,
		Low:          today.Day.MinTempC,
		ConditionID:  mapWeatherAPICondition(today.Day.Condition.Text),
	}, nil
}

// mapWeatherAPICondition translates WeatherAPI condition text to the closest
// OpenWeatherMap condition id. Order matters: "patchy light rain with thunder"
// is a storm, not rain.
func mapWeatherAPICondition(text string) int {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case t == "":
		return 0
	case hasAny(t, "thunder", "storm"):
		return 211
	case hasAny(t, "freezing"):
		return 511
	case hasAny(t, "sleet", "ice pellets"):
		return 611
	case hasAny(t, "blizzard", "heavy snow"):
		return 602
	case hasAny(t, "snow"):
		return 600
	case hasAny(t, "drizzle"):
		return 300
	case hasAny(t, "heavy rain", "torrential"):
		return 502
	case hasAny(t, "shower"):
		return 521
	case hasAny(t, "rain"):
		return 500
	case hasAny(t, "fog"):
		return 741
	case hasAny(t, "mist"):
		return 701
	case hasAny(t, "overcast"):
		return 804
	case hasAny(t, "partly"):
		return 802
	case hasAny(t, "cloud"):
		return 803
	case hasAny(t, "sunny", "clear"):
		return 800
	default:
		return 0
	}
}

// hasAny returns true if s contains any of the substrings.
func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
