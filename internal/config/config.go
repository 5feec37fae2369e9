package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-watchface/internal/weather"
)

type AppConfig struct {
	Port string

	// Watch face.
	PrefsDir      string
	ResourcesPath string
	AssetsDir     string
	FontPath      string
	FramePath     string
	ScreenWidth   int
	ScreenHeight  int
	ScreenRound   bool
	LowBitAmbient bool
	WeatherSync   bool
	Timezone      string

	// Companion producer.
	CompanionEnabled  bool
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string
	FetchInterval     time.Duration
	HTTPTimeout       time.Duration
	Locations         []weather.Location
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.PrefsDir = getenvDefault("PREFS_PATH", "./data")
	cfg.ResourcesPath = getenvDefault("RESOURCES_PATH", "./resources.toml")
	cfg.AssetsDir = getenvDefault("ASSETS_DIR", "./assets")
	cfg.FontPath = os.Getenv("FONT_PATH")
	cfg.FramePath = os.Getenv("FRAME_PATH")
	cfg.ScreenWidth = getenvInt("SCREEN_WIDTH", 320)
	cfg.ScreenHeight = getenvInt("SCREEN_HEIGHT", 320)
	cfg.ScreenRound = getenvBool("SCREEN_ROUND", false)
	cfg.LowBitAmbient = getenvBool("LOW_BIT_AMBIENT", false)
	cfg.WeatherSync = getenvBool("WEATHER_SYNC", true)
	cfg.Timezone = getenvDefault("TZ_NAME", "Local")

	if cfg.ScreenWidth <= 0 || cfg.ScreenHeight <= 0 {
		return nil, fmt.Errorf("invalid screen size %dx%d", cfg.ScreenWidth, cfg.ScreenHeight)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TZ_NAME: %w", err)
	}

	cfg.CompanionEnabled = getenvBool("COMPANION_ENABLED", false)
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	interval, err := time.ParseDuration(getenvDefault("FETCH_INTERVAL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	locs, err := loadLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// loadLocations pairs comma-separated cities with countries and, when
// given, latitudes with longitudes.
func loadLocations() ([]weather.Location, error) {
	city := os.Getenv("WEATHER_LOCATION_CITY")
	if city == "" {
		return nil, nil
	}
	cities := strings.Split(city, ",")
	countries := strings.Split(os.Getenv("WEATHER_LOCATION_COUNTRY"), ",")
	if len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}

	lats, err := parseFloats(os.Getenv("WEATHER_LOCATION_LAT"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_LOCATION_LAT: %w", err)
	}
	lons, err := parseFloats(os.Getenv("WEATHER_LOCATION_LON"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_LOCATION_LON: %w", err)
	}
	if len(lats) != len(lons) || (len(lats) > 0 && len(lats) != len(cities)) {
		return nil, fmt.Errorf("coordinates must be given for every location or none")
	}

	var locs []weather.Location
	for i := range cities {
		loc := weather.Location{
			City:    strings.TrimSpace(cities[i]),
			Country: strings.TrimSpace(countries[i]),
		}
		if len(lats) > 0 {
			loc.Lat = &lats[i]
			loc.Lon = &lons[i]
		}
		locs = append(locs, loc)
	}

	return locs, nil
}

func parseFloats(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
