package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-watchface/internal/api/http"
	"github.com/i474232898/weather-watchface/internal/app"
	"github.com/i474232898/weather-watchface/internal/config"
	"github.com/i474232898/weather-watchface/internal/scheduler"
	"github.com/i474232898/weather-watchface/internal/weather"
	"github.com/i474232898/weather-watchface/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Watch face engine on its own callback queue.
	face, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("failed to build watch face: %v", err)
	}
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	if err := face.Start(runCtx); err != nil {
		log.Fatalf("failed to start watch face: %v", err)
	}

	// Host time tick, once a minute.
	jobs := scheduler.NewJobs(nil)
	err = jobs.TimeTick(func() {
		tickCtx, cancel := context.WithTimeout(runCtx, 5*time.Second)
		defer cancel()
		if err := face.Host.Do(tickCtx, face.Engine.OnTimeTick); err != nil {
			log.Printf("time tick: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("failed to schedule time tick: %v", err)
	}

	// Companion producer publishing to the in-process data layer.
	var companion *weather.Service
	if cfg.CompanionEnabled && face.Hub != nil {
		httpClient := &http.Client{
			Timeout: cfg.HTTPTimeout,
		}

		// Providers with resilience (backoff + circuit breaker).
		var provs []weather.Provider
		if cfg.OpenWeatherAPIKey != "" {
			provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey))
		}
		if cfg.WeatherAPIKey != "" {
			provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
		}
		// Open-Meteo needs no key; the geocoder fills in missing coordinates.
		provs = append(provs, providers.NewOpenMeteoProvider(httpClient, providers.NewGeocoder(cfg.GeocoderAPIKey)))

		companion = weather.NewService(face.Hub, provs)
		if err := jobs.CompanionSync(companion, cfg.Locations, cfg.FetchInterval); err != nil {
			log.Fatalf("failed to schedule companion sync: %v", err)
		}
	} else if cfg.CompanionEnabled {
		log.Printf("INFO: companion enabled but weather sync is off; not starting it")
	}

	jobs.Start()
	defer jobs.Stop()

	srv := fiber.New(fiber.Config{
		AppName:               "weather-watchface",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	srv.Use(logger.New())
	srv.Use(recover.New())

	// Basic health endpoint
	srv.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-watchface",
		})
	})

	httpapi.RegisterRoutes(srv, httpapi.Deps{
		Host:      face.Host,
		Engine:    face.Engine,
		Timezones: face.Timezones,
		Hub:       face.Hub,
		Companion: companion,
		Locations: cfg.Locations,
	})

	go func() {
		if err := srv.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	if err := face.Stop(shutdownCtx); err != nil {
		log.Printf("error destroying watch face: %v", err)
	}
}
