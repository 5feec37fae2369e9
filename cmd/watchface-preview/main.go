package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/i474232898/weather-watchface/internal/app"
	"github.com/i474232898/weather-watchface/internal/config"
	"github.com/i474232898/weather-watchface/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// Preview drives visibility from the keyboard and needs the data layer
	// for pushed weather.
	cfg.WeatherSync = true

	// Log lines would tear the alternate screen.
	if path := os.Getenv("PREVIEW_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("open log: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	face, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("failed to build watch face: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := face.Start(ctx); err != nil {
		log.Fatalf("failed to start watch face: %v", err)
	}

	err = tui.Run(tui.Options{
		Context:   ctx,
		Host:      face.Host,
		Engine:    face.Engine,
		Hub:       face.Hub,
		Timezones: face.Timezones,
	})
	if stopErr := face.Stop(ctx); stopErr != nil {
		log.Printf("error destroying watch face: %v", stopErr)
	}
	if err != nil {
		// log output may be discarded
		os.Stderr.WriteString("preview: " + err.Error() + "\n")
		os.Exit(1)
	}
}
