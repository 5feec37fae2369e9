// Package app assembles the watch face runtime shared by the server and
// the terminal preview.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/i474232898/weather-watchface/internal/assets"
	"github.com/i474232898/weather-watchface/internal/config"
	"github.com/i474232898/weather-watchface/internal/datalayer"
	"github.com/i474232898/weather-watchface/internal/dispatch"
	"github.com/i474232898/weather-watchface/internal/engine"
	"github.com/i474232898/weather-watchface/internal/host"
	"github.com/i474232898/weather-watchface/internal/lifecycle"
	"github.com/i474232898/weather-watchface/internal/render"
	"github.com/i474232898/weather-watchface/internal/store"
)

// App is a wired but not yet running watch face.
type App struct {
	Config    *config.AppConfig
	Queue     *dispatch.Queue
	Host      *host.Headless
	Engine    *engine.Engine
	Hub       *datalayer.Hub
	Timezones *lifecycle.TimezoneBroadcaster
	Prefs     *store.FilePrefs
}

// Build opens storage and assets and wires the engine to a headless host.
// Hub is nil when weather sync is disabled.
func Build(cfg *config.AppConfig) (*App, error) {
	prefs, err := store.OpenFilePrefs(cfg.PrefsDir, store.Namespace)
	if err != nil {
		return nil, fmt.Errorf("open prefs: %w", err)
	}

	res, err := assets.LoadResources(cfg.ResourcesPath)
	if err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}
	if cfg.FontPath != "" {
		res.Font = cfg.FontPath
	}

	if err := assets.WriteDefaultIcons(cfg.AssetsDir, 48); err != nil {
		return nil, fmt.Errorf("write icons: %w", err)
	}

	canvas, err := render.NewGGCanvas(cfg.ScreenWidth, cfg.ScreenHeight, res.Font)
	if err != nil {
		return nil, fmt.Errorf("canvas: %w", err)
	}

	a := &App{
		Config:    cfg,
		Queue:     dispatch.NewQueue(nil),
		Timezones: lifecycle.NewTimezoneBroadcaster(cfg.Timezone),
		Prefs:     prefs,
	}
	if cfg.WeatherSync {
		a.Hub = datalayer.NewHub()
	}
	a.Host = host.NewHeadless(a.Queue, canvas, cfg.FramePath)

	opts := engine.Options{
		Resources: res,
		Store:     store.NewWeatherStore(prefs),
		Icons:     assets.NewIcons(cfg.AssetsDir, res.Icons.Scale),
		Timezones: a.Timezones,
		DataLayer: a.Hub,
	}
	a.Engine = engine.New(a.Queue, a.Host, opts)
	a.Host.Attach(a.Engine)

	log.Printf("app: INFO: prefs at %s, screen %dx%d round=%v", prefs.Path(), cfg.ScreenWidth, cfg.ScreenHeight, cfg.ScreenRound)
	return a, nil
}

// Start runs the queue in the background and brings the face up visible
// with the configured display properties. The queue stops with ctx.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.Host.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("app: ERROR: queue stopped: %v", err)
		}
	}()

	cfg := a.Config
	return a.Host.Do(ctx, func() {
		a.Engine.OnCreate()
		a.Engine.OnPropertiesChanged(engine.Properties{LowBitAmbient: cfg.LowBitAmbient})
		a.Engine.OnApplyWindowInsets(engine.Insets{IsRound: cfg.ScreenRound})
		a.Engine.OnVisibilityChanged(true)
	})
}

// Stop destroys the engine. ctx bounds the wait for the queue.
func (a *App) Stop(ctx context.Context) error {
	return a.Host.Do(ctx, a.Engine.OnDestroy)
}
