package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-watchface/internal/datalayer"
	"github.com/i474232898/weather-watchface/internal/engine"
	"github.com/i474232898/weather-watchface/internal/host"
	"github.com/i474232898/weather-watchface/internal/lifecycle"
	"github.com/i474232898/weather-watchface/internal/weather"
)

var validate = validator.New()

// Deps are the collaborators the routes drive. Hub and Companion are nil
// when weather sync or the companion producer is disabled.
type Deps struct {
	Host      *host.Headless
	Engine    *engine.Engine
	Timezones *lifecycle.TimezoneBroadcaster
	Hub       *datalayer.Hub
	Companion *weather.Service
	Locations []weather.Location
}

// ErrorHandler renders every error as {"error":true,"message":...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/status", func(c *fiber.Ctx) error {
		var status engine.Status
		if err := onEngine(c, d, func() { status = d.Engine.Status() }); err != nil {
			return err
		}
		return c.JSON(status)
	})

	v1.Get("/frame.png", func(c *fiber.Ctx) error {
		f, err := d.Host.LatestFrame()
		if err != nil {
			if errors.Is(err, host.ErrNoFrame) {
				return fiber.NewError(fiber.StatusNotFound, "no frame drawn yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read frame")
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(f.PNG)
	})

	hostGroup := v1.Group("/host")

	hostGroup.Post("/visibility", func(c *fiber.Ctx) error {
		var req struct {
			Visible *bool `json:"visible" validate:"required"`
		}
		if err := bind(c, &req); err != nil {
			return err
		}
		return accepted(c, onEngine(c, d, func() { d.Engine.OnVisibilityChanged(*req.Visible) }))
	})

	hostGroup.Post("/ambient", func(c *fiber.Ctx) error {
		var req struct {
			Ambient *bool `json:"ambient" validate:"required"`
		}
		if err := bind(c, &req); err != nil {
			return err
		}
		return accepted(c, onEngine(c, d, func() { d.Engine.OnAmbientModeChanged(*req.Ambient) }))
	})

	hostGroup.Post("/properties", func(c *fiber.Ctx) error {
		var req struct {
			LowBitAmbient *bool `json:"lowBitAmbient" validate:"required"`
		}
		if err := bind(c, &req); err != nil {
			return err
		}
		props := engine.Properties{LowBitAmbient: *req.LowBitAmbient}
		return accepted(c, onEngine(c, d, func() { d.Engine.OnPropertiesChanged(props) }))
	})

	hostGroup.Post("/insets", func(c *fiber.Ctx) error {
		var req struct {
			Round *bool `json:"round" validate:"required"`
		}
		if err := bind(c, &req); err != nil {
			return err
		}
		insets := engine.Insets{IsRound: *req.Round}
		return accepted(c, onEngine(c, d, func() { d.Engine.OnApplyWindowInsets(insets) }))
	})

	hostGroup.Post("/time-tick", func(c *fiber.Ctx) error {
		return accepted(c, onEngine(c, d, d.Engine.OnTimeTick))
	})

	hostGroup.Post("/timezone", func(c *fiber.Ctx) error {
		var req struct {
			Timezone string `json:"timezone" validate:"required"`
		}
		if err := bind(c, &req); err != nil {
			return err
		}
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unknown timezone "+req.Timezone)
		}
		n := d.Timezones.Broadcast(req.Timezone)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"timezone": req.Timezone, "receivers": n})
	})

	data := v1.Group("/data")

	data.Post("/items", func(c *fiber.Ctx) error {
		if d.Hub == nil {
			return fiber.NewError(fiber.StatusNotFound, "weather sync is disabled")
		}
		var req dataItemsRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		puts := make([]datalayer.Put, 0, len(req.Items))
		for _, it := range req.Items {
			puts = append(puts, datalayer.Put{Path: it.Path, Data: it.Data})
		}
		if err := d.Hub.PutDataItems(puts...); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"items": len(puts)})
	})

	data.Post("/suspend", func(c *fiber.Ctx) error {
		if d.Hub == nil {
			return fiber.NewError(fiber.StatusNotFound, "weather sync is disabled")
		}
		var req struct {
			Cause int `json:"cause" validate:"oneof=1 2"`
		}
		if err := bind(c, &req); err != nil {
			return err
		}
		d.Hub.Suspend(req.Cause)
		return c.SendStatus(fiber.StatusAccepted)
	})

	companion := v1.Group("/companion")

	companion.Get("/latest", func(c *fiber.Ctx) error {
		if d.Companion == nil {
			return fiber.NewError(fiber.StatusNotFound, "companion is disabled")
		}
		r, ok := d.Companion.Last()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no weather published yet")
		}
		return c.JSON(r)
	})

	companion.Post("/sync", func(c *fiber.Ctx) error {
		if d.Companion == nil {
			return fiber.NewError(fiber.StatusNotFound, "companion is disabled")
		}
		if len(d.Locations) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "no locations configured")
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 30*time.Second)
		defer cancel()
		if err := d.Companion.FetchAndPublish(ctx, d.Locations[0]); err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch weather data")
		}
		r, _ := d.Companion.Last()
		return c.JSON(r)
	})
}

type dataItemsRequest struct {
	Items []dataItem `json:"items" validate:"required,min=1,dive"`
}

type dataItem struct {
	Path string         `json:"path" validate:"required,startswith=/"`
	Data map[string]any `json:"data"`
}

func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// onEngine runs fn on the engine's queue.
func onEngine(c *fiber.Ctx, d Deps, fn func()) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()
	if err := d.Host.Do(ctx, fn); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "engine did not respond")
	}
	return nil
}

func accepted(c *fiber.Ctx, err error) error {
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}
