// Package engine is the watch face itself: it reacts to host lifecycle
// signals, keeps the redraw timer and subscriptions in step with visibility
// and ambient mode, applies synced weather, and lays out each frame.
//
// Every method must be called on the dispatch queue the engine was built
// with. The engine never starts goroutines of its own.
package engine

import (
	"image"
	"log"
	"time"

	"github.com/i474232898/weather-watchface/internal/assets"
	"github.com/i474232898/weather-watchface/internal/datalayer"
	"github.com/i474232898/weather-watchface/internal/datasync"
	"github.com/i474232898/weather-watchface/internal/dispatch"
	"github.com/i474232898/weather-watchface/internal/lifecycle"
	"github.com/i474232898/weather-watchface/internal/render"
	"github.com/i474232898/weather-watchface/internal/scheduler"
	"github.com/i474232898/weather-watchface/internal/weather"
)

// Host is the surface owner the engine asks for redraws.
type Host interface {
	Invalidate()
}

// Properties are the display capabilities reported by the host.
type Properties struct {
	LowBitAmbient bool
}

// Insets describe the window shape.
type Insets struct {
	IsRound bool
}

// WeatherStore loads and saves the last weather state.
type WeatherStore interface {
	Load() weather.State
	Save(weather.State) error
}

// IconLoader returns the bitmap for an icon.
type IconLoader interface {
	Load(icon weather.Icon) (image.Image, error)
}

// TimezoneSource delivers timezone changes and knows the current one.
type TimezoneSource interface {
	lifecycle.TimezoneSource
	Current() string
}

// Options configures an Engine. DataLayer is the optional weather sync
// capability: when nil the face shows time and date and the last persisted
// weather only.
type Options struct {
	Resources assets.Resources
	Store     WeatherStore
	Icons     IconLoader
	Timezones TimezoneSource
	DataLayer *datalayer.Hub
}

// ClockSnapshot is the time currently on screen.
type ClockSnapshot struct {
	Hour     int
	Minute   int
	Timezone string
}

// Engine is one watch face instance.
type Engine struct {
	queue *dispatch.Queue
	host  Host
	opts  Options

	handler   *dispatch.Handler
	redraw    *scheduler.Redraw
	lifecycle *lifecycle.Controller
	sync      *datasync.Listener
	created   bool

	visible       bool
	ambient       bool
	lowBitAmbient bool
	round         bool
	timeAntiAlias bool

	loc      *time.Location
	snapshot ClockSnapshot
	timeText string
	dateText string

	weather weather.State
	icon    image.Image

	layout  render.Layout
	palette render.Palette
}

// New builds an engine bound to queue. Call OnCreate before anything else.
func New(queue *dispatch.Queue, host Host, opts Options) *Engine {
	return &Engine{queue: queue, host: host, opts: opts}
}

// OnCreate loads persisted weather and resources and prepares the timer
// and subscriptions. Nothing is registered until the face becomes visible.
func (e *Engine) OnCreate() {
	if e.created {
		return
	}
	e.created = true
	e.timeAntiAlias = true
	e.layout = e.opts.Resources.Layout(false)

	palette, err := e.opts.Resources.Palette()
	if err != nil {
		log.Printf("engine: ERROR: %v; using default colours", err)
		palette, _ = assets.DefaultResources().Palette()
	}
	e.palette = palette

	e.weather = e.opts.Store.Load()
	e.loadIcon()

	e.handler = e.queue.Register(e)
	e.redraw = scheduler.NewRedraw(e.handler, e.queue.Clock(), e.shouldTimerBeRunning, e.onTick)

	var data lifecycle.DataChannel
	if hub := e.opts.DataLayer; hub != nil {
		e.sync = datasync.New(func(cb datalayer.ConnectionCallbacks) datasync.Client {
			return hub.NewClient(e.queue.Post, cb)
		}, e.opts.Store, e.onWeather)
		data = e.sync
	}
	e.lifecycle = lifecycle.NewController(e.opts.Timezones, e.onTimezoneBroadcast, data)

	e.setTimezone(e.opts.Timezones.Current())
	e.refreshTime()
	log.Printf("engine: INFO: created (weather sync: %v)", e.sync != nil)
}

// OnDestroy cancels the timer, drops every subscription and releases the
// engine's handler so ticks already in flight are discarded.
func (e *Engine) OnDestroy() {
	if !e.created {
		return
	}
	e.redraw.Stop()
	e.lifecycle.UnregisterAll()
	e.handler.Release()
	e.created = false
	e.visible = false
	e.ambient = false
	log.Printf("engine: INFO: destroyed")
}

// HandleMessage receives timer messages from the dispatch queue.
func (e *Engine) HandleMessage(what int) {
	switch what {
	case scheduler.MsgUpdateTime:
		e.redraw.OnTick()
	}
}

// OnVisibilityChanged registers everything when shown and unregisters it
// when hidden, then re-evaluates the timer. Host signals are ignored while
// the engine is not created.
func (e *Engine) OnVisibilityChanged(visible bool) {
	if !e.created {
		return
	}
	e.visible = visible
	if visible {
		e.lifecycle.RegisterAll()
		// The timezone may have changed while hidden.
		e.setTimezone(e.opts.Timezones.Current())
		e.refreshTime()
	} else {
		e.lifecycle.UnregisterAll()
	}
	e.redraw.Update()
}

// OnAmbientModeChanged switches display mode. An actual change toggles time
// anti-aliasing on low-bit displays and forces a redraw; the timer is
// re-evaluated either way.
func (e *Engine) OnAmbientModeChanged(ambient bool) {
	if !e.created {
		return
	}
	if e.ambient != ambient {
		e.ambient = ambient
		if e.lowBitAmbient {
			e.timeAntiAlias = !ambient
		}
		e.host.Invalidate()
	}
	e.redraw.Update()
}

// OnPropertiesChanged records the display capabilities.
func (e *Engine) OnPropertiesChanged(p Properties) {
	e.lowBitAmbient = p.LowBitAmbient
}

// OnApplyWindowInsets selects the round or square layout.
func (e *Engine) OnApplyWindowInsets(in Insets) {
	e.round = in.IsRound
	e.layout = e.opts.Resources.Layout(in.IsRound)
}

// OnTimeTick refreshes the displayed time and date and redraws.
func (e *Engine) OnTimeTick() {
	if !e.created {
		return
	}
	e.refreshTime()
	e.host.Invalidate()
}

// Frame returns what would be drawn into bounds right now.
func (e *Engine) Frame(bounds image.Rectangle) render.Frame {
	return render.Frame{
		Width:         float64(bounds.Dx()),
		Height:        float64(bounds.Dy()),
		Ambient:       e.ambient,
		TimeAntiAlias: e.timeAntiAlias,
		Time:          e.timeText,
		Date:          e.dateText,
		Weather:       e.weather,
		Icon:          e.icon,
		Layout:        e.layout,
		Palette:       e.palette,
	}
}

// OnDraw lays out the current frame and draws it on c.
func (e *Engine) OnDraw(c render.Canvas, bounds image.Rectangle) []render.Command {
	cmds := render.Compose(e.Frame(bounds), c)
	render.Draw(c, cmds)
	return cmds
}

func (e *Engine) shouldTimerBeRunning() bool {
	return e.visible && !e.ambient
}

func (e *Engine) onTick() {
	e.refreshTime()
	e.host.Invalidate()
}

// onTimezoneBroadcast may run on any goroutine.
func (e *Engine) onTimezoneBroadcast(tz string) {
	e.queue.Post(func() {
		if !e.created || !e.lifecycle.Handles().TimezoneRegistered {
			return
		}
		e.setTimezone(tz)
		e.refreshTime()
		e.host.Invalidate()
	})
}

func (e *Engine) onWeather(state weather.State) {
	e.weather = state
	e.loadIcon()
	e.host.Invalidate()
}

func (e *Engine) setTimezone(tz string) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("engine: ERROR: timezone %q: %v", tz, err)
		if e.loc != nil {
			return
		}
		loc = time.UTC
	}
	e.loc = loc
}

func (e *Engine) refreshTime() {
	now := e.queue.Clock().Now().In(e.loc)
	e.snapshot = ClockSnapshot{Hour: now.Hour(), Minute: now.Minute(), Timezone: e.loc.String()}
	e.timeText = render.FormatTime(now)
	e.dateText = render.FormatDate(now)
}

func (e *Engine) loadIcon() {
	e.icon = nil
	if !e.weather.HasIcon() || e.opts.Icons == nil {
		return
	}
	img, err := e.opts.Icons.Load(e.weather.Icon)
	if err != nil {
		log.Printf("engine: DEBUG: icon %s: %v", e.weather.Icon, err)
		return
	}
	e.icon = img
}
