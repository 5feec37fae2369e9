package engine

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/i474232898/weather-watchface/internal/assets"
	"github.com/i474232898/weather-watchface/internal/clock"
	"github.com/i474232898/weather-watchface/internal/datalayer"
	"github.com/i474232898/weather-watchface/internal/datasync"
	"github.com/i474232898/weather-watchface/internal/dispatch"
	"github.com/i474232898/weather-watchface/internal/lifecycle"
	"github.com/i474232898/weather-watchface/internal/render"
	"github.com/i474232898/weather-watchface/internal/store"
	"github.com/i474232898/weather-watchface/internal/weather"
)

type countingHost struct {
	invalidations int
}

func (h *countingHost) Invalidate() { h.invalidations++ }

type rig struct {
	clk   *clock.Fake
	queue *dispatch.Queue
	host  *countingHost
	hub   *datalayer.Hub
	tz    *lifecycle.TimezoneBroadcaster
	prefs *store.MemoryPrefs
	e     *Engine
}

// Wednesday 8 January 2025, 09:05:00.250 UTC.
var start = time.Date(2025, time.January, 8, 9, 5, 0, 250_000_000, time.UTC)

func newRig(t *testing.T, withSync bool) *rig {
	t.Helper()
	r := &rig{
		clk:   clock.NewFake(start),
		host:  &countingHost{},
		tz:    lifecycle.NewTimezoneBroadcaster("UTC"),
		prefs: store.NewMemoryPrefs(),
	}
	r.queue = dispatch.NewQueue(r.clk)

	iconDir := t.TempDir()
	if err := assets.WriteDefaultIcons(iconDir, 40); err != nil {
		t.Fatalf("WriteDefaultIcons: %v", err)
	}
	opts := Options{
		Resources: assets.DefaultResources(),
		Store:     store.NewWeatherStore(r.prefs),
		Icons:     assets.NewIcons(iconDir, 1.2),
		Timezones: r.tz,
	}
	if withSync {
		r.hub = datalayer.NewHub()
		opts.DataLayer = r.hub
	}
	r.e = New(r.queue, r.host, opts)
	r.e.OnCreate()
	return r
}

func TestTimeTickFormatsTimeAndDate(t *testing.T) {
	r := newRig(t, false)
	r.e.OnTimeTick()

	s := r.e.Status()
	if s.Time != "9:05" || s.Date != "Wed, Jan 8, '25" {
		t.Fatalf("time=%q date=%q, want 9:05 and Wed, Jan 8, '25", s.Time, s.Date)
	}
	if s.Clock != (ClockSnapshot{Hour: 9, Minute: 5, Timezone: "UTC"}) {
		t.Fatalf("clock = %+v", s.Clock)
	}
	if r.host.invalidations != 1 {
		t.Fatalf("invalidations = %d, want 1", r.host.invalidations)
	}
}

func TestAmbientStopsTimerAndRedrawsOnce(t *testing.T) {
	r := newRig(t, false)
	r.e.OnPropertiesChanged(Properties{LowBitAmbient: true})
	r.e.OnVisibilityChanged(true)
	if !r.e.Status().TickPending {
		t.Fatalf("no tick armed while visible and interactive")
	}
	r.queue.RunPending()
	if r.host.invalidations != 1 {
		t.Fatalf("invalidations after first tick = %d, want 1", r.host.invalidations)
	}
	if deadline, ok := r.clk.NextDeadline(); !ok || deadline.Sub(start) != 750*time.Millisecond {
		t.Fatalf("next tick at %v (armed=%v), want start+750ms", deadline, ok)
	}

	r.e.OnAmbientModeChanged(true)
	s := r.e.Status()
	if s.TickPending || r.clk.Pending() != 0 {
		t.Fatalf("timer still armed in ambient mode")
	}
	if r.host.invalidations != 2 {
		t.Fatalf("invalidations = %d, want 2", r.host.invalidations)
	}
	if s.TimeAntiAlias {
		t.Fatalf("time anti-alias still on in low-bit ambient")
	}

	r.clk.Advance(3 * time.Second)
	r.queue.RunPending()
	if r.host.invalidations != 2 {
		t.Fatalf("ticks continued in ambient mode")
	}

	r.e.OnAmbientModeChanged(false)
	if !r.e.Status().TimeAntiAlias || !r.e.Status().TickPending {
		t.Fatalf("leaving ambient did not restore anti-alias and the timer")
	}
}

func TestAmbientWithoutLowBitKeepsAntiAlias(t *testing.T) {
	r := newRig(t, false)
	r.e.OnAmbientModeChanged(true)
	if !r.e.Status().TimeAntiAlias {
		t.Fatalf("anti-alias disabled without low-bit ambient")
	}
}

func TestRepeatedAmbientSignalDoesNotRedraw(t *testing.T) {
	r := newRig(t, false)
	r.e.OnAmbientModeChanged(false)
	if r.host.invalidations != 0 {
		t.Fatalf("unchanged mode invalidated %d times", r.host.invalidations)
	}
}

func TestTimerRunsOnlyWhenVisibleAndInteractive(t *testing.T) {
	tests := []struct {
		visible, ambient bool
	}{
		{false, false}, {false, true}, {true, false}, {true, true},
	}
	for _, tt := range tests {
		r := newRig(t, false)
		r.e.OnAmbientModeChanged(tt.ambient)
		r.e.OnVisibilityChanged(tt.visible)
		want := tt.visible && !tt.ambient
		if got := r.e.Status().TickPending; got != want {
			t.Fatalf("visible=%v ambient=%v: TickPending = %v, want %v", tt.visible, tt.ambient, got, want)
		}
	}
}

func TestInboundWeatherIsAppliedAndPersisted(t *testing.T) {
	r := newRig(t, true)
	r.e.OnVisibilityChanged(true)
	r.queue.RunPending()
	if r.e.SyncState() != datasync.Connected {
		t.Fatalf("sync state = %s, want connected", r.e.SyncState())
	}
	before := r.host.invalidations

	err := r.hub.PutDataItems(
		datalayer.Put{Path: "/SOMETHING_ELSE", Data: map[string]any{"x": 1}},
		datalayer.Put{Path: weather.DataPath, Data: map[string]any{
			weather.KeyHigh: 29.6, weather.KeyLow: 14.2, weather.KeyID: int64(500),
		}},
	)
	if err != nil {
		t.Fatalf("PutDataItems: %v", err)
	}
	r.queue.RunPending()

	s := r.e.Status()
	want := weather.State{ConditionCode: 500, High: 30, Low: 14, Icon: weather.IconRain}
	if s.Weather != want {
		t.Fatalf("weather = %+v, want %+v", s.Weather, want)
	}
	if !s.IconLoaded {
		t.Fatalf("rain icon not loaded")
	}
	if r.host.invalidations != before+1 {
		t.Fatalf("invalidations = %d, want %d", r.host.invalidations, before+1)
	}
	if got := r.prefs.String(store.KeyWeather, ""); got != "30/14" {
		t.Fatalf("KEY_WEATHER = %q, want 30/14", got)
	}
	if got := r.prefs.Int(store.KeyWeatherID, 0); got != 500 {
		t.Fatalf("KEY_WEATHER_ID = %d, want 500", got)
	}

	cmds := r.e.OnDraw(fakeCanvas{}, image.Rect(0, 0, 320, 320))
	if len(cmds) != 5 {
		t.Fatalf("drew %d commands, want 5 with the weather block", len(cmds))
	}
}

func TestVisibilityRegistersSubscriptionsOnce(t *testing.T) {
	r := newRig(t, true)
	r.e.OnVisibilityChanged(true)
	r.e.OnVisibilityChanged(true)
	r.queue.RunPending()

	want := lifecycle.Handles{TimezoneRegistered: true, DataChannelConnected: true}
	if got := r.e.Status().Subscriptions; got != want {
		t.Fatalf("subscriptions = %+v, want %+v", got, want)
	}
	if n := r.tz.Subscribers(); n != 1 {
		t.Fatalf("timezone subscribers = %d, want 1", n)
	}

	r.e.OnVisibilityChanged(false)
	r.e.OnVisibilityChanged(false)
	if got := r.e.Status().Subscriptions; got != (lifecycle.Handles{}) {
		t.Fatalf("subscriptions after hide = %+v", got)
	}
	if r.tz.Subscribers() != 0 || r.e.SyncState() != datasync.Disconnected {
		t.Fatalf("subscriptions left behind: tz=%d sync=%s", r.tz.Subscribers(), r.e.SyncState())
	}
}

func TestTimezoneChangeRecomputesTime(t *testing.T) {
	r := newRig(t, false)
	r.e.OnVisibilityChanged(true)
	r.queue.RunPending()

	r.tz.Broadcast("Asia/Tokyo")
	r.queue.RunPending()
	s := r.e.Status()
	if s.Time != "18:05" || s.Clock.Timezone != "Asia/Tokyo" {
		t.Fatalf("time=%q tz=%q, want 18:05 Asia/Tokyo", s.Time, s.Clock.Timezone)
	}

	// Changes while hidden are picked up on the next show.
	r.e.OnVisibilityChanged(false)
	r.tz.Broadcast("America/New_York")
	r.queue.RunPending()
	if got := r.e.Status().Clock.Timezone; got != "Asia/Tokyo" {
		t.Fatalf("hidden engine applied timezone %q", got)
	}
	r.e.OnVisibilityChanged(true)
	if got := r.e.Status().Time; got != "4:05" {
		t.Fatalf("time after show = %q, want 4:05", got)
	}
}

func TestInvalidTimezoneKeepsCurrent(t *testing.T) {
	r := newRig(t, false)
	r.e.OnVisibilityChanged(true)
	r.tz.Broadcast("Not/AZone")
	r.queue.RunPending()
	if got := r.e.Status().Clock.Timezone; got != "UTC" {
		t.Fatalf("timezone = %q, want UTC", got)
	}
}

func TestPersistedWeatherLoadsOnCreate(t *testing.T) {
	prefs := store.NewMemoryPrefs()
	saved := weather.State{ConditionCode: 801, High: 22, Low: 12, Icon: weather.IconLightClouds}
	if err := store.NewWeatherStore(prefs).Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}
	q := dispatch.NewQueue(clock.NewFake(start))
	e := New(q, &countingHost{}, Options{
		Resources: assets.DefaultResources(),
		Store:     store.NewWeatherStore(prefs),
		Timezones: lifecycle.NewTimezoneBroadcaster("UTC"),
	})
	e.OnCreate()
	if got := e.Status().Weather; got != saved {
		t.Fatalf("weather = %+v, want %+v", got, saved)
	}
	if e.Status().IconLoaded {
		t.Fatalf("icon loaded without an icon source")
	}
}

func TestDestroyDropsPendingTicks(t *testing.T) {
	r := newRig(t, true)
	r.e.OnVisibilityChanged(true)
	r.e.OnDestroy()
	r.queue.RunPending()
	r.clk.Advance(5 * time.Second)
	r.queue.RunPending()

	if r.host.invalidations != 0 {
		t.Fatalf("destroyed engine invalidated %d times", r.host.invalidations)
	}
	if r.tz.Subscribers() != 0 {
		t.Fatalf("destroyed engine still subscribed")
	}
	if r.e.Status().Created {
		t.Fatalf("Created = true after destroy")
	}
	r.e.OnDestroy()
}

func TestSignalsBeforeCreateAreIgnored(t *testing.T) {
	clk := clock.NewFake(start)
	queue := dispatch.NewQueue(clk)
	h := &countingHost{}
	tz := lifecycle.NewTimezoneBroadcaster("UTC")
	e := New(queue, h, Options{
		Resources: assets.DefaultResources(),
		Store:     store.NewWeatherStore(store.NewMemoryPrefs()),
		Timezones: tz,
	})

	e.OnVisibilityChanged(true)
	e.OnAmbientModeChanged(true)
	e.OnTimeTick()
	queue.RunPending()

	s := e.Status()
	if s.Visible || s.Ambient || h.invalidations != 0 || tz.Subscribers() != 0 {
		t.Fatalf("status = %+v, invalidations = %d, subscribers = %d", s, h.invalidations, tz.Subscribers())
	}
}

func TestRecreateAfterDestroyStartsHiddenAndInteractive(t *testing.T) {
	r := newRig(t, false)
	r.e.OnVisibilityChanged(true)
	r.e.OnAmbientModeChanged(true)
	r.e.OnDestroy()

	r.e.OnCreate()
	s := r.e.Status()
	if s.Visible || s.Ambient || s.TickPending {
		t.Fatalf("status after re-create = %+v, want hidden, interactive, no tick", s)
	}
	if s.Subscriptions.TimezoneRegistered {
		t.Fatalf("timezone registered after re-create")
	}

	r.e.OnVisibilityChanged(true)
	if !r.e.Status().TickPending {
		t.Fatalf("no tick pending after showing re-created engine")
	}
}

func TestWithoutSyncOnlyTimezoneIsManaged(t *testing.T) {
	r := newRig(t, false)
	r.e.OnVisibilityChanged(true)
	s := r.e.Status()
	if s.Sync != nil {
		t.Fatalf("Sync = %+v, want nil", s.Sync)
	}
	if want := (lifecycle.Handles{TimezoneRegistered: true}); s.Subscriptions != want {
		t.Fatalf("subscriptions = %+v, want %+v", s.Subscriptions, want)
	}
}

func TestInsetsSelectLayout(t *testing.T) {
	r := newRig(t, false)
	r.e.OnApplyWindowInsets(Insets{IsRound: true})
	f := r.e.Frame(image.Rect(0, 0, 320, 320))
	if f.Layout != assets.DefaultResources().Layout(true) {
		t.Fatalf("layout = %+v, want round", f.Layout)
	}
	r.e.OnApplyWindowInsets(Insets{IsRound: false})
	if f := r.e.Frame(image.Rect(0, 0, 320, 320)); f.Layout != assets.DefaultResources().Layout(false) {
		t.Fatalf("layout = %+v, want square", f.Layout)
	}
}

type fakeCanvas struct{}

func (fakeCanvas) MeasureText(text string, size float64) float64                 { return float64(len(text)) * size / 2 }
func (fakeCanvas) Fill(color.Color)                                              {}
func (fakeCanvas) FillRect(x, y, w, h float64, c color.Color)                    {}
func (fakeCanvas) DrawText(string, float64, float64, float64, color.Color, bool) {}
func (fakeCanvas) DrawBitmap(image.Image, float64, float64)                      {}

var _ render.Canvas = fakeCanvas{}
