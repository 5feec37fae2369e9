package datasync

import (
	"errors"
	"testing"

	"github.com/i474232898/weather-watchface/internal/datalayer"
	"github.com/i474232898/weather-watchface/internal/store"
	"github.com/i474232898/weather-watchface/internal/weather"
)

type harness struct {
	hub     *datalayer.Hub
	tasks   []func()
	store   *store.WeatherStore
	prefs   *store.MemoryPrefs
	updates []weather.State
	l       *Listener
}

func newHarness() *harness {
	h := &harness{hub: datalayer.NewHub(), prefs: store.NewMemoryPrefs()}
	h.store = store.NewWeatherStore(h.prefs)
	h.l = New(func(cb datalayer.ConnectionCallbacks) Client {
		return h.hub.NewClient(func(fn func()) { h.tasks = append(h.tasks, fn) }, cb)
	}, h.store, func(s weather.State) { h.updates = append(h.updates, s) })
	return h
}

func (h *harness) drain() {
	for len(h.tasks) > 0 {
		fn := h.tasks[0]
		h.tasks = h.tasks[1:]
		fn()
	}
}

func (h *harness) connect(t *testing.T) {
	t.Helper()
	h.l.Connect()
	if h.l.State() != Connecting {
		t.Fatalf("State after Connect = %s, want connecting", h.l.State())
	}
	h.drain()
	if h.l.State() != Connected {
		t.Fatalf("State after handshake = %s, want connected", h.l.State())
	}
}

func TestAppliesWeatherAndIgnoresOtherPaths(t *testing.T) {
	h := newHarness()
	h.connect(t)

	err := h.hub.PutDataItems(
		datalayer.Put{Path: "/OTHER_PATH", Data: map[string]any{
			weather.KeyHigh: 1.0, weather.KeyLow: 0.0, weather.KeyID: int64(800),
		}},
		datalayer.Put{Path: weather.DataPath, Data: map[string]any{
			weather.KeyHigh: 29.6, weather.KeyLow: 14.2, weather.KeyID: int64(500),
		}},
	)
	if err != nil {
		t.Fatalf("PutDataItems: %v", err)
	}
	h.drain()

	want := weather.State{ConditionCode: 500, High: 30, Low: 14, Icon: weather.IconRain}
	if len(h.updates) != 1 || h.updates[0] != want {
		t.Fatalf("updates = %+v, want [%+v]", h.updates, want)
	}
	if got := h.store.Load(); got != want {
		t.Fatalf("persisted = %+v, want %+v", got, want)
	}
	if got := h.prefs.String(store.KeyWeather, ""); got != "30/14" {
		t.Fatalf("KEY_WEATHER = %q, want %q", got, "30/14")
	}
}

func TestMalformedPayloadKeepsState(t *testing.T) {
	h := newHarness()
	h.connect(t)

	good := map[string]any{weather.KeyHigh: 20.0, weather.KeyLow: 10.0, weather.KeyID: int64(800)}
	_ = h.hub.PutDataItem(weather.DataPath, good)
	h.drain()

	bad := []map[string]any{
		{weather.KeyHigh: 20.0, weather.KeyLow: 10.0},
		{weather.KeyHigh: "hot", weather.KeyLow: 10.0, weather.KeyID: int64(800)},
		{weather.KeyHigh: 20.0, weather.KeyLow: 10.0, weather.KeyID: 800.5},
	}
	for _, data := range bad {
		_ = h.hub.PutDataItem(weather.DataPath, data)
		h.drain()
	}

	want := weather.State{ConditionCode: 800, High: 20, Low: 10, Icon: weather.IconClear}
	if got := h.store.Load(); got != want {
		t.Fatalf("persisted = %+v, want %+v", got, want)
	}
	if len(h.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(h.updates))
	}
	if s := h.l.Stats(); s.Applied != 1 || s.Dropped != 3 {
		t.Fatalf("Stats = %+v, want 1 applied 3 dropped", s)
	}
}

func TestReapplyingSamePayloadIsIdempotent(t *testing.T) {
	h := newHarness()
	h.connect(t)
	data := map[string]any{weather.KeyHigh: 3.5, weather.KeyLow: -2.5, weather.KeyID: int64(601)}
	_ = h.hub.PutDataItem(weather.DataPath, data)
	_ = h.hub.PutDataItem(weather.DataPath, data)
	h.drain()

	want := weather.State{ConditionCode: 601, High: 4, Low: -2, Icon: weather.IconSnow}
	if len(h.updates) != 2 || h.updates[0] != want || h.updates[1] != want {
		t.Fatalf("updates = %+v", h.updates)
	}
}

func TestDeletedEventsAreIgnored(t *testing.T) {
	h := newHarness()
	_ = h.hub.PutDataItem(weather.DataPath, map[string]any{
		weather.KeyHigh: 1.0, weather.KeyLow: 1.0, weather.KeyID: int64(800),
	})
	h.connect(t)
	h.hub.DeleteDataItem(weather.DataPath)
	h.drain()
	if len(h.updates) != 0 {
		t.Fatalf("deleted item applied: %+v", h.updates)
	}
}

func TestDisconnectStopsUpdates(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.l.Disconnect()
	if h.l.State() != Disconnected {
		t.Fatalf("State = %s, want disconnected", h.l.State())
	}
	h.l.Disconnect()

	_ = h.hub.PutDataItem(weather.DataPath, map[string]any{
		weather.KeyHigh: 1.0, weather.KeyLow: 1.0, weather.KeyID: int64(800),
	})
	h.drain()
	if len(h.updates) != 0 {
		t.Fatalf("update after disconnect: %+v", h.updates)
	}
}

func TestConnectIsNoopUnlessDisconnected(t *testing.T) {
	h := newHarness()
	h.l.Connect()
	h.l.Connect()
	h.drain()
	if h.l.State() != Connected {
		t.Fatalf("State = %s", h.l.State())
	}
	h.l.Connect()
	if h.l.State() != Connected || len(h.tasks) != 0 {
		t.Fatalf("Connect while connected changed state or queued work")
	}
}

func TestSuspensionDisconnectsWithoutRetry(t *testing.T) {
	h := newHarness()
	h.connect(t)
	h.hub.Suspend(datalayer.CauseServiceDisconnected)
	h.drain()
	if h.l.State() != Disconnected {
		t.Fatalf("State = %s, want disconnected", h.l.State())
	}
	if len(h.tasks) != 0 {
		t.Fatalf("listener queued a reconnect")
	}
}

func TestConnectionFailure(t *testing.T) {
	h := newHarness()
	h.hub.SetAvailable(false)
	h.l.Connect()
	h.drain()
	if h.l.State() != Disconnected {
		t.Fatalf("State = %s, want disconnected", h.l.State())
	}
}

type failingSaver struct{}

func (failingSaver) Save(weather.State) error { return errors.New("disk full") }

func TestSaveFailureStillUpdates(t *testing.T) {
	hub := datalayer.NewHub()
	var tasks []func()
	var got []weather.State
	l := New(func(cb datalayer.ConnectionCallbacks) Client {
		return hub.NewClient(func(fn func()) { tasks = append(tasks, fn) }, cb)
	}, failingSaver{}, func(s weather.State) { got = append(got, s) })

	l.Connect()
	for len(tasks) > 0 {
		fn := tasks[0]
		tasks = tasks[1:]
		fn()
	}
	l.OnDataChanged([]datalayer.DataEvent{{
		Type: datalayer.EventChanged,
		Item: datalayer.DataItem{Path: weather.DataPath, Data: map[string]any{
			weather.KeyHigh: 1.0, weather.KeyLow: 0.0, weather.KeyID: int64(200),
		}},
	}})
	if len(got) != 1 || got[0].Icon != weather.IconStorm {
		t.Fatalf("updates = %+v", got)
	}
}
