package engine

import (
	"github.com/i474232898/weather-watchface/internal/datasync"
	"github.com/i474232898/weather-watchface/internal/lifecycle"
	"github.com/i474232898/weather-watchface/internal/weather"
)

// Status is a read-only view of the engine state.
type Status struct {
	Created       bool              `json:"created"`
	Visible       bool              `json:"visible"`
	Ambient       bool              `json:"ambient"`
	LowBitAmbient bool              `json:"lowBitAmbient"`
	Round         bool              `json:"round"`
	TimeAntiAlias bool              `json:"timeAntiAlias"`
	TickPending   bool              `json:"tickPending"`
	Time          string            `json:"time"`
	Date          string            `json:"date"`
	Clock         ClockSnapshot     `json:"clock"`
	Weather       weather.State     `json:"weather"`
	IconLoaded    bool              `json:"iconLoaded"`
	Subscriptions lifecycle.Handles `json:"subscriptions"`
	Sync          *SyncStatus       `json:"sync,omitempty"`
}

// SyncStatus reports the weather data channel, when the engine has one.
type SyncStatus struct {
	State   string `json:"state"`
	Applied int    `json:"applied"`
	Dropped int    `json:"dropped"`
}

// Status snapshots the engine. Like every engine method it must run on the
// dispatch queue.
func (e *Engine) Status() Status {
	s := Status{
		Created:       e.created,
		Visible:       e.visible,
		Ambient:       e.ambient,
		LowBitAmbient: e.lowBitAmbient,
		Round:         e.round,
		TimeAntiAlias: e.timeAntiAlias,
		Time:          e.timeText,
		Date:          e.dateText,
		Clock:         e.snapshot,
		Weather:       e.weather,
		IconLoaded:    e.icon != nil,
	}
	if e.created {
		s.TickPending = e.redraw.Pending()
		s.Subscriptions = e.lifecycle.Handles()
	}
	if e.sync != nil {
		st := e.sync.Stats()
		s.Sync = &SyncStatus{State: e.sync.State().String(), Applied: st.Applied, Dropped: st.Dropped}
	}
	return s
}

// SyncState returns the data channel state, or Disconnected without sync.
func (e *Engine) SyncState() datasync.State {
	if e.sync == nil {
		return datasync.Disconnected
	}
	return e.sync.State()
}
