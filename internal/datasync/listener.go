// Package datasync applies weather pushed by the paired companion over the
// data layer to the watch face.
package datasync

import (
	"log"

	"github.com/i474232898/weather-watchface/internal/datalayer"
	"github.com/i474232898/weather-watchface/internal/weather"
)

// State is the connection state of a Listener.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Client is the data-channel connection a Listener drives.
type Client interface {
	Connect()
	Disconnect()
	AddListener(l datalayer.Listener) error
	RemoveListener(l datalayer.Listener)
}

// Dialer creates a Client that reports connection results to cb.
type Dialer func(cb datalayer.ConnectionCallbacks) Client

// Saver persists a decoded weather state.
type Saver interface {
	Save(state weather.State) error
}

// Stats counts what happened to inbound weather items.
type Stats struct {
	Applied int
	Dropped int
}

// Listener is the Disconnected -> Connecting -> Connected state machine. All
// methods must be called from the engine's dispatch queue.
type Listener struct {
	client   Client
	store    Saver
	onUpdate func(weather.State)

	state State
	stats Stats
}

// New builds a disconnected listener. onUpdate receives every applied state
// after it has been saved and is where the caller requests a redraw.
func New(dial Dialer, store Saver, onUpdate func(weather.State)) *Listener {
	l := &Listener{store: store, onUpdate: onUpdate}
	l.client = dial(l)
	return l
}

// State returns the connection state.
func (l *Listener) State() State { return l.state }

// Stats returns the applied/dropped counters.
func (l *Listener) Stats() Stats { return l.stats }

// Connect starts connecting. No-op unless disconnected.
func (l *Listener) Connect() {
	if l.state != Disconnected {
		return
	}
	l.state = Connecting
	l.client.Connect()
}

// Disconnect removes the data listener and drops the connection. No-op when
// already disconnected.
func (l *Listener) Disconnect() {
	if l.state == Disconnected {
		return
	}
	if l.state == Connected {
		l.client.RemoveListener(l)
	}
	l.client.Disconnect()
	l.state = Disconnected
}

func (l *Listener) OnConnected() {
	if l.state != Connecting {
		log.Printf("datasync: DEBUG: ignoring handshake in state %s", l.state)
		return
	}
	if err := l.client.AddListener(l); err != nil {
		log.Printf("datasync: ERROR: add data listener: %v", err)
		l.client.Disconnect()
		l.state = Disconnected
		return
	}
	l.state = Connected
	log.Printf("datasync: INFO: connected")
}

func (l *Listener) OnConnectionSuspended(cause int) {
	log.Printf("datasync: INFO: connection suspended, cause=%d", cause)
	l.state = Disconnected
}

func (l *Listener) OnConnectionFailed(err error) {
	log.Printf("datasync: ERROR: connection failed: %v", err)
	l.state = Disconnected
}

// OnDataChanged applies every changed item at the weather path, in order.
// Malformed payloads are dropped and leave the current state alone.
func (l *Listener) OnDataChanged(events []datalayer.DataEvent) {
	for _, ev := range events {
		if ev.Type != datalayer.EventChanged || ev.Item.Path != weather.DataPath {
			continue
		}

		reading, err := weather.DecodePayload(ev.Item.Data)
		if err != nil {
			l.stats.Dropped++
			log.Printf("datasync: DEBUG: dropping %s: %v", ev.Item.URI, err)
			continue
		}

		state := weather.NewState(reading)
		if err := l.store.Save(state); err != nil {
			log.Printf("datasync: ERROR: %v", err)
		}
		l.stats.Applied++
		log.Printf("datasync: INFO: weather %s id=%d icon=%s", state.Summary(), state.ConditionCode, state.Icon)
		if l.onUpdate != nil {
			l.onUpdate(state)
		}
	}
}
