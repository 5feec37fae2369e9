// Package lifecycle ties the engine's subscriptions to the host's visibility
// signal: timezone broadcasts and, when present, the weather data channel.
package lifecycle

import "log"

// TimezoneSource delivers timezone ids until the returned func is called.
type TimezoneSource interface {
	Subscribe(fn func(tz string)) (unsubscribe func())
}

// DataChannel is the optional weather sync connection.
type DataChannel interface {
	Connect()
	Disconnect()
}

// Handles reports which subscriptions are active.
type Handles struct {
	TimezoneRegistered   bool `json:"timezoneRegistered"`
	DataChannelConnected bool `json:"dataChannelConnected"`
}

// Controller registers everything when the face becomes visible and
// unregisters it when hidden. Both directions are idempotent.
type Controller struct {
	timezones  TimezoneSource
	onTimezone func(tz string)
	data       DataChannel

	handles     Handles
	unsubscribe func()
}

// NewController builds a controller. data may be nil when the face runs
// without weather sync.
func NewController(timezones TimezoneSource, onTimezone func(tz string), data DataChannel) *Controller {
	return &Controller{timezones: timezones, onTimezone: onTimezone, data: data}
}

// Handles returns the current subscription flags.
func (c *Controller) Handles() Handles { return c.handles }

// HasDataChannel reports whether weather sync is managed.
func (c *Controller) HasDataChannel() bool { return c.data != nil }

// RegisterAll subscribes to timezone changes, then connects the data channel.
func (c *Controller) RegisterAll() {
	if !c.handles.TimezoneRegistered {
		c.unsubscribe = c.timezones.Subscribe(c.onTimezone)
		c.handles.TimezoneRegistered = true
		log.Printf("lifecycle: DEBUG: timezone receiver registered")
	}
	if c.data != nil && !c.handles.DataChannelConnected {
		c.data.Connect()
		c.handles.DataChannelConnected = true
	}
}

// UnregisterAll undoes RegisterAll in reverse order.
func (c *Controller) UnregisterAll() {
	if c.data != nil && c.handles.DataChannelConnected {
		c.data.Disconnect()
		c.handles.DataChannelConnected = false
	}
	if c.handles.TimezoneRegistered {
		if c.unsubscribe != nil {
			c.unsubscribe()
			c.unsubscribe = nil
		}
		c.handles.TimezoneRegistered = false
		log.Printf("lifecycle: DEBUG: timezone receiver unregistered")
	}
}
