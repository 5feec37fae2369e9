// Package datalayer is an in-process stand-in for the data channel between
// the watch and its paired companion: producers put items at a path, and
// connected clients receive change events on their own dispatch queue.
package datalayer

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrNotConnected is returned when a disconnected client adds a listener.
	ErrNotConnected = errors.New("data client not connected")
	// ErrUnavailable is reported to clients connecting to an offline hub.
	ErrUnavailable = errors.New("data layer unavailable")
	// ErrInvalidPath is returned for item paths not starting with "/".
	ErrInvalidPath = errors.New("data item path must start with /")
)

// Suspension causes reported through OnConnectionSuspended.
const (
	CauseServiceDisconnected = 1
	CauseNetworkLost         = 2
)

// EventType tells a listener whether an item was written or removed.
type EventType int

const (
	EventChanged EventType = iota + 1
	EventDeleted
)

func (t EventType) String() string {
	switch t {
	case EventChanged:
		return "changed"
	case EventDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// DataItem is one entry in the shared data layer.
type DataItem struct {
	URI  string
	Path string
	Data map[string]any
}

// DataEvent is one change delivered to listeners.
type DataEvent struct {
	Type EventType
	Item DataItem
}

// ConnectionCallbacks receives the outcome of Client.Connect.
type ConnectionCallbacks interface {
	OnConnected()
	OnConnectionSuspended(cause int)
	OnConnectionFailed(err error)
}

// Listener receives event batches while its client is connected.
type Listener interface {
	OnDataChanged(events []DataEvent)
}

// Put is one item write in a batch.
type Put struct {
	Path string
	Data map[string]any
}

// Hub is the shared data layer. Items are keyed by path.
type Hub struct {
	nodeID string

	mu        sync.Mutex
	available bool
	items     map[string]DataItem
	clients   map[*Client]struct{}
}

// NewHub creates an online hub with a fresh node id.
func NewHub() *Hub {
	return &Hub{
		nodeID:    uuid.NewString(),
		available: true,
		items:     make(map[string]DataItem),
		clients:   make(map[*Client]struct{}),
	}
}

// NodeID identifies the producing node in item URIs.
func (h *Hub) NodeID() string { return h.nodeID }

// SetAvailable toggles whether new connections succeed.
func (h *Hub) SetAvailable(ok bool) {
	h.mu.Lock()
	h.available = ok
	h.mu.Unlock()
}

// Item returns the item stored at path.
func (h *Hub) Item(path string) (DataItem, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	item, ok := h.items[path]
	if !ok {
		return DataItem{}, false
	}
	return cloneItem(item), true
}

// PutDataItem writes one item and notifies connected listeners.
func (h *Hub) PutDataItem(path string, data map[string]any) error {
	return h.PutDataItems(Put{Path: path, Data: data})
}

// PutDataItems writes every item, then delivers them to each connected
// listener as a single batch.
func (h *Hub) PutDataItems(puts ...Put) error {
	for _, p := range puts {
		if !strings.HasPrefix(p.Path, "/") {
			return fmt.Errorf("%w: %q", ErrInvalidPath, p.Path)
		}
	}

	h.mu.Lock()
	events := make([]DataEvent, 0, len(puts))
	for _, p := range puts {
		item := DataItem{
			URI:  "wear://" + h.nodeID + p.Path,
			Path: p.Path,
			Data: cloneData(p.Data),
		}
		h.items[p.Path] = item
		events = append(events, DataEvent{Type: EventChanged, Item: item})
	}
	clients := h.clientsLocked()
	h.mu.Unlock()

	for _, c := range clients {
		c.deliver(events)
	}
	return nil
}

// DeleteDataItem removes the item at path and reports it as deleted.
func (h *Hub) DeleteDataItem(path string) bool {
	h.mu.Lock()
	item, ok := h.items[path]
	if !ok {
		h.mu.Unlock()
		return false
	}
	delete(h.items, path)
	clients := h.clientsLocked()
	h.mu.Unlock()

	events := []DataEvent{{Type: EventDeleted, Item: item}}
	for _, c := range clients {
		c.deliver(events)
	}
	return true
}

// Suspend drops every connected client, which is told why through
// OnConnectionSuspended.
func (h *Hub) Suspend(cause int) {
	h.mu.Lock()
	clients := h.clientsLocked()
	h.mu.Unlock()

	log.Printf("datalayer: INFO: suspending %d client(s), cause=%d", len(clients), cause)
	for _, c := range clients {
		c.suspend(cause)
	}
}

func (h *Hub) clientsLocked() []*Client {
	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

// NewClient creates a disconnected client. Every callback it makes runs
// through post, which is expected to hand the call to the owner's serial
// dispatch queue.
func (h *Hub) NewClient(post func(func()), callbacks ConnectionCallbacks) *Client {
	return &Client{hub: h, post: post, callbacks: callbacks}
}

// Client is one consumer's connection to the hub.
type Client struct {
	hub       *Hub
	post      func(func())
	callbacks ConnectionCallbacks

	mu        sync.Mutex
	gen       uint64
	connected bool
	listeners []Listener
}

// Connect starts the handshake. The result arrives later as OnConnected or
// OnConnectionFailed; a Disconnect in between cancels it.
func (c *Client) Connect() {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.hub.mu.Lock()
	ok := c.hub.available
	c.hub.mu.Unlock()

	c.post(func() {
		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return
		}
		if !ok {
			c.mu.Unlock()
			c.callbacks.OnConnectionFailed(ErrUnavailable)
			return
		}
		c.connected = true
		c.mu.Unlock()

		c.hub.mu.Lock()
		c.hub.clients[c] = struct{}{}
		c.hub.mu.Unlock()

		c.callbacks.OnConnected()
	})
}

// Disconnect drops the connection and every listener. Safe to call when
// already disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.gen++
	c.connected = false
	c.listeners = nil
	c.mu.Unlock()

	c.hub.mu.Lock()
	delete(c.hub.clients, c)
	c.hub.mu.Unlock()
}

// IsConnected reports whether the handshake completed and no disconnect or
// suspension followed.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// AddListener subscribes l to data events.
func (c *Client) AddListener(l Listener) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrNotConnected
	}
	for _, existing := range c.listeners {
		if existing == l {
			return nil
		}
	}
	c.listeners = append(c.listeners, l)
	return nil
}

// RemoveListener unsubscribes l. Unknown listeners are ignored.
func (c *Client) RemoveListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.listeners {
		if existing == l {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

func (c *Client) deliver(events []DataEvent) {
	c.mu.Lock()
	gen := c.gen
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()
	if len(listeners) == 0 {
		return
	}

	batch := make([]DataEvent, len(events))
	for i, ev := range events {
		batch[i] = DataEvent{Type: ev.Type, Item: cloneItem(ev.Item)}
	}
	c.post(func() {
		c.mu.Lock()
		live := c.gen == gen && c.connected
		c.mu.Unlock()
		if !live {
			return
		}
		for _, l := range listeners {
			l.OnDataChanged(batch)
		}
	})
}

func (c *Client) suspend(cause int) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.gen++
	c.connected = false
	c.listeners = nil
	c.mu.Unlock()

	c.hub.mu.Lock()
	delete(c.hub.clients, c)
	c.hub.mu.Unlock()

	c.post(func() { c.callbacks.OnConnectionSuspended(cause) })
}

func cloneItem(item DataItem) DataItem {
	item.Data = cloneData(item.Data)
	return item
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
