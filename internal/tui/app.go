// Package tui is an interactive terminal preview of the watch face. Keys
// play the host: toggle visibility, ambient mode, low-bit ambient and the
// window shape, push weather and change the timezone.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/i474232898/weather-watchface/internal/datalayer"
	"github.com/i474232898/weather-watchface/internal/engine"
	"github.com/i474232898/weather-watchface/internal/host"
	"github.com/i474232898/weather-watchface/internal/lifecycle"
	"github.com/i474232898/weather-watchface/internal/render"
	"github.com/i474232898/weather-watchface/internal/weather"
)

// Options configure the preview.
type Options struct {
	Context   context.Context
	Host      *host.Headless
	Engine    *engine.Engine
	Hub       *datalayer.Hub
	Timezones *lifecycle.TimezoneBroadcaster
	Zones     []string
	PollTick  time.Duration
}

// Model is the Bubble Tea model.
type Model struct {
	ctx      context.Context
	host     *host.Headless
	engine   *engine.Engine
	hub      *datalayer.Hub
	tz       *lifecycle.TimezoneBroadcaster
	zones    []string
	zoneIdx  int
	pollTick time.Duration

	status   engine.Status
	cmds     []render.Command
	frameSeq int
	samples  int
	width    int
	err      error
}

// New creates the preview model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = 200 * time.Millisecond
	}
	zones := opts.Zones
	if len(zones) == 0 {
		zones = []string{"UTC", "Europe/London", "America/New_York", "Asia/Tokyo"}
	}
	return Model{
		ctx:      ctx,
		host:     opts.Host,
		engine:   opts.Engine,
		hub:      opts.Hub,
		tz:       opts.Timezones,
		zones:    zones,
		pollTick: pollTick,
		width:    36,
	}
}

type tickMsg time.Time

type snapshotMsg struct {
	status engine.Status
	frame  host.Frame
}

type errMsg struct{ err error }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.pollTick), m.act(nil))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = min(max(msg.Width/2, 24), 60)
		return m, nil
	case tickMsg:
		return m, tea.Batch(tickCmd(m.pollTick), m.act(nil))
	case snapshotMsg:
		m.status = msg.status
		if msg.frame.Seq != 0 {
			m.cmds = msg.frame.Commands
			m.frameSeq = msg.frame.Seq
		}
		m.err = nil
		return m, nil
	case errMsg:
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.engine
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "v":
		visible := !m.status.Visible
		return m, m.act(func() { e.OnVisibilityChanged(visible) })
	case "a":
		ambient := !m.status.Ambient
		return m, m.act(func() { e.OnAmbientModeChanged(ambient) })
	case "l":
		props := engine.Properties{LowBitAmbient: !m.status.LowBitAmbient}
		return m, m.act(func() { e.OnPropertiesChanged(props) })
	case "r":
		insets := engine.Insets{IsRound: !m.status.Round}
		return m, m.act(func() {
			e.OnApplyWindowInsets(insets)
			m.host.Invalidate()
		})
	case "t":
		return m, m.act(e.OnTimeTick)
	case "z":
		m.zoneIdx = (m.zoneIdx + 1) % len(m.zones)
		zone := m.zones[m.zoneIdx]
		if m.tz != nil {
			m.tz.Broadcast(zone)
		}
		return m, m.act(nil)
	case "w":
		if m.hub == nil {
			return m, nil
		}
		m.samples++
		r := sampleReading(m.samples)
		if err := m.hub.PutDataItem(weather.DataPath, weather.Payload(r)); err != nil {
			return m, func() tea.Msg { return errMsg{err} }
		}
		return m, m.act(nil)
	}
	return m, nil
}

// act runs fn on the engine queue, then snapshots status and frame.
func (m Model) act(fn func()) tea.Cmd {
	h, e, ctx := m.host, m.engine, m.ctx
	return func() tea.Msg {
		var status engine.Status
		err := h.Do(ctx, func() {
			if fn != nil {
				fn()
			}
			status = e.Status()
		})
		if err != nil {
			return errMsg{err}
		}
		frame, _ := h.LatestFrame()
		return snapshotMsg{status: status, frame: frame}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// sampleReading cycles through a few conditions so each push is visible.
func sampleReading(n int) weather.Reading {
	samples := []weather.Reading{
		{High: 29.6, Low: 14.2, ConditionID: 500},
		{High: 21.4, Low: 12.5, ConditionID: 801},
		{High: -1.5, Low: -7.8, ConditionID: 601},
		{High: 31.0, Low: 22.9, ConditionID: 800},
		{High: 18.2, Low: 11.1, ConditionID: 211},
	}
	r := samples[(n-1)%len(samples)]
	r.Timestamp = time.Now()
	return r
}

var (
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	labelStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(renderFace(m.cmds, m.status.Weather.Icon, m.status.Round, m.width))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("v visible · a ambient · l low-bit · r round · t time-tick · z timezone · w push weather · q quit"))
	return b.String()
}

func (m Model) renderStatus() string {
	s := m.status
	onOff := func(v bool) string {
		if v {
			return "on"
		}
		return "off"
	}
	sync := "n/a"
	if s.Sync != nil {
		sync = fmt.Sprintf("%s (%d applied, %d dropped)", s.Sync.State, s.Sync.Applied, s.Sync.Dropped)
	}
	label := func(name string) string { return labelStyle.Render(name) + " " }
	rows := []string{
		label("visible") + onOff(s.Visible) + "  " + label("ambient") + onOff(s.Ambient) +
			"  " + label("low-bit") + onOff(s.LowBitAmbient),
		label("timer") + onOff(s.TickPending) + "  " + label("tz") + s.Clock.Timezone +
			"  " + label("frame") + fmt.Sprint(m.frameSeq),
		label("sync") + sync,
	}
	return strings.Join(rows, "\n")
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
