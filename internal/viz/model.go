package viz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbitsim/internal/exchange"
	"github.com/san-kum/orbitsim/internal/physics"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	trailCapacity   = 1500

	defaultScale = 2.0
	zoomSteps    = 5.0
	bodyRadius   = 1 // dots
)

// RefreshInterval is how often the viewer polls the exchange.
const RefreshInterval = 16 * time.Millisecond

type TickMsg time.Time

type Options struct {
	// Seed shown at start; it should match the seed the integrator runs.
	Seed uint64
	// RandSeed seeds the generator behind random reseeds. Zero uses the clock.
	RandSeed uint64
	Theme    string
}

type point struct{ x, y int }

// Model is the Bubble Tea model of the viewer.
type Model struct {
	ex     *exchange.Exchange
	rnd    *rand.Rand
	canvas *Canvas
	styles styles
	theme  Theme

	center r2.Vec
	scale  float64

	seed      uint64
	shownSeed uint64
	tick      uint64
	bodies    []physics.Body
	has       bool

	energyHistory []float64
	trail         []r2.Vec
	showTrail     bool
	showInfo      bool
}

func NewModel(ex *exchange.Exchange, opts Options) Model {
	rs := opts.RandSeed
	if rs == 0 {
		rs = uint64(time.Now().UnixNano())
	}
	theme := GetTheme(opts.Theme)

	return Model{
		ex:            ex,
		rnd:           rand.New(rand.NewSource(rs)),
		canvas:        NewCanvas(width, height),
		styles:        newStyles(theme),
		theme:         theme,
		scale:         defaultScale,
		seed:          opts.Seed,
		shownSeed:     opts.Seed,
		energyHistory: make([]float64, 0, historyCapacity),
		trail:         make([]r2.Vec, 0, trailCapacity),
		showTrail:     true,
		showInfo:      true,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input and pulls the latest snapshot.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.ex.TogglePause()
		case "r":
			m.reseed(m.rnd.Uint64())
		case "+", "=":
			m.reseed(m.seed + 1)
		case "-", "_":
			if m.seed > 0 {
				m.reseed(m.seed - 1)
			}
		case "t":
			m.showInfo = !m.showInfo
		case "p":
			m.showTrail = !m.showTrail
			m.trail = m.trail[:0]
		case "c":
			m.theme = nextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "z":
			m.zoom(-1)
		case "x":
			m.zoom(1)
		case "left", "h":
			m.center.X -= 0.1 * m.scale
		case "right", "l":
			m.center.X += 0.1 * m.scale
		case "up", "k":
			m.center.Y += 0.1 * m.scale
		case "down", "j":
			m.center.Y -= 0.1 * m.scale
		case "0":
			m.center = r2.Vec{}
			m.scale = defaultScale
		}
	case TickMsg:
		m.pull()
		return m, tick()
	}
	return m, nil
}

// reseed asks the integrator to rebuild from seed and restarts the tick count.
func (m *Model) reseed(seed uint64) {
	m.seed = seed
	m.ex.Reseed(seed)
}

// zoom scales the view by 2^(steps/zoomSteps).
func (m *Model) zoom(steps float64) {
	m.scale *= math.Exp2(steps / zoomSteps)
}

func (m *Model) pull() {
	snap, ok := m.ex.Snapshot()
	if !ok {
		return
	}
	if m.has && snap.Seed == m.shownSeed && snap.Tick == m.tick {
		return
	}

	if snap.Seed != m.shownSeed {
		m.trail = m.trail[:0]
		m.energyHistory = m.energyHistory[:0]
	}

	m.has = true
	m.shownSeed = snap.Seed
	m.tick = snap.Tick
	m.bodies = snap.Bodies

	m.energyHistory = append(m.energyHistory, physics.Energy(m.bodies))
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}

	if m.showTrail {
		for _, b := range m.bodies {
			m.trail = append(m.trail, b.Pos)
		}
		if over := len(m.trail) - trailCapacity; over > 0 {
			// drop whole frames so trail[k-n] stays the same body
			n := len(m.bodies)
			over = (over + n - 1) / n * n
			m.trail = m.trail[over:]
		}
	}
}

// project maps a world position to canvas dots. The view spans 2*scale world
// units vertically, centered on m.center.
func (m *Model) project(p r2.Vec) point {
	cw, ch := m.canvas.Dots()
	unit := float64(ch) / (2 * m.scale)
	return point{
		x: cw/2 + int(math.Round((p.X-m.center.X)*unit)),
		y: ch/2 - int(math.Round((p.Y-m.center.Y)*unit)),
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	if m.showTrail {
		n := len(m.bodies)
		for k, p := range m.trail {
			pt := m.project(p)
			if n == 0 || k < n {
				m.canvas.Set(pt.x, pt.y)
				continue
			}
			prev := m.project(m.trail[k-n])
			if m.onCanvas(prev) && m.onCanvas(pt) {
				m.canvas.DrawLine(prev.x, prev.y, pt.x, pt.y)
			} else {
				m.canvas.Set(pt.x, pt.y)
			}
		}
	}
	for _, b := range m.bodies {
		pt := m.project(b.Pos)
		m.canvas.FillDisc(pt.x, pt.y, bodyRadius)
	}
}

func (m *Model) onCanvas(p point) bool {
	cw, ch := m.canvas.Dots()
	return p.x >= 0 && p.x < cw && p.y >= 0 && p.y < ch
}

// View renders the canvas and, when enabled, the info panel.
func (m Model) View() string {
	m.draw()
	canvasView := m.styles.canvas.Render(m.canvas.String())
	if !m.showInfo {
		return canvasView
	}

	var s strings.Builder
	s.WriteString(m.styles.header.Render("ORBITSIM") + "\n")

	status := m.styles.running.Render("RUNNING")
	if m.ex.Paused() {
		status = m.styles.paused.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	s.WriteString(m.row("Tick", fmt.Sprintf("%d", m.ex.Tick())))
	s.WriteString(m.row("Seed", fmt.Sprintf("%d", m.seed)))
	s.WriteString(m.row("Bodies", fmt.Sprintf("%d", len(m.bodies))))
	s.WriteString(m.row("Zoom", fmt.Sprintf("%.2fx", defaultScale/m.scale)))

	if len(m.energyHistory) > 0 {
		s.WriteString(m.row("Energy", fmt.Sprintf("%.6f", m.energyHistory[len(m.energyHistory)-1])))
	}
	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory,
			asciigraph.Height(4),
			asciigraph.Width(30),
			asciigraph.Caption("Energy"),
		)
		s.WriteString(m.styles.graph.Render(chart) + "\n")
	}

	s.WriteString(m.styles.help.Render("SP:Pause R:Random +/-:Seed\nZ/X:Zoom HJKL:Pan 0:View\nP:Trail C:Theme T:Info Q:Quit"))

	panel := m.styles.panel.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, panel)
}

func (m Model) row(label, value string) string {
	return m.styles.label.Render(label) + m.styles.value.Render(value) + "\n"
}

// Run shows the viewer until the user quits or ctx is done.
func Run(ctx context.Context, ex *exchange.Exchange, opts Options) error {
	p := tea.NewProgram(NewModel(ex, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return ctx.Err()
	}
	return err
}
