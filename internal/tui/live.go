// Package tui provides the live-run terminal view: the simulation runs
// in a background goroutine and streams step snapshots into a bubbletea
// program that redraws the mid-grid cross section as it evolves.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lmonroe/landevo/internal/grid"
	"github.com/lmonroe/landevo/internal/sim"
	"github.com/lmonroe/landevo/internal/viz"
)

type stepMsg struct {
	step    int
	elapsed float64
	profile []float64
}

type doneMsg struct {
	result *sim.Result
	err    error
}

// snapshotter forwards throttled step snapshots into the program. It
// copies the profile column because the elevation slice it observes is
// the grid's live storage.
type snapshotter struct {
	prog      *tea.Program
	g         *grid.Raster
	col       int
	frameRate int
	lastFrame time.Time
	total     int
}

func (s *snapshotter) OnStep(step int, elapsed float64, elev []float64) {
	last := step == s.total-1
	if !last && time.Since(s.lastFrame) < time.Second/time.Duration(s.frameRate) {
		return
	}
	s.lastFrame = time.Now()
	s.prog.Send(stepMsg{
		step:    step,
		elapsed: elapsed,
		profile: viz.ColumnProfile(s.g, elev, s.col),
	})
}

// Model is the bubbletea model for a live run.
type Model struct {
	g      *grid.Raster
	total  int
	dt     float64
	col    int
	width  int
	height int

	step    int
	elapsed float64
	profile []float64
	result  *sim.Result
	err     error
	done    bool
}

// Run executes the driver with a live view and returns its result.
func Run(ctx context.Context, d *sim.Driver, g *grid.Raster, total int, dt float64, frameRate int) (*sim.Result, error) {
	col := g.Cols() / 2
	m := Model{
		g:      g,
		total:  total,
		dt:     dt,
		col:    col,
		width:  80,
		height: 24,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(m)

	if frameRate <= 0 {
		frameRate = 15
	}
	d.AddObserver(&snapshotter{prog: p, g: g, col: col, frameRate: frameRate, total: total})

	go func() {
		result, err := d.Run(ctx)
		p.Send(doneMsg{result: result, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	fm := final.(Model)
	if fm.err != nil {
		return nil, fm.err
	}
	if fm.result == nil {
		// Quit before completion; the driver goroutine is canceled on
		// return.
		return nil, context.Canceled
	}
	return fm.result, nil
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case stepMsg:
		m.step, m.elapsed, m.profile = msg.step, msg.elapsed, msg.profile
	case doneMsg:
		m.result, m.err, m.done = msg.result, msg.err, true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	status := viz.StatusRunning.Render("running")
	if m.done {
		status = viz.StatusDone.Render("complete")
	}
	b.WriteString(viz.Title.Render("landevo") + "  " + status + "\n")
	b.WriteString(viz.Subtle.Render(fmt.Sprintf("step %d/%d  t=%.0f", m.step+1, m.total, m.elapsed)) + "\n\n")

	if len(m.profile) > 0 {
		w := m.width - 12
		if w < 20 {
			w = 20
		}
		h := m.height - 10
		if h < 8 {
			h = 8
		}
		caption := fmt.Sprintf("N-S cross section, column %d", m.col)
		b.WriteString(viz.PlotSeries(m.profile, caption, w, h))
		b.WriteByte('\n')
	}

	b.WriteString("\n" + viz.Subtle.Render("q to quit") + "\n")
	return b.String()
}
