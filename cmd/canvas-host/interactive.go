package main

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/frontierhq/canvas-host/canvas"
	"github.com/frontierhq/canvas-host/render"
	"github.com/frontierhq/canvas-host/runtime"
	"github.com/frontierhq/canvas-host/watch"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// appModel drives the interactive session: a title row, the guest
// canvas (or the log panel), and a help footer. The guest only runs
// while it keeps requesting frames, so an idle guest costs nothing
// between input events.
type appModel struct {
	cfg        appConfig
	logger     *zap.Logger
	sourceName string

	rt       *runtime.Runtime
	watcher  *watch.Watcher
	renderer *render.Renderer
	logView  viewport.Model

	width     int
	height    int
	inited    bool
	ticking   bool
	showLogs  bool
	lastTick  time.Time
	status    string
	statusErr bool
	fatal     error
}

type loadedMsg struct {
	err     error
	rt      *runtime.Runtime
	watcher *watch.Watcher
}

type frameTickMsg time.Time

type fileChangedMsg time.Time

func newAppModel(cfg appConfig, logger *zap.Logger) *appModel {
	return &appModel{
		cfg:        cfg,
		logger:     logger,
		sourceName: guestSource(cfg).Name(),
		renderer:   render.NewRenderer(0, 0),
		logView:    viewport.New(0, 0),
	}
}

func (m *appModel) Init() tea.Cmd {
	return m.loadGuest
}

func (m *appModel) loadGuest() tea.Msg {
	ctx := context.Background()

	rt, err := runtime.New(ctx, guestSource(m.cfg), &runtime.Options{Logger: m.logger})
	if err != nil {
		return loadedMsg{err: err}
	}

	var w *watch.Watcher
	if m.cfg.Watch && m.cfg.WasmPath != "" {
		w, err = watch.New(m.cfg.WasmPath, &watch.Options{Logger: m.logger.Named("watch")})
		if err == nil {
			err = w.Start(context.Background())
		}
		if err != nil {
			rt.Close(ctx)
			return loadedMsg{err: err}
		}
	}

	return loadedMsg{rt: rt, watcher: w}
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			ctx := context.Background()
			if m.watcher != nil {
				m.watcher.Stop()
			}
			if m.rt != nil {
				m.rt.Close(ctx)
			}
			return m, tea.Quit

		case "r":
			return m, m.reload()

		case "l":
			m.showLogs = !m.showLogs
			if m.showLogs {
				m.refreshLogs()
			}
			return m, nil

		default:
			if m.showLogs {
				var cmd tea.Cmd
				m.logView, cmd = m.logView.Update(msg)
				return m, cmd
			}
			return m, m.forwardKey(msg)
		}

	case tea.MouseMsg:
		return m, m.forwardPointer(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		cw, ch := m.canvasDims()
		m.renderer.Resize(cw, ch)
		m.logView.Width = cw
		m.logView.Height = ch
		if m.rt == nil {
			return m, nil
		}
		if !m.inited {
			return m, m.initGuest()
		}
		res, err := m.rt.CallResize(context.Background(), m.guestSize())
		if err != nil {
			m.setError(err)
			return m, nil
		}
		if res.RequestedRedraw {
			return m, m.scheduleFrame()
		}
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.fatal = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.watcher = msg.watcher
		var cmds []tea.Cmd
		if m.width > 0 {
			if c := m.initGuest(); c != nil {
				cmds = append(cmds, c)
			}
		}
		if m.watcher != nil {
			cmds = append(cmds, m.waitForChange())
		}
		return m, tea.Batch(cmds...)

	case frameTickMsg:
		m.ticking = false
		return m, m.stepFrame(time.Time(msg))

	case fileChangedMsg:
		cmds := []tea.Cmd{m.waitForChange()}
		if c := m.reload(); c != nil {
			cmds = append(cmds, c)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// initGuest runs the guest's init entry point once the terminal size is
// known. A trapping init leaves the session alive with the error in the
// title bar.
func (m *appModel) initGuest() tea.Cmd {
	if m.rt == nil || m.width == 0 {
		return nil
	}
	res, err := m.rt.CallInit(context.Background(), m.guestSize())
	if err != nil {
		m.setError(err)
		return nil
	}
	m.inited = true
	if res.RequestedRedraw {
		return m.scheduleFrame()
	}
	return nil
}

func (m *appModel) stepFrame(now time.Time) tea.Cmd {
	if m.rt == nil || !m.inited {
		return nil
	}

	delta := float32(time.Second/time.Duration(m.cfg.FPS)) / float32(time.Millisecond)
	if !m.lastTick.IsZero() {
		delta = float32(now.Sub(m.lastTick).Seconds() * 1000)
	}
	m.lastTick = now

	res, err := m.rt.CallFrame(context.Background(), delta)
	if err != nil {
		m.setError(err)
		return nil
	}
	m.renderer.Render(res.Frame)
	if m.showLogs {
		m.refreshLogs()
	}
	if res.RequestedRedraw {
		return m.scheduleFrame()
	}
	return nil
}

// reload swaps the guest for a fresh build. On failure the old instance
// keeps running and the error lands in the title bar.
func (m *appModel) reload() tea.Cmd {
	if m.rt == nil {
		return nil
	}
	if err := m.rt.Reload(context.Background()); err != nil {
		m.setError(err)
		return nil
	}
	m.status = "guest reloaded"
	m.statusErr = false
	m.inited = false
	m.lastTick = time.Time{}
	return m.initGuest()
}

func (m *appModel) forwardKey(msg tea.KeyMsg) tea.Cmd {
	if m.rt == nil || !m.inited {
		return nil
	}
	res, err := m.rt.CallKeyDown(context.Background(), keyEvent(msg))
	if err != nil {
		m.setError(err)
		return nil
	}
	if res.RequestedRedraw {
		return m.scheduleFrame()
	}
	return nil
}

func (m *appModel) forwardPointer(msg tea.MouseMsg) tea.Cmd {
	if m.rt == nil || !m.inited {
		return nil
	}

	ctx := context.Background()
	ev := pointerEvent(msg)

	var res runtime.CallResult
	var err error
	switch msg.Action {
	case tea.MouseActionPress:
		res, err = m.rt.CallPointerDown(ctx, ev)
	case tea.MouseActionRelease:
		res, err = m.rt.CallPointerUp(ctx, ev)
	case tea.MouseActionMotion:
		res, err = m.rt.CallPointerMove(ctx, ev)
	default:
		return nil
	}
	if err != nil {
		m.setError(err)
		return nil
	}
	if res.RequestedRedraw {
		return m.scheduleFrame()
	}
	return nil
}

// scheduleFrame arms one tick at the configured cadence. At most one
// tick is pending at a time.
func (m *appModel) scheduleFrame() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return tea.Tick(time.Second/time.Duration(m.cfg.FPS), func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

func (m *appModel) waitForChange() tea.Cmd {
	w := m.watcher
	return func() tea.Msg {
		return fileChangedMsg(<-w.Changes())
	}
}

func (m *appModel) refreshLogs() {
	logs := m.rt.RecentLogs()
	if len(logs) == 0 {
		m.logView.SetContent(helpStyle.Render("no guest logs yet"))
		return
	}
	m.logView.SetContent(strings.Join(logs, "\n"))
}

func (m *appModel) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// canvasDims reserves the title and footer rows.
func (m *appModel) canvasDims() (int, int) {
	h := m.height - 2
	if h < 0 {
		h = 0
	}
	return m.width, h
}

func (m *appModel) guestSize() canvas.LogicalSize {
	cw, ch := m.canvasDims()
	return canvas.LogicalSize{Width: float32(cw), Height: float32(ch), ScaleFactor: 1}
}

func keyEvent(msg tea.KeyMsg) canvas.KeyEvent {
	name := msg.String()
	ev := canvas.KeyEvent{Modifiers: canvas.Modifiers{Alt: msg.Alt}}
	name = strings.TrimPrefix(name, "alt+")
	if strings.HasPrefix(name, "ctrl+") {
		ev.Modifiers.Ctrl = true
		name = strings.TrimPrefix(name, "ctrl+")
	}
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && unicode.IsUpper(msg.Runes[0]) {
		ev.Modifiers.Shift = true
	}
	ev.Key = name
	ev.Code = name
	return ev
}

func pointerEvent(msg tea.MouseMsg) canvas.PointerEvent {
	ev := canvas.PointerEvent{
		Kind: canvas.PointerMouse,
		// The title bar occupies the first terminal row.
		Position:  canvas.Vec2{X: float32(msg.X), Y: float32(msg.Y - 1)},
		Modifiers: canvas.Modifiers{Shift: msg.Shift, Ctrl: msg.Ctrl, Alt: msg.Alt},
	}
	switch msg.Button {
	case tea.MouseButtonLeft:
		ev.Buttons.Primary = true
	case tea.MouseButtonRight:
		ev.Buttons.Secondary = true
	}
	return ev
}

func (m *appModel) View() string {
	if m.fatal != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.fatal))
	}
	if m.rt == nil {
		return "Loading guest..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("canvas-host"))
	b.WriteString(" ")
	b.WriteString(m.sourceName)
	if m.status != "" {
		b.WriteString("  ")
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(statusStyle.Render(m.status))
		}
	}
	b.WriteString("\n")

	if m.showLogs {
		b.WriteString(m.logView.View())
	} else {
		lines := m.renderer.Lines()
		for i, line := range lines {
			b.WriteString(line)
			if i < len(lines)-1 {
				b.WriteString("\n")
			}
		}
	}
	b.WriteString("\n")

	b.WriteString(helpStyle.Render("r restart • l logs • q quit"))
	return b.String()
}

func runInteractive(cfg appConfig, logger *zap.Logger) error {
	p := tea.NewProgram(newAppModel(cfg, logger), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
