// Package app is the interactive terminal observer. It consumes only the
// core's public surfaces — Subscribe for snapshots, CreateWorker and Control
// for commands — so it stays a drop-in example of an external collaborator.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ByteMirror/ghostmaze/cache"
	"github.com/ByteMirror/ghostmaze/keys"
	"github.com/ByteMirror/ghostmaze/log"
	"github.com/ByteMirror/ghostmaze/publish"
	"github.com/ByteMirror/ghostmaze/supervisor"
	"github.com/ByteMirror/ghostmaze/ui"
)

// GlobalGhostLimit caps how many ghosts the observer will spawn.
const GlobalGhostLimit = 20

// Run is the main entrypoint into the observer application.
func Run(ctx context.Context, sup *supervisor.Supervisor, pub *publish.Publisher) error {
	p := tea.NewProgram(
		newHome(ctx, sup, pub),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

// snapshotMsg delivers the next published snapshot to the model.
type snapshotMsg supervisor.SimulationSnapshot

// subClosedMsg signals that the publisher closed our stream.
type subClosedMsg struct{}

type home struct {
	ctx context.Context
	sup *supervisor.Supervisor
	pub *publish.Publisher

	snaps  <-chan supervisor.SimulationSnapshot
	cancel func()

	snap     supervisor.SimulationSnapshot
	haveSnap bool
	selected int

	// mazeCache memoizes the maze pane per snapshot sequence; the spinner
	// ticks View far more often than snapshots arrive.
	mazeCache *cache.RenderCache

	events  *eventLog
	logView viewport.Model

	spinner  spinner.Model
	errLine  string
	quitting bool
}

func newHome(ctx context.Context, sup *supervisor.Supervisor, pub *publish.Publisher) *home {
	snaps, cancel := pub.Subscribe()
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &home{
		ctx:       ctx,
		sup:       sup,
		pub:       pub,
		snaps:     snaps,
		cancel:    cancel,
		spinner:   s,
		mazeCache: cache.NewRenderCache(),
		events:    newEventLog(),
		logView:   viewport.New(60, 8),
	}
}

func (h *home) Init() tea.Cmd {
	return tea.Batch(h.spinner.Tick, waitForSnapshot(h.snaps))
}

// waitForSnapshot blocks on the subscription until the next snapshot arrives.
func waitForSnapshot(ch <-chan supervisor.SimulationSnapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return subClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (h *home) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		h.snap = supervisor.SimulationSnapshot(msg)
		h.haveSnap = true
		if h.events.Observe(h.snap) {
			h.logView.SetContent(h.events.Content())
			h.logView.GotoBottom()
		}
		if h.selected >= len(h.snap.Ghosts) {
			h.selected = len(h.snap.Ghosts) - 1
		}
		if h.selected < 0 {
			h.selected = 0
		}
		return h, waitForSnapshot(h.snaps)
	case tea.WindowSizeMsg:
		h.logView.Width = msg.Width - 2
		h.logView.Height = max(4, msg.Height/4)
		return h, nil
	case subClosedMsg:
		h.quitting = true
		return h, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		h.spinner, cmd = h.spinner.Update(msg)
		return h, cmd
	case tea.KeyMsg:
		return h.handleKey(msg)
	}
	return h, nil
}

func (h *home) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	name, ok := keys.GlobalKeyStringsMap[msg.String()]
	if !ok {
		return h, nil
	}

	switch name {
	case keys.KeyQuit:
		h.quitting = true
		h.cancel()
		return h, tea.Quit
	case keys.KeyUp:
		if h.selected > 0 {
			h.selected--
		}
	case keys.KeyDown:
		if h.selected < len(h.snap.Ghosts)-1 {
			h.selected++
		}
	case keys.KeyNew:
		if len(h.snap.Ghosts) >= GlobalGhostLimit {
			h.errLine = fmt.Sprintf("ghost limit (%d) reached", GlobalGhostLimit)
			return h, nil
		}
		if _, err := h.sup.CreateWorker(); err != nil {
			h.errLine = err.Error()
		} else {
			h.errLine = ""
		}
	case keys.KeyPause:
		h.control(supervisor.CommandPause)
	case keys.KeyResume:
		h.control(supervisor.CommandResume)
	case keys.KeyPauseAll:
		h.errLine = fmt.Sprintf("paused %d ghost(s)", h.sup.PauseAll())
	case keys.KeyResumeAll:
		h.errLine = fmt.Sprintf("resumed %d ghost(s)", h.sup.ResumeAll())
	case keys.KeyKill:
		h.control(supervisor.CommandTerminate)
	}
	return h, nil
}

// control sends a command to the selected ghost; failures are surfaced in the
// status line, never fatal.
func (h *home) control(cmd supervisor.Command) {
	if h.selected >= len(h.snap.Ghosts) {
		return
	}
	id := h.snap.Ghosts[h.selected].ID
	if err := h.sup.Control(id, cmd); err != nil {
		if errors.Is(err, supervisor.ErrUnknownWorker) {
			h.errLine = "ghost already reaped"
		} else {
			h.errLine = err.Error()
		}
		log.WarningLog.Printf("control %s on %s: %v", cmd, id, err)
		return
	}
	h.errLine = ""
}

func (h *home) View() string {
	if h.quitting {
		return ""
	}
	if !h.haveSnap {
		return fmt.Sprintf("\n  %s waiting for first snapshot...\n", h.spinner.View())
	}

	mazePane := h.mazeCache.Get(h.snap.Seq,
		func() string { return ui.RenderMaze(h.snap) })

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		mazePane,
		lipgloss.JoinVertical(lipgloss.Left,
			ui.RenderGhostList(h.snap, h.selected),
			ui.RenderGates(h.snap),
		),
	)

	footer := h.logView.View() + "\n" + ui.RenderStatusBar(h.snap)
	if h.errLine != "" {
		footer += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("#de613e")).Render(h.errLine)
	}
	return lipgloss.JoinVertical(lipgloss.Left, panes, footer)
}
