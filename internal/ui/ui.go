// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-exoplanets/internal/projector"
	"github.com/litescript/ls-exoplanets/internal/state"
	"github.com/litescript/ls-exoplanets/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewCatalog ViewMode = iota
	ViewScene
	ViewSky
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers a check for state changes.
	TickMsg time.Time

	// AnimTickMsg drives the footer spinner.
	AnimTickMsg time.Time

	// DataUpdateMsg carries a fresh snapshot, e.g. after a catalog fetch.
	DataUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// ErrorMsg reports a background failure.
	ErrorMsg struct {
		Error error
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	state *state.Manager

	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int

	catalog CatalogModel
	scene   SceneModel
	sky     SkyModel

	snapshot state.Snapshot
}

// New creates a new root UI model.
func New(stateMgr *state.Manager) Model {
	m := Model{
		state:    stateMgr,
		viewMode: ViewCatalog,
		catalog:  NewCatalogModel(),
		scene:    NewSceneModel(),
		sky:      NewSkyModel(),
	}
	m.apply(stateMgr.Snapshot())
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), animTickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// The search prompt owns the keyboard.
		if m.viewMode == ViewCatalog && m.catalog.Searching() {
			cmds = append(cmds, m.updateActiveView(msg))
			break
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "1":
			m.viewMode = ViewCatalog
		case "2", "s":
			m.viewMode = ViewScene
		case "3", "m":
			m.viewMode = ViewSky
		case "tab":
			m.viewMode = (m.viewMode + 1) % 3

		case "u":
			unit := m.state.Unit().Next()
			m.state.SetUnit(unit)
			m.statusMsg = "Distances in " + unit.Label()
			m.refresh()
		case "f":
			if m.state.ToggleStellarFilter() {
				m.statusMsg = "Stellar temperature filter on"
			} else {
				m.statusMsg = "Stellar temperature filter off"
			}
			m.refresh()
		case "c":
			p := m.state.Policy()
			if p.ColorMode == projector.ColorByTemperature {
				p.ColorMode = projector.ColorByClass
			} else {
				p.ColorMode = projector.ColorByTemperature
			}
			m.state.SetPolicy(p)
			m.statusMsg = "Colour by " + p.ColorMode.String()
			m.refresh()
		case "esc":
			m.state.ClearSelection()
			m.statusMsg = ""
			m.refresh()

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case SelectMsg:
		m.state.Select(msg.Name)
		if m.viewMode == ViewCatalog {
			m.viewMode = ViewScene
		}
		m.statusMsg = ""
		m.refresh()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Title and tabs take 3 lines, footer 2
		contentHeight := msg.Height - 5
		m.catalog = m.catalog.SetSize(msg.Width, contentHeight)
		m.scene = m.scene.SetSize(msg.Width, contentHeight)
		m.sky = m.sky.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		if m.state.Version() != m.snapshot.Version {
			m.refresh()
		}

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case DataUpdateMsg:
		m.apply(msg.Snapshot)

	case ErrorMsg:
		m.statusMsg = "Error: " + msg.Error.Error()

	case skyAnimMsg:
		// The map finishes its animation even when hidden.
		var cmd tea.Cmd
		m.sky, cmd = m.sky.Update(msg)
		cmds = append(cmds, cmd)

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) refresh() {
	m.apply(m.state.Snapshot())
}

func (m *Model) apply(snap state.Snapshot) {
	m.snapshot = snap
	m.catalog = m.catalog.UpdateData(snap)
	m.scene = m.scene.UpdateData(snap)
	m.sky = m.sky.UpdateData(snap)
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewCatalog:
		m.catalog, cmd = m.catalog.Update(msg)
	case ViewScene:
		m.scene, cmd = m.scene.Update(msg)
	case ViewSky:
		m.sky, cmd = m.sky.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewCatalog:
		content = m.catalog.View()
	case ViewScene:
		content = m.scene.View()
	case ViewSky:
		content = m.sky.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	title := gradientText("  LS-EXOPLANETS")
	return title + muted.Render(fmt.Sprintf("  v%s · catalog projector", version.Version)) + "\n" + m.renderTabs()
}

// gradientText colours text along the temperature colormap.
func gradientText(text string) string {
	runes := []rune(text)
	var b strings.Builder
	for i, r := range runes {
		t := 0.0
		if len(runes) > 1 {
			t = float64(i) / float64(len(runes)-1)
		}
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(projector.Plasma(t)))
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Catalog", "[2] Scene", "[3] Sky"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	switch {
	case m.snapshot.LastError != nil:
		status = errStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	case len(m.snapshot.Records) == 0:
		status = accentStyle.Render(spinner) + dimStyle.Render(" waiting for catalog...")
	default:
		p := m.snapshot.Projection
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" %d/%d planets · %s",
			p.Included(), p.Total, m.snapshot.Unit.Label()))
		if m.snapshot.Policy.StellarTempFilter {
			status += dimStyle.Render(" · stellar filter")
		}
		if m.snapshot.Source != "" {
			status += dimStyle.Render(" · " + m.snapshot.Source)
		}
	}

	var help string
	switch m.viewMode {
	case ViewScene:
		help = dimStyle.Render("arrows: orbit | +/-: zoom | r: reset | l: labels | u: unit | f: filter | c: colour | esc: clear")
	case ViewSky:
		help = dimStyle.Render("↑↓: focus | enter: select | +/-: zoom | r: overview | l: labels | u: unit | f: filter | c: colour")
	default:
		help = dimStyle.Render("↑↓: navigate | /: search | enter: focus | u: unit | f: filter | c: colour | tab: switch view")
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + help
	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

// ActiveView returns the view currently shown.
func (m Model) ActiveView() ViewMode {
	return m.viewMode
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}
