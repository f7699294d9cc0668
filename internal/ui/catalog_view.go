package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/projector"
	"github.com/litescript/ls-exoplanets/internal/state"
)

// Styles for the catalog browser
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	searchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9D4EDD"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// SelectMsg asks the root model to focus the camera on a planet.
type SelectMsg struct {
	Name string
}

// CatalogModel is a scrollable, searchable list of projected planets.
type CatalogModel struct {
	width  int
	height int

	points   []projector.Point
	unit     astro.Unit
	selected string
	total    int
	excluded int

	visible []int // indices into points matching the query
	cursor  int
	offset  int

	searching bool
	query     string
}

// NewCatalogModel creates a new catalog browser.
func NewCatalogModel() CatalogModel {
	return CatalogModel{}
}

// SetSize updates the viewport size.
func (m CatalogModel) SetSize(width, height int) CatalogModel {
	m.width = width
	m.height = height
	return m.clampCursor()
}

// UpdateData takes a new snapshot, keeping the cursor on the same planet
// when it is still listed.
func (m CatalogModel) UpdateData(snap state.Snapshot) CatalogModel {
	current := m.CursorName()

	m.points = snap.Projection.Points
	m.unit = snap.Unit
	m.selected = snap.Selected
	m.total = snap.Projection.Total
	m.excluded = snap.Projection.ExcludedCount()
	m = m.applyQuery()

	for i, idx := range m.visible {
		if m.points[idx].Name == current {
			m.cursor = i
			break
		}
	}
	return m.clampCursor()
}

// Searching reports whether the search prompt has focus.
func (m CatalogModel) Searching() bool {
	return m.searching
}

// Query returns the current search text.
func (m CatalogModel) Query() string {
	return m.query
}

// CursorName returns the planet under the cursor, or "".
func (m CatalogModel) CursorName() string {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return ""
	}
	return m.points[m.visible[m.cursor]].Name
}

// Update handles messages.
func (m CatalogModel) Update(msg tea.Msg) (CatalogModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.searching {
		switch key.Type {
		case tea.KeyEnter:
			m.searching = false
		case tea.KeyEsc:
			m.searching = false
			m.query = ""
			m = m.applyQuery()
		case tea.KeyBackspace:
			if r := []rune(m.query); len(r) > 0 {
				m.query = string(r[:len(r)-1])
				m = m.applyQuery()
			}
		case tea.KeySpace:
			m.query += " "
			m = m.applyQuery()
		case tea.KeyRunes:
			m.query += string(key.Runes)
			m = m.applyQuery()
		}
		return m.clampCursor(), nil
	}

	switch key.String() {
	case "up", "k":
		m.cursor--
	case "down", "j":
		m.cursor++
	case "pgup":
		m.cursor -= m.pageSize()
	case "pgdown":
		m.cursor += m.pageSize()
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.visible) - 1
	case "/":
		m.searching = true
	case "enter":
		if name := m.CursorName(); name != "" {
			return m, func() tea.Msg { return SelectMsg{Name: name} }
		}
	}
	return m.clampCursor(), nil
}

func (m CatalogModel) applyQuery() CatalogModel {
	q := strings.ToLower(strings.TrimSpace(m.query))
	m.visible = m.visible[:0:0]
	for i, pt := range m.points {
		if q == "" || strings.Contains(strings.ToLower(pt.Name), q) {
			m.visible = append(m.visible, i)
		}
	}
	return m
}

func (m CatalogModel) pageSize() int {
	// Title, search line, header and summary take 5 lines.
	if n := m.height - 5; n > 1 {
		return n
	}
	return 1
}

func (m CatalogModel) clampCursor() CatalogModel {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	return m
}

// View renders the catalog browser.
func (m CatalogModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Catalog"))
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(searchStyle.Render("/" + m.query + "█"))
	case m.query != "":
		b.WriteString(searchStyle.Render(fmt.Sprintf("filter: %q (/ to edit)", m.query)))
	default:
		b.WriteString(rowStyle.Render("/ to search, enter to focus"))
	}
	b.WriteString("\n")

	header := fmt.Sprintf("%-28s %12s %10s %6s %-14s",
		"Name", "Dist ("+m.unit.Label()+")", "Temp", "Size", "Class")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if len(m.visible) == 0 {
		if len(m.points) == 0 {
			b.WriteString(errorStyle.Render("No planets in the working set"))
		} else {
			b.WriteString(rowStyle.Render("No planets match the search"))
		}
		b.WriteString("\n")
	}

	end := m.offset + m.pageSize()
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for i := m.offset; i < end; i++ {
		pt := m.points[m.visible[i]]
		temp := projector.NotAvailable
		if t := pt.Record.EqTempK; t.Valid {
			temp = fmt.Sprintf("%.0f K", t.Value)
		}
		class := pt.Record.PredictedClass
		if class == "" {
			class = "-"
		}

		marker := lipgloss.NewStyle().Foreground(lipgloss.Color(pt.Color)).Render("●")
		if pt.Name == m.selected {
			marker = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSelected)).Render("◆")
		}
		line := fmt.Sprintf("%-26s %12.2f %10s %6.1f %-14s",
			truncate(pt.Name, 26), pt.Distance, temp, pt.Size, truncate(class, 14))

		b.WriteString(marker + " ")
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(rowStyle.Render(fmt.Sprintf("%d of %d shown, %d excluded by filters",
		len(m.visible), m.total, m.excluded)))
	return b.String()
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-2]) + ".."
}
