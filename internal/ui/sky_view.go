package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/camera"
	"github.com/litescript/ls-exoplanets/internal/projector"
	"github.com/litescript/ls-exoplanets/internal/state"
)

const (
	// Animation
	skyAnimDuration  = 400 * time.Millisecond
	skyAnimFrameRate = 30 * time.Millisecond

	// Zoom applied when the map centres on a planet.
	focusZoom   = 1.5
	skyZoomStep = 1.25
	skyMaxZoom  = 16.0

	glyphPinned = '◇' // selected but not focused
	glyphGrid   = '+'

	colorGrid = "238"

	legendSteps = 12
)

// skyAnimMsg is sent during a pan/zoom animation.
type skyAnimMsg time.Time

func skyAnimTick() tea.Cmd {
	return tea.Tick(skyAnimFrameRate, func(t time.Time) tea.Msg {
		return skyAnimMsg(t)
	})
}

// view is a map viewport: the flat coordinate at the centre of the canvas
// and the zoom factor. At zoom 1 the whole [0,1] square is visible.
type view struct {
	x, y, zoom float64
}

var overview = view{x: 0.5, y: 0.5, zoom: 1}

// clamped keeps the viewport inside the unit square.
func (v view) clamped() view {
	if v.zoom < 1 {
		v.zoom = 1
	}
	if v.zoom > skyMaxZoom {
		v.zoom = skyMaxZoom
	}
	half := 0.5 / v.zoom
	v.x = math.Max(half, math.Min(1-half, v.x))
	v.y = math.Max(half, math.Min(1-half, v.y))
	return v
}

// SkyModel plots planets on a flat RA/Dec map. RA runs left to right and
// Dec bottom to top, both normalised over the working set.
type SkyModel struct {
	width  int
	height int

	points     []projector.Point
	unit       astro.Unit
	result     camera.Result
	colorMode  projector.ColorMode
	colorRange projector.ColorRange
	classes    []projector.ClassSwatch
	raRange    projector.Range
	decRange   projector.Range

	revision  string
	focusIdx  int // -1 when nothing is focused
	focusName string

	cam       view
	animating bool
	animFrom  view
	animTo    view
	animStart time.Time

	labelMode LabelMode
}

// NewSkyModel creates a new sky map model.
func NewSkyModel() SkyModel {
	return SkyModel{
		focusIdx:  -1,
		cam:       overview,
		labelMode: LabelSelected,
	}
}

// SetSize updates the viewport size.
func (m SkyModel) SetSize(width, height int) SkyModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData takes a new snapshot. Focus follows the planet by name; a
// changed pose revision moves focus to the selection and recentres the map.
func (m SkyModel) UpdateData(snap state.Snapshot) SkyModel {
	p := snap.Projection
	m.points = p.Points
	m.unit = snap.Unit
	m.result = snap.Camera
	m.colorMode = p.Policy.ColorMode
	m.colorRange = p.ColorRange
	m.classes = p.Classes
	m.raRange = p.RARange
	m.decRange = p.DecRange

	m.focusIdx = m.indexOf(m.focusName)

	if snap.Camera.Pose.Revision != m.revision {
		m.revision = snap.Camera.Pose.Revision
		m.animating = false
		if idx := m.indexOf(snap.Camera.Selected); snap.Camera.Status == camera.Found && idx >= 0 {
			m.focusIdx = idx
			m.cam = m.viewOf(idx, focusZoom)
		} else {
			m.focusIdx = -1
			m.cam = overview
		}
	}

	if m.focusIdx < 0 {
		m.focusName = ""
	} else {
		m.focusName = m.points[m.focusIdx].Name
	}
	if !m.animating {
		m.cam = m.cam.clamped()
	}
	return m
}

func (m SkyModel) indexOf(name string) int {
	if name == "" {
		return -1
	}
	for i, pt := range m.points {
		if pt.Name == name {
			return i
		}
	}
	return -1
}

// viewOf centres on point idx with at least the given zoom.
func (m SkyModel) viewOf(idx int, zoom float64) view {
	pt := m.points[idx]
	return view{x: pt.FlatX, y: pt.FlatY, zoom: math.Max(m.cam.zoom, zoom)}.clamped()
}

// Update handles messages.
func (m SkyModel) Update(msg tea.Msg) (SkyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k", "p":
			return m.focusPrev()
		case "down", "j", "n":
			return m.focusNext()
		case "enter":
			if m.focusIdx >= 0 {
				name := m.points[m.focusIdx].Name
				return m, func() tea.Msg { return SelectMsg{Name: name} }
			}
		case "+", "=":
			target := m.cam
			target.zoom *= skyZoomStep
			return m.animateTo(target)
		case "-", "_":
			target := m.cam
			target.zoom /= skyZoomStep
			return m.animateTo(target)
		case "r":
			m.focusIdx = -1
			m.focusName = ""
			return m.animateTo(overview)
		case "l":
			m.labelMode = (m.labelMode + 1) % 3
		}

	case skyAnimMsg:
		if m.animating {
			return m.updateAnimation()
		}
	}
	return m, nil
}

func (m SkyModel) focusNext() (SkyModel, tea.Cmd) {
	if len(m.points) == 0 {
		return m, nil
	}
	m.focusIdx = (m.focusIdx + 1) % len(m.points)
	return m.focus()
}

func (m SkyModel) focusPrev() (SkyModel, tea.Cmd) {
	if len(m.points) == 0 {
		return m, nil
	}
	m.focusIdx--
	if m.focusIdx < 0 {
		m.focusIdx = len(m.points) - 1
	}
	return m.focus()
}

func (m SkyModel) focus() (SkyModel, tea.Cmd) {
	m.focusName = m.points[m.focusIdx].Name
	return m.animateTo(m.viewOf(m.focusIdx, focusZoom))
}

func (m SkyModel) animateTo(target view) (SkyModel, tea.Cmd) {
	m.animating = true
	m.animFrom = m.cam
	m.animTo = target.clamped()
	m.animStart = time.Now()
	return m, skyAnimTick()
}

func (m SkyModel) updateAnimation() (SkyModel, tea.Cmd) {
	t := float64(time.Since(m.animStart)) / float64(skyAnimDuration)
	if t >= 1.0 {
		m.animating = false
		m.cam = m.animTo
		return m, nil
	}

	// Ease-out cubic
	t = 1 - math.Pow(1-t, 3)

	m.cam = view{
		x:    lerp(m.animFrom.x, m.animTo.x, t),
		y:    lerp(m.animFrom.y, m.animTo.y, t),
		zoom: lerp(m.animFrom.zoom, m.animTo.zoom, t),
	}
	return m, skyAnimTick()
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// toScreen maps flat map coordinates to a canvas cell.
func (m SkyModel) toScreen(fx, fy float64, width, height int) (x, y int, ok bool) {
	u := (fx-m.cam.x)*m.cam.zoom + 0.5
	v := (fy-m.cam.y)*m.cam.zoom + 0.5
	const eps = 1e-9
	if u < -eps || u > 1+eps || v < -eps || v > 1+eps {
		return 0, 0, false
	}
	x = int(math.Round(u * float64(width-1)))
	y = int(math.Round((1 - v) * float64(height-1)))
	return x, y, true
}

// View renders the sky map.
func (m SkyModel) View() string {
	if m.width < 20 || m.height < 10 {
		return "Sky map requires larger terminal"
	}

	viewHeight := m.height - 4

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCanvas(m.width, viewHeight))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m SkyModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	title := titleStyle.Render("Sky Map")
	labels := dimStyle.Render("Labels: " + m.labelMode.String())
	zoom := dimStyle.Render(fmt.Sprintf("zoom %.2fx", m.cam.zoom))

	return fmt.Sprintf("%s | %s | %s | %s", title, labels, zoom, m.renderLegend())
}

// renderLegend shows the class swatches or the temperature gradient,
// whichever the markers are coloured by.
func (m SkyModel) renderLegend() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	if m.colorMode == projector.ColorByClass {
		if len(m.classes) == 0 {
			return dimStyle.Render("no predicted classes")
		}
		parts := make([]string, len(m.classes))
		for i, sw := range m.classes {
			parts[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(sw.Color)).Render("■ " + sw.Class)
		}
		return strings.Join(parts, " ")
	}

	var bar strings.Builder
	for i := 0; i < legendSteps; i++ {
		t := float64(i) / float64(legendSteps-1)
		bar.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(projector.Plasma(t))).Render("█"))
	}
	r := m.colorRange
	return dimStyle.Render(fmt.Sprintf("Teq %.0fK ", r.Min)) + bar.String() + dimStyle.Render(fmt.Sprintf(" %.0fK", r.Max))
}

func (m SkyModel) renderStatus() string {
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorSelected))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorLabel))

	if len(m.points) == 0 {
		return accentStyle.Render("No planets to plot")
	}

	bounds := dimStyle.Render(fmt.Sprintf("    RA %.1f°..%.1f° | Dec %+.1f°..%+.1f° | %d planets",
		m.raRange.Min, m.raRange.Max, m.decRange.Min, m.decRange.Max, len(m.points)))

	if m.focusIdx < 0 {
		return accentStyle.Render(">>> "+m.result.Message(m.unit)) + "\n" + bounds
	}

	pt := m.points[m.focusIdx]
	line := fmt.Sprintf(">>> %s | RA %.3f° Dec %+.3f° | %.2f %s",
		pt.Name, pt.Record.RADeg.Value, pt.Record.DecDeg.Value, pt.Distance, m.unit.Label())
	return accentStyle.Render(line) + "\n" + bounds
}

func (m SkyModel) renderCanvas(width, height int) string {
	canvas, colors := newCanvas(width, height)

	// Quarter graticule
	for _, gx := range []float64{0, 0.25, 0.5, 0.75, 1} {
		for _, gy := range []float64{0, 0.25, 0.5, 0.75, 1} {
			if x, y, ok := m.toScreen(gx, gy, width, height); ok {
				canvas[y][x] = glyphGrid
				colors[y][x] = colorGrid
			}
		}
	}

	selected := ""
	if m.result.Status == camera.Found {
		selected = m.result.Selected
	}

	var positions []labelPos
	var top []labelPos
	for i, pt := range m.points {
		x, y, ok := m.toScreen(pt.FlatX, pt.FlatY, width, height)
		if !ok {
			continue
		}
		pos := labelPos{x: x, y: y, name: pt.Name, selected: i == m.focusIdx}
		positions = append(positions, pos)

		if pos.selected || pt.Name == selected {
			top = append(top, pos)
			continue
		}
		canvas[y][x] = flatGlyph(pt.FlatSize)
		colors[y][x] = lipgloss.Color(pt.Color)
	}

	// Focus and selection are drawn last so nothing hides them.
	for _, p := range top {
		glyph := glyphPinned
		if p.selected {
			glyph = glyphSelected
		}
		canvas[p.y][p.x] = glyph
		colors[p.y][p.x] = colorSelected
	}

	renderLabels(canvas, colors, width, height, positions, m.labelMode)
	return canvasString(canvas, colors)
}

// flatGlyph picks a marker for a 2D marker size.
func flatGlyph(size float64) rune {
	switch {
	case size >= 8:
		return glyphLarge
	case size >= 5:
		return glyphMedium
	default:
		return glyphSmall
	}
}

// Focused returns the name of the focused planet, or "".
func (m SkyModel) Focused() string {
	return m.focusName
}
