package ui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r3"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/camera"
	"github.com/litescript/ls-exoplanets/internal/projector"
	"github.com/litescript/ls-exoplanets/internal/state"
)

const (
	// Vertical field of view in degrees
	sceneFOV = 60.0

	// Terminal cells are roughly twice as tall as they are wide.
	cellAspect = 0.5

	orbitStepDeg = 15.0
	pitchStepDeg = 10.0
	maxElevation = 85.0
	zoomStep     = 0.8
	minZoom      = 0.05
	maxZoom      = 20.0

	glyphLarge    = '●'
	glyphMedium   = '•'
	glyphSmall    = '·'
	glyphSelected = '◆'
	glyphOrigin   = '☉'

	colorSelected   = "229" // bright gold
	colorOrigin     = "#ffd700"
	colorBackground = "236"
	colorLabel      = "#d0c8ff"
)

// LabelMode controls which planets are labelled in the scene.
type LabelMode int

const (
	LabelNone     LabelMode = iota // No labels
	LabelSelected                  // Only the selected planet
	LabelAll                       // Every visible planet
)

func (l LabelMode) String() string {
	switch l {
	case LabelNone:
		return "off"
	case LabelAll:
		return "all"
	default:
		return "selection"
	}
}

// SceneModel renders projected points through the camera pose. User orbit
// and zoom are offsets from the pose and survive refreshes while the pose
// revision is unchanged.
type SceneModel struct {
	width  int
	height int

	points []projector.Point
	unit   astro.Unit
	result camera.Result

	revision string
	yaw      float64 // degrees about the up axis
	pitch    float64 // degrees of elevation
	zoom     float64 // multiplier on eye distance

	labelMode LabelMode
}

// NewSceneModel creates a new scene model.
func NewSceneModel() SceneModel {
	return SceneModel{
		zoom:      1,
		labelMode: LabelSelected,
	}
}

// SetSize updates the viewport size.
func (m SceneModel) SetSize(width, height int) SceneModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData takes a new snapshot. A changed pose revision discards the
// user's orbit and zoom.
func (m SceneModel) UpdateData(snap state.Snapshot) SceneModel {
	m.points = snap.Projection.Points
	m.unit = snap.Unit
	m.result = snap.Camera

	if snap.Camera.Pose.Revision != m.revision {
		m.revision = snap.Camera.Pose.Revision
		m = m.resetOrbit()
	}
	return m
}

func (m SceneModel) resetOrbit() SceneModel {
	m.yaw = 0
	m.pitch = 0
	m.zoom = 1
	return m
}

// Update handles messages.
func (m SceneModel) Update(msg tea.Msg) (SceneModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "left", "h":
			m.yaw -= orbitStepDeg
		case "right":
			m.yaw += orbitStepDeg
		case "up", "k":
			m.pitch += pitchStepDeg
		case "down", "j":
			m.pitch -= pitchStepDeg
		case "+", "=":
			m.zoom = math.Max(minZoom, m.zoom*zoomStep)
		case "-", "_":
			m.zoom = math.Min(maxZoom, m.zoom/zoomStep)
		case "l":
			m.labelMode = (m.labelMode + 1) % 3
		case "r":
			m = m.resetOrbit()
		}
	}
	return m, nil
}

// Eye returns the effective eye position after user orbit and zoom.
func (m SceneModel) Eye() r3.Vector {
	pose := m.result.Pose
	az, el, d := astro.CartesianToEquatorial(pose.Eye.Sub(pose.Center))
	el = math.Max(-maxElevation, math.Min(maxElevation, el+m.pitch))
	return pose.Center.Add(astro.EquatorialToCartesian(az+m.yaw, el, d*m.zoom))
}

// viewBasis is an orthonormal camera frame.
type viewBasis struct {
	eye, forward, right, up r3.Vector
}

func newViewBasis(eye, center, up r3.Vector) viewBasis {
	f := center.Sub(eye).Normalize()
	right := f.Cross(up)
	if right.Norm() == 0 {
		right = f.Cross(r3.Vector{X: 1})
	}
	right = right.Normalize()
	return viewBasis{eye: eye, forward: f, right: right, up: right.Cross(f)}
}

// project maps p to screen cells. Points at or behind the eye are not
// visible.
func (b viewBasis) project(p r3.Vector, width, height int) (x, y int, depth float64, ok bool) {
	d := p.Sub(b.eye)
	cz := d.Dot(b.forward)
	if cz <= 0 {
		return 0, 0, 0, false
	}
	cx := d.Dot(b.right)
	cy := d.Dot(b.up)

	focal := 1 / math.Tan(sceneFOV/2*math.Pi/180)
	scale := float64(height) / 2 * focal
	sx := float64(width)/2 + cx/cz*scale/cellAspect
	sy := float64(height)/2 - cy/cz*scale

	x = int(math.Floor(sx))
	y = int(math.Floor(sy))
	if x < 0 || x >= width || y < 0 || y >= height {
		return x, y, cz, false
	}
	return x, y, cz, true
}

// View renders the scene.
func (m SceneModel) View() string {
	if m.width < 20 || m.height < 10 {
		return "Scene view requires larger terminal"
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

func (m SceneModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorLabel))

	title := titleStyle.Render("3D Scene")
	unit := accentStyle.Render("Unit: " + m.unit.Label())
	labels := dimStyle.Render("Labels: " + m.labelMode.String())
	orbit := dimStyle.Render(fmt.Sprintf("yaw %+.0f° pitch %+.0f° zoom %.2fx", m.yaw, m.pitch, 1/m.zoom))

	return fmt.Sprintf("%s | %s | %s | %s", title, unit, labels, orbit)
}

func (m SceneModel) renderStatus() string {
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorSelected))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorLabel))

	status := accentStyle.Render(">>> " + m.result.Message(m.unit))
	if m.result.Target != nil {
		lines := strings.Split(m.result.Target.Hover, "\n")
		if len(lines) > 1 {
			status += "\n" + dimStyle.Render("    "+strings.Join(lines[1:], " | "))
		}
	}
	return status
}

// labelPos tracks a drawn planet for label placement.
type labelPos struct {
	x, y     int
	name     string
	selected bool
}

func (m SceneModel) renderCanvas(width, height int) string {
	canvas, colors := newCanvas(width, height)

	basis := newViewBasis(m.Eye(), m.result.Pose.Center, m.result.Pose.Up)

	type drawn struct {
		x, y  int
		depth float64
		pt    *projector.Point
	}
	var visible []drawn
	for i := range m.points {
		x, y, depth, ok := basis.project(m.points[i].Pos, width, height)
		if !ok {
			continue
		}
		visible = append(visible, drawn{x: x, y: y, depth: depth, pt: &m.points[i]})
	}

	// Far to near so closer planets win a shared cell.
	sort.Slice(visible, func(i, j int) bool { return visible[i].depth > visible[j].depth })

	if x, y, _, ok := basis.project(astro.Origin, width, height); ok {
		canvas[y][x] = glyphOrigin
		colors[y][x] = colorOrigin
	}

	var positions []labelPos
	for _, d := range visible {
		selected := m.result.Status == camera.Found && d.pt.Name == m.result.Selected
		glyph := sizeGlyph(d.pt.Size)
		color := lipgloss.Color(d.pt.Color)
		if selected {
			glyph = glyphSelected
			color = colorSelected
		}
		canvas[d.y][d.x] = glyph
		colors[d.y][d.x] = color
		positions = append(positions, labelPos{x: d.x, y: d.y, name: d.pt.Name, selected: selected})
	}

	// The selected marker is drawn last so nothing hides it.
	for _, p := range positions {
		if p.selected {
			canvas[p.y][p.x] = glyphSelected
			colors[p.y][p.x] = colorSelected
		}
	}

	renderLabels(canvas, colors, width, height, positions, m.labelMode)
	return canvasString(canvas, colors)
}

func newCanvas(width, height int) ([][]rune, [][]lipgloss.Color) {
	canvas := make([][]rune, height)
	colors := make([][]lipgloss.Color, height)
	for y := 0; y < height; y++ {
		canvas[y] = make([]rune, width)
		colors[y] = make([]lipgloss.Color, width)
		for x := 0; x < width; x++ {
			canvas[y][x] = ' '
			colors[y][x] = colorBackground
		}
	}
	return canvas, colors
}

func canvasString(canvas [][]rune, colors [][]lipgloss.Color) string {
	var b strings.Builder
	for y := range canvas {
		for x := range canvas[y] {
			style := lipgloss.NewStyle().Foreground(colors[y][x])
			b.WriteString(style.Render(string(canvas[y][x])))
		}
		if y < len(canvas)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderLabels writes names to the right of their glyphs. The selected
// planet's label wins any overlap.
func renderLabels(canvas [][]rune, colors [][]lipgloss.Color, width, height int, positions []labelPos, mode LabelMode) {
	if mode == LabelNone || len(positions) == 0 {
		return
	}

	claimed := make(map[int]map[int]bool)
	for _, p := range positions {
		if !p.selected {
			continue
		}
		if claimed[p.y] == nil {
			claimed[p.y] = make(map[int]bool)
		}
		for x := p.x + 2; x < p.x+4+len([]rune(p.name)); x++ {
			claimed[p.y][x] = true
		}
	}

	for _, p := range positions {
		if mode == LabelSelected && !p.selected {
			continue
		}
		text := p.name
		color := lipgloss.Color(colorLabel)
		if p.selected {
			text = "◄ " + p.name
			color = colorSelected
		}
		for i, r := range []rune(text) {
			x := p.x + 2 + i
			if x >= width || p.y < 0 || p.y >= height {
				break
			}
			if !p.selected && claimed[p.y][x] {
				continue
			}
			canvas[p.y][x] = r
			colors[p.y][x] = color
		}
	}
}

// sizeGlyph picks a marker for a projected marker size.
func sizeGlyph(size float64) rune {
	switch {
	case size >= 18:
		return glyphLarge
	case size >= 12:
		return glyphMedium
	default:
		return glyphSmall
	}
}

// Revision returns the pose revision the orbit offsets belong to.
func (m SceneModel) Revision() string {
	return m.revision
}
