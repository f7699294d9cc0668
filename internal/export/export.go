// Package export renders projected catalogs for external consumers: a
// chart-ready figure payload (JSON or YAML) and a plain-text summary table.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/camera"
	"github.com/litescript/ls-exoplanets/internal/projector"
	"github.com/litescript/ls-exoplanets/internal/state"
)

// Origin marker appearance.
const (
	OriginName  = "Sun"
	OriginColor = "#ffd700"
	OriginSize  = 12.0
)

// Vec3 is a JSON-friendly 3D vector.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

func vec(v r3.Vector) Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Marker is a single distinguished point.
type Marker struct {
	Name  string  `json:"name" yaml:"name"`
	Pos   Vec3    `json:"pos" yaml:"pos"`
	Color string  `json:"color" yaml:"color"`
	Size  float64 `json:"size" yaml:"size"`
}

// Trace holds per-point arrays in projection order.
type Trace struct {
	Name       []string   `json:"name" yaml:"name"`
	X          []float64  `json:"x" yaml:"x"`
	Y          []float64  `json:"y" yaml:"y"`
	Z          []float64  `json:"z" yaml:"z"`
	Size       []float64  `json:"size" yaml:"size"`
	FlatX      []float64  `json:"flat_x" yaml:"flat_x"`
	FlatY      []float64  `json:"flat_y" yaml:"flat_y"`
	FlatSize   []float64  `json:"flat_size" yaml:"flat_size"`
	Color      []string   `json:"color" yaml:"color"`
	ColorValue []*float64 `json:"color_value" yaml:"color_value"`
	Class      []string   `json:"class" yaml:"class"`
	Hover      []string   `json:"hover" yaml:"hover"`
}

// ColorScale describes the temperature colour mapping.
type ColorScale struct {
	Name     string  `json:"name" yaml:"name"`
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
	Fallback bool    `json:"fallback" yaml:"fallback"`
	Mode     string  `json:"mode" yaml:"mode"`

	// Classes is the categorical legend, in order of first appearance.
	Classes []projector.ClassSwatch `json:"classes,omitempty" yaml:"classes,omitempty"`
}

// CameraExport is the renderer camera object.
type CameraExport struct {
	Up     Vec3 `json:"up" yaml:"up"`
	Center Vec3 `json:"center" yaml:"center"`
	Eye    Vec3 `json:"eye" yaml:"eye"`
}

// Figure is everything a 3D scatter renderer needs for one frame.
type Figure struct {
	ID          string         `json:"id" yaml:"id"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Unit        string         `json:"unit" yaml:"unit"`
	AxisTitles  [3]string      `json:"axis_titles" yaml:"axis_titles"`
	AxisRange   [2]float64     `json:"axis_range" yaml:"axis_range"`
	Origin      Marker         `json:"origin" yaml:"origin"`
	Points      Trace          `json:"points" yaml:"points"`
	ColorScale  ColorScale     `json:"color_scale" yaml:"color_scale"`
	Camera      CameraExport   `json:"camera" yaml:"camera"`
	Revision    string         `json:"revision" yaml:"revision"`
	Selected    string         `json:"selected,omitempty" yaml:"selected,omitempty"`
	Status      string         `json:"status" yaml:"status"`
	Message     string         `json:"message" yaml:"message"`
	Total       int            `json:"total" yaml:"total"`
	Included    int            `json:"included" yaml:"included"`
	Excluded    int            `json:"excluded" yaml:"excluded"`
	ExcludedBy  map[string]int `json:"excluded_by" yaml:"excluded_by"`
	Version     uint64         `json:"version,omitempty" yaml:"version,omitempty"`
}

// NewFigure builds a figure from a projection and its camera result.
func NewFigure(proj projector.Projection, cam camera.Result, cfg camera.Config) *Figure {
	unit := proj.Unit
	r := camera.AxisRange(unit, cfg)
	n := len(proj.Points)

	fig := &Figure{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Unit:        unit.Label(),
		AxisTitles:  axisTitles(unit),
		AxisRange:   [2]float64{-r, r},
		Origin: Marker{
			Name:  OriginName,
			Pos:   vec(astro.Origin),
			Color: OriginColor,
			Size:  OriginSize,
		},
		Points: Trace{
			Name:       make([]string, 0, n),
			X:          make([]float64, 0, n),
			Y:          make([]float64, 0, n),
			Z:          make([]float64, 0, n),
			Size:       make([]float64, 0, n),
			FlatX:      make([]float64, 0, n),
			FlatY:      make([]float64, 0, n),
			FlatSize:   make([]float64, 0, n),
			Color:      make([]string, 0, n),
			ColorValue: make([]*float64, 0, n),
			Class:      make([]string, 0, n),
			Hover:      make([]string, 0, n),
		},
		ColorScale: ColorScale{
			Name:     "Plasma",
			Min:      proj.ColorRange.Min,
			Max:      proj.ColorRange.Max,
			Fallback: proj.ColorRange.Fallback,
			Mode:     proj.Policy.ColorMode.String(),
			Classes:  proj.Classes,
		},
		Camera: CameraExport{
			Up:     vec(cam.Pose.Up),
			Center: vec(cam.Pose.Center),
			Eye:    vec(cam.Pose.Eye),
		},
		Revision:   cam.Pose.Revision,
		Selected:   cam.Selected,
		Status:     cam.Status.String(),
		Message:    cam.Message(unit),
		Total:      proj.Total,
		Included:   proj.Included(),
		Excluded:   proj.ExcludedCount(),
		ExcludedBy: make(map[string]int, len(projector.Reasons)),
	}

	for _, pt := range proj.Points {
		fig.Points.Name = append(fig.Points.Name, pt.Name)
		fig.Points.X = append(fig.Points.X, pt.Pos.X)
		fig.Points.Y = append(fig.Points.Y, pt.Pos.Y)
		fig.Points.Z = append(fig.Points.Z, pt.Pos.Z)
		fig.Points.Size = append(fig.Points.Size, pt.Size)
		fig.Points.FlatX = append(fig.Points.FlatX, pt.FlatX)
		fig.Points.FlatY = append(fig.Points.FlatY, pt.FlatY)
		fig.Points.FlatSize = append(fig.Points.FlatSize, pt.FlatSize)
		fig.Points.Color = append(fig.Points.Color, pt.Color)
		fig.Points.Class = append(fig.Points.Class, pt.ColorKey)
		fig.Points.Hover = append(fig.Points.Hover, pt.Hover)
		if pt.ColorValue.Valid {
			v := pt.ColorValue.Value
			fig.Points.ColorValue = append(fig.Points.ColorValue, &v)
		} else {
			fig.Points.ColorValue = append(fig.Points.ColorValue, nil)
		}
	}

	for reason, count := range proj.ExclusionCounts() {
		fig.ExcludedBy[reason.String()] = count
	}

	return fig
}

// FromSnapshot builds a figure from a state snapshot.
func FromSnapshot(snap state.Snapshot) *Figure {
	fig := NewFigure(snap.Projection, snap.Camera, snap.CameraConfig)
	fig.Version = snap.Version
	return fig
}

func axisTitles(unit astro.Unit) [3]string {
	l := unit.Label()
	return [3]string{"X (" + l + ")", "Y (" + l + ")", "Z (" + l + ")"}
}

// WriteJSON writes the figure as indented JSON.
func (f *Figure) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// WriteYAML writes the figure as YAML.
func (f *Figure) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// SummaryRow represents one row in the summary table.
type SummaryRow struct {
	Name     string
	RA       float64
	Dec      float64
	Distance float64
	Pos      r3.Vector
	Temp     string
	Size     float64
	Class    string
}

// GenerateSummaryRows creates one row per projected point.
func GenerateSummaryRows(proj projector.Projection) []SummaryRow {
	rows := make([]SummaryRow, 0, len(proj.Points))
	for _, pt := range proj.Points {
		temp := projector.NotAvailable
		if pt.ColorValue.Valid {
			temp = fmt.Sprintf("%.0f K", pt.ColorValue.Value)
		}
		class := pt.ColorKey
		if class == "" {
			class = "-"
		}
		rows = append(rows, SummaryRow{
			Name:     pt.Name,
			RA:       pt.Record.RADeg.Value,
			Dec:      pt.Record.DecDeg.Value,
			Distance: pt.Distance,
			Pos:      pt.Pos,
			Temp:     temp,
			Size:     pt.Size,
			Class:    class,
		})
	}
	return rows
}

// WriteSummaryTable writes a text table of the projection to w.
func WriteSummaryTable(w io.Writer, proj projector.Projection, cam camera.Result, timestamp time.Time) {
	unit := proj.Unit
	rows := GenerateSummaryRows(proj)

	fmt.Fprintf(w, "Exoplanet projection (%s) @ %s\n", unit.Label(), timestamp.Format(time.RFC3339))
	fmt.Fprintln(w, strings.Repeat("─", 118))

	if len(rows) == 0 {
		fmt.Fprintln(w, "No planets in the working set")
	} else {
		fmt.Fprintf(w, "%-22s %8s %8s %12s %12s %12s %12s %8s %5s %-14s\n",
			"Name", "RA", "Dec", "Dist ("+unit.Label()+")", "X", "Y", "Z", "Temp", "Size", "Class")
		fmt.Fprintln(w, strings.Repeat("─", 118))

		for _, r := range rows {
			fmt.Fprintf(w, "%-22s %8.3f %8.3f %12.3f %12.3f %12.3f %12.3f %8s %5.1f %-14s\n",
				truncateStr(r.Name, 22),
				r.RA,
				r.Dec,
				r.Distance,
				r.Pos.X,
				r.Pos.Y,
				r.Pos.Z,
				r.Temp,
				r.Size,
				truncateStr(r.Class, 14),
			)
		}
	}

	fmt.Fprintf(w, "\nIncluded: %d of %d", proj.Included(), proj.Total)
	if proj.ExcludedCount() > 0 {
		var parts []string
		for _, reason := range projector.Reasons {
			if n := proj.ExcludedBy(reason); n > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", reason, n))
			}
		}
		fmt.Fprintf(w, " (excluded: %s)", strings.Join(parts, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Camera: %s\n", cam.Message(unit))
}

// WriteEvents writes recent state events, oldest first.
func WriteEvents(w io.Writer, events []state.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events")
		return
	}
	for _, e := range events {
		subject := e.Name
		if subject == "" {
			subject = e.Detail
		} else if e.Detail != "" {
			subject += " (" + e.Detail + ")"
		}
		fmt.Fprintf(w, "%s  %-18s %s\n", e.Timestamp.Format("15:04:05"), e.Type, subject)
	}
}

// truncateStr shortens s to maxLen runes.
func truncateStr(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-2]) + ".."
}
