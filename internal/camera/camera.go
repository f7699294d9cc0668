// Package camera computes the viewpoint for a projected catalog: a wide
// default orbit around the origin, or a close pose framing a selected planet.
package camera

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/projector"
)

// PersistentView is the revision token used when nothing is selected.
const PersistentView = "PersistentView"

// Defaults, in parsecs.
const (
	DefaultBaseDistance = 1500.0
	DefaultMaxRange     = 3000.0
	DefaultZoomFactor   = 0.05
)

// Up is the fixed camera up vector.
var Up = r3.Vector{X: 0, Y: 0, Z: 1}

// Config holds the camera constants. Distances are in parsecs and scaled
// by the projection unit at use.
type Config struct {
	BaseDistance float64 `mapstructure:"base_distance" json:"base_distance"`
	MaxRange     float64 `mapstructure:"max_range" json:"max_range"`
	ZoomFactor   float64 `mapstructure:"zoom_factor" json:"zoom_factor"`
}

// DefaultConfig returns the standard camera constants.
func DefaultConfig() Config {
	return Config{
		BaseDistance: DefaultBaseDistance,
		MaxRange:     DefaultMaxRange,
		ZoomFactor:   DefaultZoomFactor,
	}
}

// Pose is a camera placement plus the identity token renderers use to
// decide whether user-driven camera changes should survive a redraw.
type Pose struct {
	Up       r3.Vector `json:"up"`
	Center   r3.Vector `json:"center"`
	Eye      r3.Vector `json:"eye"`
	Revision string    `json:"revision"`
}

// Status reports how a selection resolved.
type Status int

const (
	NoSelection Status = iota
	Found
	NotFound
)

func (s Status) String() string {
	switch s {
	case NoSelection:
		return "no_selection"
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of Target.
type Result struct {
	Pose     Pose
	Status   Status
	Selected string           // requested name, empty for none
	Target   *projector.Point // set when Status is Found
}

// DefaultPose is the wide view centred on the origin.
func DefaultPose(unit astro.Unit, cfg Config) Pose {
	k := cfg.BaseDistance * unit.Factor()
	return Pose{
		Up:       Up,
		Center:   astro.Origin,
		Eye:      r3.Vector{X: k, Y: k, Z: k},
		Revision: PersistentView,
	}
}

// FocusPose looks at target from a fixed diagonal offset.
func FocusPose(target r3.Vector, unit astro.Unit, cfg Config) Pose {
	offset := cfg.MaxRange * unit.Factor() * cfg.ZoomFactor
	return Pose{
		Up:     Up,
		Center: target,
		Eye:    target.Add(r3.Vector{X: offset, Y: offset, Z: offset}),
	}
}

// Target resolves selected against points and returns the matching pose.
// An empty name yields the default pose; a name missing from points yields
// the default pose with NotFound. The revision token is the selected name
// whenever one was requested, so repeated renders of one selection agree.
func Target(points []projector.Point, unit astro.Unit, selected string, cfg Config) Result {
	if selected == "" {
		return Result{Pose: DefaultPose(unit, cfg), Status: NoSelection}
	}

	for i := range points {
		if points[i].Name != selected {
			continue
		}
		pt := points[i]
		pose := FocusPose(pt.Pos, unit, cfg)
		pose.Revision = selected
		return Result{Pose: pose, Status: Found, Selected: selected, Target: &pt}
	}

	pose := DefaultPose(unit, cfg)
	pose.Revision = selected
	return Result{Pose: pose, Status: NotFound, Selected: selected}
}

// AxisRange is the fixed half-extent of each scene axis in unit.
func AxisRange(unit astro.Unit, cfg Config) float64 {
	return cfg.MaxRange * unit.Factor()
}

// Message is the status line shown to the user.
func (r Result) Message(unit astro.Unit) string {
	switch r.Status {
	case Found:
		temp := projector.NotAvailable
		if r.Target.ColorValue.Valid {
			temp = fmt.Sprintf("%.0f K", r.Target.ColorValue.Value)
		}
		return fmt.Sprintf("Focused on '%s': %.2f %s away, temperature %s",
			r.Selected, r.Target.Distance, unit.Label(), temp)
	case NotFound:
		return fmt.Sprintf("'%s' not found in the current working set", r.Selected)
	default:
		return "Showing the full catalog"
	}
}
