// Package projector turns catalog records into renderable 3D points.
//
// Project is a pure function: it never mutates its input, retains no state
// between calls and never fails for well-typed input. Records that cannot be
// placed are reported as exclusions with a reason rather than as errors.
package projector

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/catalog"
)

// Validity bounds.
const (
	MinDistancePc  = 0.01 // distances at or below this are excluded
	StellarTeffMin = 1000.0
	StellarTeffMax = 10000.0
)

// Reason explains why a record was left out of a projection.
type Reason int

const (
	ReasonMissingField Reason = iota
	ReasonTooClose
	ReasonRAOutOfRange
	ReasonDecOutOfRange
	ReasonStellarTemp
)

// Reasons lists every exclusion reason in filter order.
var Reasons = []Reason{
	ReasonMissingField, ReasonTooClose, ReasonRAOutOfRange, ReasonDecOutOfRange, ReasonStellarTemp,
}

func (r Reason) String() string {
	switch r {
	case ReasonMissingField:
		return "missing_field"
	case ReasonTooClose:
		return "too_close"
	case ReasonRAOutOfRange:
		return "ra_out_of_range"
	case ReasonDecOutOfRange:
		return "dec_out_of_range"
	case ReasonStellarTemp:
		return "stellar_temp"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Policy controls filtering and colour encoding.
type Policy struct {
	// StellarTempFilter drops records whose host star temperature is
	// present and outside [StellarTeffMin, StellarTeffMax].
	StellarTempFilter bool
	ColorMode         ColorMode
}

// DefaultPolicy colours by temperature with the stellar filter off.
func DefaultPolicy() Policy {
	return Policy{ColorMode: ColorByTemperature}
}

// Exclusion records a dropped input row.
type Exclusion struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Reason Reason `json:"reason"`
}

// Point is one projected record.
type Point struct {
	Index      int           // position in the input slice
	Name       string
	Pos        r3.Vector     // Cartesian position in the projection unit
	Distance   float64       // distance from the origin in the projection unit
	ColorValue catalog.Float // equilibrium temperature in K
	ColorKey   string        // predicted class, for categorical colouring
	Color      string        // hex marker colour
	Size       float64       // 3D marker size
	FlatSize   float64       // 2D marker size
	FlatX      float64       // RA normalised over the working set, [0,1]
	FlatY      float64       // Dec normalised over the working set, [0,1]
	Hover      string
	Record     catalog.Record
}

// Projection is the result of one projection pass.
type Projection struct {
	Unit       astro.Unit
	Policy     Policy
	Points     []Point
	Exclusions []Exclusion
	ColorRange ColorRange
	SizeRange  Range         // radius range (Earth radii) of the working set
	RARange    Range         // degrees, spans the working set
	DecRange   Range         // degrees, spans the working set
	Classes    []ClassSwatch // predicted classes in order of appearance
	Total      int           // input records
}

// Included returns the number of projected points.
func (p Projection) Included() int {
	return len(p.Points)
}

// ExcludedCount returns the number of dropped records.
func (p Projection) ExcludedCount() int {
	return len(p.Exclusions)
}

// ExcludedBy counts exclusions for one reason.
func (p Projection) ExcludedBy(reason Reason) int {
	n := 0
	for _, e := range p.Exclusions {
		if e.Reason == reason {
			n++
		}
	}
	return n
}

// ExclusionCounts returns counts keyed by reason, including zeros.
func (p Projection) ExclusionCounts() map[Reason]int {
	counts := make(map[Reason]int, len(Reasons))
	for _, r := range Reasons {
		counts[r] = 0
	}
	for _, e := range p.Exclusions {
		counts[e.Reason]++
	}
	return counts
}

// Find returns the point with the given name.
func (p Projection) Find(name string) (Point, bool) {
	for _, pt := range p.Points {
		if pt.Name == name {
			return pt, true
		}
	}
	return Point{}, false
}

// Check applies the validity filter to a single record. The boolean is
// true when the record is eligible.
func Check(r catalog.Record, policy Policy) (Reason, bool) {
	if !r.HasCoordinates() || !finite(r.RADeg) || !finite(r.DecDeg) || !finite(r.DistancePc) {
		return ReasonMissingField, false
	}
	if r.DistancePc.Value <= MinDistancePc {
		return ReasonTooClose, false
	}
	if ra := r.RADeg.Value; ra < 0 || ra > 360 {
		return ReasonRAOutOfRange, false
	}
	if dec := r.DecDeg.Value; dec < -90 || dec > 90 {
		return ReasonDecOutOfRange, false
	}
	if policy.StellarTempFilter && finite(r.StellarTeffK) {
		if t := r.StellarTeffK.Value; t < StellarTeffMin || t > StellarTeffMax {
			return ReasonStellarTemp, false
		}
	}
	return 0, true
}

func finite(f catalog.Float) bool {
	return f.Valid && !math.IsNaN(f.Value) && !math.IsInf(f.Value, 0)
}

// Project filters records and places the survivors in unit. Point order
// matches input order.
func Project(records []catalog.Record, unit astro.Unit, policy Policy) Projection {
	factor := unit.Factor()

	proj := Projection{
		Unit:   unit,
		Policy: policy,
		Total:  len(records),
		Points: make([]Point, 0, len(records)),
	}

	for i, r := range records {
		if reason, ok := Check(r, policy); !ok {
			proj.Exclusions = append(proj.Exclusions, Exclusion{Index: i, Name: r.Name, Reason: reason})
			continue
		}

		d := r.DistancePc.Value * factor
		proj.Points = append(proj.Points, Point{
			Index:      i,
			Name:       r.Name,
			Pos:        astro.EquatorialToCartesian(r.RADeg.Value, r.DecDeg.Value, d),
			Distance:   d,
			ColorValue: r.EqTempK,
			ColorKey:   r.PredictedClass,
			FlatSize:   FlatSize(r.Radius()),
			Record:     r,
		})
	}

	proj.SizeRange = radiusRange(proj.Points)
	proj.ColorRange = temperatureRange(proj.Points)
	proj.RARange, proj.DecRange = skyRanges(proj.Points)

	palette := newClassPalette(proj.Points)
	proj.Classes = palette.swatches()
	for i := range proj.Points {
		pt := &proj.Points[i]
		pt.Size = proj.SizeRange.Scale(pt.Record.Radius(), SizeFloor, SizeSpan)
		pt.FlatX = proj.RARange.Flat(pt.Record.RADeg.Value)
		pt.FlatY = proj.DecRange.Flat(pt.Record.DecDeg.Value)
		switch policy.ColorMode {
		case ColorByClass:
			pt.Color = palette.Color(pt.ColorKey)
		default:
			pt.Color = proj.ColorRange.Color(pt.ColorValue)
		}
		pt.Hover = HoverText(pt.Record, pt.Distance, unit)
	}

	return proj
}
