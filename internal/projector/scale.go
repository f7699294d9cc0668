package projector

import (
	"gonum.org/v1/gonum/floats"

	"github.com/litescript/ls-exoplanets/internal/catalog"
)

// Marker sizing.
const (
	FlatSizeMin = 2.0
	FlatSizeMax = 10.0

	SizeFloor = 6.0
	SizeSpan  = 18.0
)

// Colour scale fallback, used when the working set has no usable spread.
const (
	FallbackTempMin = 100.0
	FallbackTempMax = 3000.0
)

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Degenerate reports whether the range has no width.
func (r Range) Degenerate() bool {
	return r.Max <= r.Min
}

// Normalize maps v into [0,1]; degenerate ranges map everything to 0.
func (r Range) Normalize(v float64) float64 {
	if r.Degenerate() {
		return 0
	}
	t := (v - r.Min) / (r.Max - r.Min)
	return clamp(t, 0, 1)
}

// Flat maps v into [0,1] for the 2D sky map. A degenerate range puts
// every value at the centre, 0.5.
func (r Range) Flat(v float64) float64 {
	if r.Degenerate() {
		return 0.5
	}
	return r.Normalize(v)
}

// Scale maps v to floor + span*t where t is v's position in the range.
func (r Range) Scale(v, floor, span float64) float64 {
	return floor + span*r.Normalize(v)
}

// ColorRange is the temperature interval used for colouring.
type ColorRange struct {
	Range
	Fallback bool `json:"fallback"` // true when FallbackTempMin/Max were used
}

// FlatSize is the 2D marker size for a radius in Earth radii.
func FlatSize(radius float64) float64 {
	return clamp(radius, FlatSizeMin, FlatSizeMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func radiusRange(points []Point) Range {
	if len(points) == 0 {
		return Range{}
	}
	radii := make([]float64, len(points))
	for i, pt := range points {
		radii[i] = pt.Record.Radius()
	}
	return Range{Min: floats.Min(radii), Max: floats.Max(radii)}
}

func skyRanges(points []Point) (ra, dec Range) {
	if len(points) == 0 {
		return Range{}, Range{}
	}
	ras := make([]float64, len(points))
	decs := make([]float64, len(points))
	for i, pt := range points {
		ras[i] = pt.Record.RADeg.Value
		decs[i] = pt.Record.DecDeg.Value
	}
	return Range{Min: floats.Min(ras), Max: floats.Max(ras)},
		Range{Min: floats.Min(decs), Max: floats.Max(decs)}
}

func temperatureRange(points []Point) ColorRange {
	temps := make([]float64, 0, len(points))
	for _, pt := range points {
		if finite(pt.ColorValue) {
			temps = append(temps, pt.ColorValue.Value)
		}
	}
	return NewColorRange(temps)
}

// NewColorRange spans temps, falling back to [FallbackTempMin,
// FallbackTempMax] when temps is empty or all equal.
func NewColorRange(temps []float64) ColorRange {
	if len(temps) == 0 {
		return fallbackColorRange()
	}
	r := Range{Min: floats.Min(temps), Max: floats.Max(temps)}
	if r.Degenerate() {
		return fallbackColorRange()
	}
	return ColorRange{Range: r}
}

func fallbackColorRange() ColorRange {
	return ColorRange{
		Range:    Range{Min: FallbackTempMin, Max: FallbackTempMax},
		Fallback: true,
	}
}

// Color returns the hex colour for a temperature, or NeutralColor when
// the temperature is missing.
func (c ColorRange) Color(temp catalog.Float) string {
	if !finite(temp) {
		return NeutralColor
	}
	return Plasma(c.Normalize(temp.Value))
}
