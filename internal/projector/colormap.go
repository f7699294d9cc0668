package projector

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorMode selects how markers are coloured.
type ColorMode int

const (
	ColorByTemperature ColorMode = iota
	ColorByClass
)

func (m ColorMode) String() string {
	switch m {
	case ColorByClass:
		return "class"
	default:
		return "temperature"
	}
}

// ParseColorMode parses "temperature"/"temp" or "class".
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "temperature", "temp", "pl_eqt":
		return ColorByTemperature, nil
	case "class", "predicted_class", "prediction":
		return ColorByClass, nil
	default:
		return ColorByTemperature, fmt.Errorf("unknown color mode %q", s)
	}
}

// NeutralColor is used for markers with no colour value.
const NeutralColor = "#9e9e9e"

// plasmaStops are evenly spaced samples of the Plasma colormap.
var plasmaStops = mustHexes(
	"#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786",
	"#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921",
)

// Plasma returns the Plasma colour at t in [0,1] as hex.
func Plasma(t float64) string {
	t = clamp(t, 0, 1)
	n := len(plasmaStops) - 1
	pos := t * float64(n)
	i := int(pos)
	if i >= n {
		return plasmaStops[n].Hex()
	}
	frac := pos - float64(i)
	if frac == 0 {
		return plasmaStops[i].Hex()
	}
	return plasmaStops[i].BlendLab(plasmaStops[i+1], frac).Clamped().Hex()
}

// Known classifier labels get fixed colours.
var classColors = map[string]string{
	"CONFIRMED":      "#2ca02c",
	"CANDIDATE":      "#ff7f0e",
	"FALSE POSITIVE": "#d62728",
}

// extraClassColors are handed out to other labels in order of appearance.
var extraClassColors = []string{
	"#1f77b4", "#9467bd", "#8c564b", "#e377c2", "#17becf", "#bcbd22",
}

// ClassSwatch is one legend entry of the categorical palette.
type ClassSwatch struct {
	Class string `json:"class" yaml:"class"`
	Color string `json:"color" yaml:"color"`
}

// classPalette keeps labels in order of first appearance.
type classPalette struct {
	colors map[string]string
	order  []string
}

func newClassPalette(points []Point) classPalette {
	p := classPalette{colors: map[string]string{}}
	next := 0
	for _, pt := range points {
		key := classKey(pt.ColorKey)
		if key == "" {
			continue
		}
		if _, ok := p.colors[key]; ok {
			continue
		}
		c, ok := classColors[key]
		if !ok {
			c = extraClassColors[next%len(extraClassColors)]
			next++
		}
		p.colors[key] = c
		p.order = append(p.order, key)
	}
	return p
}

func (p classPalette) Color(class string) string {
	if c, ok := p.colors[classKey(class)]; ok {
		return c
	}
	return NeutralColor
}

func (p classPalette) swatches() []ClassSwatch {
	out := make([]ClassSwatch, len(p.order))
	for i, key := range p.order {
		out[i] = ClassSwatch{Class: key, Color: p.colors[key]}
	}
	return out
}

func classKey(class string) string {
	return strings.ToUpper(strings.TrimSpace(class))
}

func mustHexes(hexes ...string) []colorful.Color {
	out := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}
