// Package astro provides distance units and sky-to-Cartesian coordinate math.
package astro

import (
	"errors"
	"fmt"
	"strings"
)

// Distance conversion constants.
const (
	LightYearsPerParsec = 3.26156
	AUPerParsec         = 206264.8

	// DaysPerYear converts orbital periods for display.
	DaysPerYear = 365.25
)

// ErrUnknownUnit is returned when a unit name cannot be parsed.
var ErrUnknownUnit = errors.New("unknown distance unit")

// Unit is a distance unit used for projection output.
type Unit int

const (
	Parsec Unit = iota
	LightYear
	AstronomicalUnit
)

// Units lists every supported unit in display order.
var Units = []Unit{Parsec, LightYear, AstronomicalUnit}

// Factor returns the multiplier from parsecs to this unit.
// It panics on a value outside the enum; that is a programming error.
func (u Unit) Factor() float64 {
	switch u {
	case Parsec:
		return 1
	case LightYear:
		return LightYearsPerParsec
	case AstronomicalUnit:
		return AUPerParsec
	default:
		panic(fmt.Sprintf("astro: invalid unit %d", int(u)))
	}
}

// Label returns the short axis label (pc, ly, AU).
func (u Unit) Label() string {
	switch u {
	case Parsec:
		return "pc"
	case LightYear:
		return "ly"
	case AstronomicalUnit:
		return "AU"
	default:
		return "?"
	}
}

func (u Unit) String() string {
	switch u {
	case Parsec:
		return "parsec"
	case LightYear:
		return "light_year"
	case AstronomicalUnit:
		return "astronomical_unit"
	default:
		return "unknown"
	}
}

// Next cycles to the following unit, wrapping around.
func (u Unit) Next() Unit {
	return Units[(int(u)+1)%len(Units)]
}

// ParseUnit parses a unit name or abbreviation.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pc", "parsec", "parsecs":
		return Parsec, nil
	case "ly", "light_year", "lightyear", "light-year", "al":
		return LightYear, nil
	case "au", "ua", "astronomical_unit", "astronomicalunit":
		return AstronomicalUnit, nil
	default:
		return Parsec, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.Label()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(b []byte) error {
	parsed, err := ParseUnit(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
