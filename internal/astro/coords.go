package astro

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/soniakeys/unit"
)

// Origin is the observer's reference star. Every projected position is
// relative to it.
var Origin = r3.Vector{}

// EquatorialToCartesian converts right ascension and declination (degrees)
// at distance d into a Cartesian position in the same unit as d.
//
//	x = d cos(dec) cos(ra)
//	y = d cos(dec) sin(ra)
//	z = d sin(dec)
func EquatorialToCartesian(raDeg, decDeg, d float64) r3.Vector {
	sinRA, cosRA := math.Sincos(degToRad(raDeg))
	sinDec, cosDec := math.Sincos(degToRad(decDeg))

	return r3.Vector{
		X: d * cosDec * cosRA,
		Y: d * cosDec * sinRA,
		Z: d * sinDec,
	}
}

// CartesianToEquatorial recovers RA (normalized to [0, 360)), Dec and
// distance from a Cartesian position. The origin maps to all zeros.
func CartesianToEquatorial(v r3.Vector) (raDeg, decDeg, d float64) {
	d = v.Norm()
	if d == 0 {
		return 0, 0, 0
	}

	decDeg = radToDeg(math.Asin(v.Z / d))
	raDeg = radToDeg(math.Atan2(v.Y, v.X))
	if raDeg < 0 {
		raDeg += 360
	}
	if raDeg >= 360 {
		raDeg -= 360
	}
	return raDeg, decDeg, d
}

// DaysToYears converts an orbital period in days to years.
func DaysToYears(days float64) float64 {
	return days / DaysPerYear
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return unit.AngleFromDeg(deg).Rad()
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return unit.Angle(rad).Deg()
}
