// Package catalog models exoplanet catalog rows and their ingestion from CSV
// files and the NASA Exoplanet Archive.
package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DefaultRadiusEarth is used when a record has no planet radius.
const DefaultRadiusEarth = 0.5

// Float is an optional numeric attribute. NaN and infinities are never valid.
type Float struct {
	Value float64
	Valid bool
}

// Some returns a present value. Non-finite inputs yield a missing value.
func Some(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Float{}
	}
	return Float{Value: v, Valid: true}
}

// None is a missing value.
var None = Float{}

// Or returns the value, or fallback when missing.
func (f Float) Or(fallback float64) float64 {
	if !f.Valid {
		return fallback
	}
	return f.Value
}

// ParseFloat coerces text to a Float; anything non-numeric is missing.
func ParseFloat(s string) Float {
	s = strings.TrimSpace(s)
	if s == "" {
		return None
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return None
	}
	return Some(v)
}

func (f Float) String() string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}

// MarshalJSON encodes missing values as null.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (f *Float) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = None
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err == nil {
		*f = Some(v)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*f = ParseFloat(str)
		return nil
	}
	// Wrong-typed values coerce to missing rather than failing the row.
	*f = None
	return nil
}

// MarshalYAML encodes missing values as null.
func (f Float) MarshalYAML() (interface{}, error) {
	if !f.Valid {
		return nil, nil
	}
	return f.Value, nil
}

// Record is one catalog row describing a planet.
type Record struct {
	Name              string `json:"pl_name"`
	Host              string `json:"hostname,omitempty"`
	RADeg             Float  `json:"ra"`
	DecDeg            Float  `json:"dec"`
	DistancePc        Float  `json:"sy_dist"`
	EqTempK           Float  `json:"pl_eqt"`
	RadiusEarth       Float  `json:"pl_rade"`
	OrbitalPeriodDays Float  `json:"pl_orbper"`
	StellarTeffK      Float  `json:"st_teff"`
	DiscoveryMethod   string `json:"discoverymethod,omitempty"`
	PredictedClass    string `json:"predicted_class,omitempty"`
}

// Radius returns the planet radius in Earth radii, or DefaultRadiusEarth.
func (r Record) Radius() float64 {
	return r.RadiusEarth.Or(DefaultRadiusEarth)
}

// WithPrediction returns a copy of r carrying the classifier label.
func (r Record) WithPrediction(class string) Record {
	r.PredictedClass = class
	return r
}

// HasCoordinates reports whether the fields required for projection are set.
func (r Record) HasCoordinates() bool {
	return strings.TrimSpace(r.Name) != "" && r.RADeg.Valid && r.DecDeg.Valid && r.DistancePc.Valid
}
