// Package classify labels Kepler objects of interest with a pre-trained
// random forest stored as JSON.
package classify

import (
	"errors"
	"fmt"
	"strings"
)

// FeatureColumns are the KOI catalog columns the model was trained on, in
// model input order.
var FeatureColumns = []string{
	"koi_model_snr",
	"koi_prad",
	"koi_sma",
	"koi_teq",
	"koi_period",
	"koi_duration",
	"koi_depth",
	"koi_steff",
	"koi_slogg",
	"koi_srad",
	"koi_time0bk",
}

// NumFeatures is the model input width.
const NumFeatures = 11

// ErrFeatureCount is returned when an input vector has the wrong width.
var ErrFeatureCount = errors.New("classify: wrong number of features")

// ErrMissingFeature is returned when a required request field is absent.
var ErrMissingFeature = errors.New("classify: missing feature")

// Features is one candidate to classify.
type Features struct {
	SNR          float64 `json:"snr" yaml:"snr"`
	Radius       float64 `json:"radius" yaml:"radius"`     // planet radius, Earth radii
	SMA          float64 `json:"sma" yaml:"sma"`           // semi-major axis, AU
	Temp         float64 `json:"temp" yaml:"temp"`         // equilibrium temperature, K
	Period       float64 `json:"period" yaml:"period"`     // days
	Duration     float64 `json:"duration" yaml:"duration"` // transit duration, hours
	Depth        float64 `json:"depth" yaml:"depth"`       // transit depth, ppm
	StellarTeff  float64 `json:"steff" yaml:"steff"`
	StellarLogG  float64 `json:"slogg" yaml:"slogg"`
	StellarRad   float64 `json:"sr" yaml:"sr"`
	TransitEpoch float64 `json:"time0bk" yaml:"time0bk"`
}

// Vector returns the features in FeatureColumns order.
func (f Features) Vector() []float64 {
	return []float64{
		f.SNR, f.Radius, f.SMA, f.Temp, f.Period, f.Duration,
		f.Depth, f.StellarTeff, f.StellarLogG, f.StellarRad, f.TransitEpoch,
	}
}

// FeaturesFromVector is the inverse of Vector.
func FeaturesFromVector(v []float64) (Features, error) {
	if len(v) != NumFeatures {
		return Features{}, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(v), NumFeatures)
	}
	return Features{
		SNR: v[0], Radius: v[1], SMA: v[2], Temp: v[3], Period: v[4], Duration: v[5],
		Depth: v[6], StellarTeff: v[7], StellarLogG: v[8], StellarRad: v[9], TransitEpoch: v[10],
	}, nil
}

// requestKeys are the short JSON keys accepted by the predict API.
var requestKeys = []string{
	"snr", "radius", "sma", "temp", "period", "duration",
	"depth", "steff", "slogg", "sr", "time0bk",
}

// FeaturesFromMap builds Features from the short request keys. Every key
// must be present.
func FeaturesFromMap(m map[string]float64) (Features, error) {
	v := make([]float64, NumFeatures)
	for i, key := range requestKeys {
		val, ok := m[key]
		if !ok {
			return Features{}, fmt.Errorf("%w: %s", ErrMissingFeature, key)
		}
		v[i] = val
	}
	return FeaturesFromVector(v)
}

// MissingColumns returns the FeatureColumns absent from a CSV header.
func MissingColumns(header []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.ToLower(strings.TrimSpace(h))] = true
	}
	var missing []string
	for _, col := range FeatureColumns {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
