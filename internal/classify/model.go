package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidModel wraps structural problems found while loading a model.
var ErrInvalidModel = errors.New("classify: invalid model")

// Tree is a fitted decision tree in flat array form. Node i is a leaf when
// Left[i] is -1; otherwise samples with x[Feature[i]] <= Threshold[i] go to
// Left[i] and the rest to Right[i]. Value[i] holds per-class weights.
type Tree struct {
	Left      []int       `json:"left"`
	Right     []int       `json:"right"`
	Feature   []int       `json:"feature"`
	Threshold []float64   `json:"threshold"`
	Value     [][]float64 `json:"value"`
}

// Model is a standard-scaled random forest with decoded class labels.
type Model struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
	Classes  []string  `json:"classes"`
	Trees    []Tree    `json:"trees"`
}

// Prediction is the classifier output for one candidate.
type Prediction struct {
	Label         string             `json:"prediction"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Load reads a JSON model from path.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// Decode reads and validates a JSON model.
func Decode(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Encode writes the model as JSON.
func (m *Model) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(m)
}

// Validate checks the model's internal consistency.
func (m *Model) Validate() error {
	if len(m.Features) != 0 && len(m.Features) != NumFeatures {
		return fmt.Errorf("%w: %d feature names, want %d", ErrInvalidModel, len(m.Features), NumFeatures)
	}
	if len(m.Mean) != NumFeatures || len(m.Scale) != NumFeatures {
		return fmt.Errorf("%w: scaler has %d/%d entries, want %d", ErrInvalidModel, len(m.Mean), len(m.Scale), NumFeatures)
	}
	for i, s := range m.Scale {
		if s == 0 {
			return fmt.Errorf("%w: zero scale for feature %d", ErrInvalidModel, i)
		}
	}
	if len(m.Classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidModel)
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrInvalidModel)
	}
	for i, t := range m.Trees {
		if err := t.validate(len(m.Classes)); err != nil {
			return fmt.Errorf("%w: tree %d: %v", ErrInvalidModel, i, err)
		}
	}
	return nil
}

func (t Tree) validate(nClasses int) error {
	n := len(t.Left)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.Right) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("array lengths differ")
	}
	for i := 0; i < n; i++ {
		if t.Left[i] == -1 {
			if len(t.Value[i]) != nClasses {
				return fmt.Errorf("leaf %d has %d values, want %d", i, len(t.Value[i]), nClasses)
			}
			continue
		}
		if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
			return fmt.Errorf("node %d has out-of-range children", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= NumFeatures {
			return fmt.Errorf("node %d splits on feature %d", i, t.Feature[i])
		}
	}
	return nil
}

// leaf walks x down the tree. Children always have larger indices than
// their parent, so the walk terminates.
func (t Tree) leaf(x []float64) []float64 {
	node := 0
	for t.Left[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node]
}

// Standardize applies the fitted scaler to x.
func (m *Model) Standardize(x []float64) ([]float64, error) {
	if len(x) != NumFeatures {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(x), NumFeatures)
	}
	out := make([]float64, NumFeatures)
	floats.SubTo(out, x, m.Mean)
	floats.Div(out, m.Scale)
	return out, nil
}

// Predict classifies one candidate.
func (m *Model) Predict(f Features) (Prediction, error) {
	return m.PredictVector(f.Vector())
}

// PredictVector classifies a raw feature vector in FeatureColumns order.
// Class probabilities are the mean of each tree's normalised leaf weights.
func (m *Model) PredictVector(x []float64) (Prediction, error) {
	scaled, err := m.Standardize(x)
	if err != nil {
		return Prediction{}, err
	}

	probs := make([]float64, len(m.Classes))
	leafProbs := make([]float64, len(m.Classes))
	for _, t := range m.Trees {
		copy(leafProbs, t.leaf(scaled))
		if total := floats.Sum(leafProbs); total > 0 {
			floats.Scale(1/total, leafProbs)
		}
		floats.Add(probs, leafProbs)
	}
	floats.Scale(1/float64(len(m.Trees)), probs)

	best := floats.MaxIdx(probs)
	pred := Prediction{
		Label:         m.Classes[best],
		Confidence:    probs[best],
		Probabilities: make(map[string]float64, len(m.Classes)),
	}
	for i, c := range m.Classes {
		pred.Probabilities[c] = probs[i]
	}
	return pred, nil
}
