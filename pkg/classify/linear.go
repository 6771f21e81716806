package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Linear is a linear stance model with one weight vector per class. Training
// happens elsewhere (e.g. an offline regression run); this type only loads
// and applies the exported coefficients.
type Linear struct {
	Bias    map[Label]float64            `json:"bias"`
	Weights map[Label]map[string]float64 `json:"weights"`
}

// Kind returns KindLinear.
func (m *Linear) Kind() Kind { return KindLinear }

// LoadLinear reads an exported linear model from a JSON file.
func LoadLinear(path string) (*Linear, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading linear model %s: %w", path, err)
	}

	var m Linear
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parsing linear model %s: %w", path, err)
	}
	if len(m.Weights) < 2 {
		return nil, errors.New("linear model needs at least two classes")
	}

	return &m, nil
}

// Predict computes per-class scores z = bias + sum(w_i * x_i), softmaxes
// them, and returns the winning label. Features without a weight contribute
// nothing.
func (m *Linear) Predict(features map[string]float64) (*Prediction, error) {
	if len(m.Weights) == 0 {
		return nil, errors.New("model has no weights")
	}

	scores := make(map[Label]float64, len(m.Weights))
	for l, w := range m.Weights {
		s := m.Bias[l]
		for f, v := range features {
			if coef, ok := w[f]; ok {
				s += coef * v
			}
		}
		scores[l] = s
	}

	return argmax(softmax(scores)), nil
}
