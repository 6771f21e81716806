// Package classify provides stance classifiers over term-frequency features.
// The classifier set is closed: each kind is selected by its tag, and every
// kind answers the same Predict call.
package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Label is the stance assigned to a post.
type Label string

const (
	LabelApproval    Label = "approval"
	LabelDisapproval Label = "disapproval"
	LabelNeutral     Label = "neutral"
)

// Labels lists the valid stance labels.
var Labels = []Label{LabelApproval, LabelDisapproval, LabelNeutral}

// ParseLabel validates a stance label string.
func ParseLabel(s string) (Label, error) {
	for _, l := range Labels {
		if Label(s) == l {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown label %q", s)
}

// Kind tags a classifier implementation.
type Kind string

const (
	// KindNaiveBayes is a multinomial naive Bayes classifier fitted from
	// labeled term counts.
	KindNaiveBayes Kind = "naive_bayes"

	// KindLinear is a linear model with externally supplied per-class
	// weights (e.g. exported from an offline training run).
	KindLinear Kind = "linear"
)

var errUnknownKind = errors.New("unknown classifier kind")

// Prediction is a classified label with its softmax confidence.
type Prediction struct {
	Label      Label   `json:"label" yaml:"label"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Classifier scores a single document's term-frequency features.
type Classifier interface {
	Kind() Kind
	Predict(features map[string]float64) (*Prediction, error)
}

// Encode serializes a classifier for storage.
func Encode(c Classifier) ([]byte, error) {
	if c == nil {
		return nil, errors.New("classifier is required")
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding %s classifier: %w", c.Kind(), err)
	}
	return b, nil
}

// Decode reconstructs a stored classifier, dispatching on its kind tag.
func Decode(kind Kind, blob []byte) (Classifier, error) {
	switch kind {
	case KindNaiveBayes:
		var nb NaiveBayes
		if err := json.Unmarshal(blob, &nb); err != nil {
			return nil, fmt.Errorf("decoding naive bayes model: %w", err)
		}
		if len(nb.ClassLogPrior) == 0 {
			return nil, errors.New("naive bayes model has no classes")
		}
		return &nb, nil
	case KindLinear:
		var lm Linear
		if err := json.Unmarshal(blob, &lm); err != nil {
			return nil, fmt.Errorf("decoding linear model: %w", err)
		}
		if len(lm.Weights) < 2 {
			return nil, errors.New("linear model needs at least two classes")
		}
		return &lm, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownKind, kind)
	}
}

// softmax converts class log scores into probabilities, shifted by the max
// score so exponentiation cannot overflow.
func softmax(scores map[Label]float64) map[Label]float64 {
	var max float64
	first := true
	for _, s := range scores {
		if first || s > max {
			max = s
			first = false
		}
	}

	out := make(map[Label]float64, len(scores))
	var norm float64
	for l, s := range scores {
		e := math.Exp(s - max)
		out[l] = e
		norm += e
	}
	for l := range out {
		out[l] /= norm
	}
	return out
}

// argmax returns the best label with its probability; ties break on label
// order for determinism.
func argmax(probs map[Label]float64) *Prediction {
	best := &Prediction{Confidence: -1}
	for _, l := range Labels {
		if p, ok := probs[l]; ok && p > best.Confidence {
			best = &Prediction{Label: l, Confidence: p}
		}
	}
	if best.Confidence < 0 {
		// classes outside the canonical label set
		for l, p := range probs {
			if p > best.Confidence {
				best = &Prediction{Label: l, Confidence: p}
			}
		}
	}
	return best
}
