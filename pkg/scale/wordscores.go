// Package scale implements Wordscores (Laver, Benoit, Garry 2003), a
// supervised scaling technique that estimates latent positions of documents
// from word-frequency profiles calibrated against reference documents with
// known positions.
package scale

import (
	"errors"
	"fmt"
	"math"

	"github.com/textscale/textscale/pkg/text"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInvalidInput marks inputs the estimator cannot fit or rescale:
	// fewer than two reference documents, negative smoothing, mismatched
	// vector lengths, or a degenerate reference raw-score distribution.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelMismatch marks a prediction matrix that shares no features
	// with the fitted model.
	ErrModelMismatch = errors.New("model mismatch")
)

// Rescaling selects how raw predicted scores are transformed.
type Rescaling string

const (
	// RescaleNone returns raw weighted-average scores unchanged.
	RescaleNone Rescaling = "none"

	// RescaleLBG applies the Laver-Benoit-Garry bias correction: a linear
	// stretch so the reference documents' predicted scores recover the
	// mean and standard deviation of the original reference scores.
	RescaleLBG Rescaling = "lbg"
)

// ParseRescaling converts a string flag value to a Rescaling option.
func ParseRescaling(s string) (Rescaling, error) {
	switch Rescaling(s) {
	case RescaleNone, RescaleLBG:
		return Rescaling(s), nil
	case "":
		return RescaleNone, nil
	default:
		return "", fmt.Errorf("%w: unknown rescaling %q (expected %q or %q)",
			ErrInvalidInput, s, RescaleNone, RescaleLBG)
	}
}

// Missing returns the marker for an absent reference score or an undefined
// prediction. NaN, so it can never be confused with a real score of zero.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing/undefined marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Model is a fitted Wordscores model. Immutable once returned by Fit.
type Model struct {
	features []string
	scores   []float64 // NaN where no reference document carries the feature
	smooth   float64
	refIDs   []string

	refMean float64
	refSD   float64

	// raw predicted scores of the reference documents under this model,
	// basis of the LBG linear map
	rawMean float64
	rawSD   float64
}

// Features returns the vocabulary the model was fitted on, in column order.
func (m *Model) Features() []string { return m.features }

// Smooth returns the smoothing value used during fitting.
func (m *Model) Smooth() float64 { return m.smooth }

// ReferenceIDs returns the IDs of the documents the model was fitted on.
func (m *Model) ReferenceIDs() []string { return m.refIDs }

// ReferenceStats returns the mean and standard deviation of the reference
// score distribution.
func (m *Model) ReferenceStats() (mean, sd float64) { return m.refMean, m.refSD }

// WordScores returns the defined per-feature scores. Features absent from
// every reference document are omitted.
func (m *Model) WordScores() map[string]float64 {
	out := make(map[string]float64, len(m.features))
	for j, f := range m.features {
		if !IsMissing(m.scores[j]) {
			out[f] = m.scores[j]
		}
	}
	return out
}

// Fit estimates word scores from the reference rows of dfm. refScores must
// have one entry per dfm row; rows whose entry is Missing() are virgin and
// ignored. smooth is added to every cell of the reference rows before
// normalization (Laplace-style). Rows with no features at all are unusable
// as references and skipped.
//
// Each feature's score is the average of the reference scores weighted by
// the feature's relative frequency across the reference documents, so every
// score lies within [min(refScores), max(refScores)].
func Fit(dfm *text.DFM, refScores []float64, smooth float64) (*Model, error) {
	if dfm == nil {
		return nil, fmt.Errorf("%w: dfm is required", ErrInvalidInput)
	}
	if len(refScores) != dfm.NDocs() {
		return nil, fmt.Errorf("%w: %d scores for %d documents",
			ErrInvalidInput, len(refScores), dfm.NDocs())
	}
	if smooth < 0 {
		return nil, fmt.Errorf("%w: smooth must be >= 0, got %v", ErrInvalidInput, smooth)
	}

	var refRows []int
	var refY []float64
	for i := 0; i < dfm.NDocs(); i++ {
		if IsMissing(refScores[i]) {
			continue
		}
		if dfm.RowSum(i) == 0 {
			continue
		}
		refRows = append(refRows, i)
		refY = append(refY, refScores[i])
	}

	if len(refRows) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 reference documents, have %d",
			ErrInvalidInput, len(refRows))
	}

	nRef := len(refRows)
	k := dfm.NFeatures()

	// F: relative frequency of each feature within each reference document,
	// after smoothing.
	f := mat.NewDense(nRef, k, nil)
	for r, i := range refRows {
		var total float64
		for j := 0; j < k; j++ {
			total += dfm.Count(i, j) + smooth
		}
		for j := 0; j < k; j++ {
			f.Set(r, j, (dfm.Count(i, j)+smooth)/total)
		}
	}

	// Column-normalize F into P(doc|feature) and fold in the reference
	// scores: score_j = sum_i P_ij * y_i. A zero column (feature in no
	// reference document) has no defined score.
	scores := make([]float64, k)
	for j := 0; j < k; j++ {
		var colSum, weighted float64
		for r := 0; r < nRef; r++ {
			colSum += f.At(r, j)
			weighted += f.At(r, j) * refY[r]
		}
		if colSum == 0 {
			scores[j] = Missing()
			continue
		}
		scores[j] = weighted / colSum
	}

	refMean, refSD := stat.MeanStdDev(refY, nil)

	m := &Model{
		features: dfm.Features(),
		scores:   scores,
		smooth:   smooth,
		refIDs:   make([]string, 0, nRef),
		refMean:  refMean,
		refSD:    refSD,
	}
	ids := dfm.IDs()
	for _, i := range refRows {
		m.refIDs = append(m.refIDs, ids[i])
	}

	// Raw predictions of the reference documents pin down the LBG map.
	// Predictions never smooth, so neither does this pass.
	raws := make([]float64, 0, nRef)
	for _, i := range refRows {
		raw := rawScore(dfm, i, scores)
		if !IsMissing(raw) {
			raws = append(raws, raw)
		}
	}
	if len(raws) < 2 {
		return nil, fmt.Errorf("%w: reference documents share no scored features",
			ErrInvalidInput)
	}
	m.rawMean, m.rawSD = stat.MeanStdDev(raws, nil)

	return m, nil
}

// Predict scores every row of dfm under the model. The matrix is aligned to
// the model's feature set by name: unknown features are dropped, known
// features absent from dfm contribute zero. A document with no recognized
// feature mass gets Missing(), which propagates through rescaling untouched.
func Predict(m *Model, dfm *text.DFM, rescaling Rescaling) ([]float64, error) {
	if m == nil || dfm == nil {
		return nil, fmt.Errorf("%w: model and dfm are required", ErrInvalidInput)
	}

	aligned, overlap := dfm.Align(m.features)
	if overlap == 0 {
		return nil, fmt.Errorf("%w: no features shared with the fitted model",
			ErrModelMismatch)
	}

	out := make([]float64, aligned.NDocs())
	for i := range out {
		out[i] = rawScore(aligned, i, m.scores)
	}

	switch rescaling {
	case RescaleNone, "":
		return out, nil
	case RescaleLBG:
		if m.rawSD == 0 {
			return nil, fmt.Errorf("%w: reference raw scores have zero variance, cannot rescale",
				ErrInvalidInput)
		}
		ratio := m.refSD / m.rawSD
		for i, v := range out {
			if IsMissing(v) {
				continue
			}
			out[i] = m.refMean + (v-m.rawMean)*ratio
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown rescaling %q", ErrInvalidInput, rescaling)
	}
}

// rawScore is the weighted average of defined word scores, weighted by the
// document's feature counts restricted to features with defined scores.
func rawScore(dfm *text.DFM, row int, scores []float64) float64 {
	var num, den float64
	for j := 0; j < dfm.NFeatures(); j++ {
		if IsMissing(scores[j]) {
			continue
		}
		c := dfm.Count(row, j)
		num += c * scores[j]
		den += c
	}
	if den == 0 {
		return Missing()
	}
	return num / den
}
