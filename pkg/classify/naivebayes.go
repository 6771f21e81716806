package classify

import (
	"errors"
	"fmt"
	"math"

	"github.com/textscale/textscale/pkg/text"
)

// NaiveBayes is a multinomial naive Bayes classifier over term counts.
// Conditional probabilities use Laplace smoothing and are kept in log space
// to avoid underflow. Exported fields so fitted models round-trip as JSON.
type NaiveBayes struct {
	// ClassLogPrior holds log(docs in class / total docs).
	ClassLogPrior map[Label]float64 `json:"class_log_prior"`
	// FeatureLogProb holds log p(feature|class) per class.
	FeatureLogProb map[Label]map[string]float64 `json:"feature_log_prob"`
	// UnseenLogProb is the smoothed log probability of a vocabulary
	// feature never observed in a class.
	UnseenLogProb map[Label]float64 `json:"unseen_log_prob"`
}

// Kind returns KindNaiveBayes.
func (nb *NaiveBayes) Kind() Kind { return KindNaiveBayes }

// FitNaiveBayes estimates class priors and smoothed per-class feature
// probabilities from the labeled rows of dfm. labels must have one entry per
// row; rows with an empty label are unlabeled and skipped. At least two
// distinct labels are required.
func FitNaiveBayes(dfm *text.DFM, labels []Label) (*NaiveBayes, error) {
	if dfm == nil {
		return nil, errors.New("dfm is required")
	}
	if len(labels) != dfm.NDocs() {
		return nil, fmt.Errorf("%d labels for %d documents", len(labels), dfm.NDocs())
	}

	classDocs := make(map[Label]int)
	termFreq := make(map[Label][]float64)
	var labeled int

	for i, l := range labels {
		if l == "" {
			continue
		}
		labeled++
		classDocs[l]++
		if termFreq[l] == nil {
			termFreq[l] = make([]float64, dfm.NFeatures())
		}
		for j := 0; j < dfm.NFeatures(); j++ {
			termFreq[l][j] += dfm.Count(i, j)
		}
	}

	if len(classDocs) < 2 {
		return nil, fmt.Errorf("need at least 2 distinct labels, have %d", len(classDocs))
	}

	vocabSize := float64(dfm.NFeatures())
	features := dfm.Features()

	nb := &NaiveBayes{
		ClassLogPrior:  make(map[Label]float64, len(classDocs)),
		FeatureLogProb: make(map[Label]map[string]float64, len(classDocs)),
		UnseenLogProb:  make(map[Label]float64, len(classDocs)),
	}

	for l, docs := range classDocs {
		nb.ClassLogPrior[l] = math.Log(float64(docs) / float64(labeled))

		var total float64
		for _, c := range termFreq[l] {
			total += c
		}
		denom := total + vocabSize // Laplace: +1 per vocabulary feature

		probs := make(map[string]float64, len(features))
		for j, f := range features {
			probs[f] = math.Log((termFreq[l][j] + 1) / denom)
		}
		nb.FeatureLogProb[l] = probs
		nb.UnseenLogProb[l] = math.Log(1 / denom)
	}

	return nb, nil
}

// Predict scores the document's features against every class and returns the
// most probable label. Features outside the training vocabulary are dropped,
// matching how prediction matrices are aligned elsewhere.
func (nb *NaiveBayes) Predict(features map[string]float64) (*Prediction, error) {
	if len(nb.ClassLogPrior) == 0 {
		return nil, errors.New("model is not fitted")
	}

	scores := make(map[Label]float64, len(nb.ClassLogPrior))
	for l, prior := range nb.ClassLogPrior {
		s := prior
		for f, n := range features {
			if n <= 0 {
				continue
			}
			lp, ok := nb.FeatureLogProb[l][f]
			if !ok {
				continue
			}
			s += n * lp
		}
		scores[l] = s
	}

	return argmax(softmax(scores)), nil
}
